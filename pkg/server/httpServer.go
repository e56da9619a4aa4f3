package server

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

// HTTPServer assembles the application's controllers and middleware into
// a single gzip-compressed gorilla/mux handler.
type HTTPServer struct {
	controllers      []application.Controller
	middlewares      []mux.MiddlewareFunc
	notFound         http.Handler
	methodNotAllowed http.Handler
}

func NewHTTPServer(
	app application.Application,
	notFound, methodNotAllowed http.Handler,
) *HTTPServer {
	return &HTTPServer{
		controllers:      app.Controllers(),
		middlewares:      app.Middleware(),
		notFound:         notFound,
		methodNotAllowed: methodNotAllowed,
	}
}

// chain wraps h in the middleware stack, outermost first. The router
// only applies r.Use middleware to matched routes, so the fallback
// handlers have to be wrapped explicitly.
func (s *HTTPServer) chain(h http.Handler) http.Handler {
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		h = s.middlewares[i](h)
	}
	return h
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.middlewares...)
	for _, controller := range s.controllers {
		controller.Register(r)
	}
	r.NotFoundHandler = s.chain(s.notFound)
	r.MethodNotAllowedHandler = s.chain(s.methodNotAllowed)
	return r
}

// Handler compresses every response for clients that accept gzip,
// which matters for the large payroll listings.
func (s *HTTPServer) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

func (s *HTTPServer) Start(socketAddress string) error {
	return http.ListenAndServe(socketAddress, s.Handler())
}
