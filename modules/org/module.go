package org

import (
	"embed"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/org/infrastructure/persistence"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/org/presentation/controllers"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/org/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

//go:embed infrastructure/persistence/schema/org-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	app.RegisterServices(
		services.NewOrgService(persistence.NewOrgRepository(), app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewOrgAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "org"
}
