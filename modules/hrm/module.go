package hrm

import (
	"embed"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/infrastructure/persistence"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/presentation/controllers"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

//go:embed infrastructure/persistence/schema/hrm-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	app.RegisterServices(
		services.NewEmployeeService(persistence.NewEmployeeRepository(), app.EventPublisher()),
		services.NewPositionService(persistence.NewPositionRepository(), app.EventPublisher()),
		services.NewCostCenterService(persistence.NewCostCenterRepository(), app.EventPublisher()),
		services.NewBusinessLineService(persistence.NewBusinessLineRepository(), app.EventPublisher()),
	)

	app.RegisterControllers(
		controllers.NewEmployeeAPIController(app),
		controllers.NewPositionAPIController(app),
		controllers.NewCostCenterAPIController(app),
		controllers.NewBusinessLineAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "hrm"
}
