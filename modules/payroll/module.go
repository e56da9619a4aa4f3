package payroll

import (
	"embed"

	hrmservices "github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/infrastructure/persistence"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/presentation/controllers"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/services"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

//go:embed infrastructure/persistence/schema/payroll-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

// Register wires the payroll services. The HR module must be registered
// first: the import resolves feed headers through its EmployeeService.
func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	employees := app.Service(hrmservices.EmployeeService{}).(*hrmservices.EmployeeService)

	lineRepo := persistence.NewPayrollLineRepository()
	summaryRepo := persistence.NewImportSummaryRepository()
	rubricService := services.NewRubricService(persistence.NewRubricRepository(), app.EventPublisher())

	app.RegisterServices(
		rubricService,
		services.NewPayrollLineService(lineRepo, app.EventPublisher()),
		services.NewImportSummaryService(summaryRepo),
		services.NewImportService(employees, rubricService, lineRepo, summaryRepo, app.EventPublisher(), app.Logger()),
	)

	app.RegisterControllers(
		controllers.NewImportAPIController(app),
		controllers.NewRubricAPIController(app),
		controllers.NewPayrollLineAPIController(app),
		controllers.NewSummaryAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "payroll"
}
