package modules

import (
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/hrm"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/org"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll"
	"github.com/DiSSeNHaTeCHNe/sistema-folha/pkg/application"
)

// BuiltInModules in registration order: payroll depends on hrm services
// being registered first.
var BuiltInModules = []application.Module{
	hrm.NewModule(),
	org.NewModule(),
	payroll.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
