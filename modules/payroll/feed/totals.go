package feed

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	totalEmployeesRe  = regexp.MustCompile(`Total de Empregados\s*:\s*(\d+)`)
	totalChargesRe    = regexp.MustCompile(`Total de Encargos\s*:\s*([\d.,]+)`)
	totalGrossRe      = regexp.MustCompile(`Total de Pagamentos\s*:\s*([\d.,]+)`)
	totalDeductionsRe = regexp.MustCompile(`Total de Descontos\s*:\s*([\d.,]+)`)
	totalNetRe        = regexp.MustCompile(`Total Líquido\s*:\s*([\d.,]+)`)
)

// Totals accumulates the five trailer figures of a feed. Each probe is
// independent of line classification; a field stays nil until its label
// is seen.
type Totals struct {
	Employees  *int
	Charges    *decimal.Decimal
	Gross      *decimal.Decimal
	Deductions *decimal.Decimal
	Net        *decimal.Decimal
}

// Probe matches the trailer patterns against one line and fills in any
// figure found. Later occurrences overwrite earlier ones.
func (t *Totals) Probe(line string) {
	if m := totalEmployeesRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			t.Employees = &n
		}
	}
	if m := totalChargesRe.FindStringSubmatch(line); m != nil {
		v := ParseDecimal(m[1])
		t.Charges = &v
	}
	if m := totalGrossRe.FindStringSubmatch(line); m != nil {
		v := ParseDecimal(m[1])
		t.Gross = &v
	}
	if m := totalDeductionsRe.FindStringSubmatch(line); m != nil {
		v := ParseDecimal(m[1])
		t.Deductions = &v
	}
	if m := totalNetRe.FindStringSubmatch(line); m != nil {
		v := ParseDecimal(m[1])
		t.Net = &v
	}
}

// Complete reports whether all five trailer figures were found.
func (t *Totals) Complete() bool {
	return t.Employees != nil && t.Charges != nil && t.Gross != nil && t.Deductions != nil && t.Net != nil
}
