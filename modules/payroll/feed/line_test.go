package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// values lays out the three-number field at exactly 33 characters, the
// width of a slot's value columns in the feed.
func values(quantity, base, value string) string {
	return fmt.Sprintf("%10s %10s %11s", quantity, base, value)
}

// singleLine lays out one slot at the exact feed columns:
// code+description in [0,31), values in [32,65).
func singleLine(rubric, quantity, base, value string) string {
	return fmt.Sprintf("%-31s %s", rubric, values(quantity, base, value))
}

// dualLine lays out two slots: the second in [66,97) and [98,131).
func dualLine(rubric1, values1, rubric2, values2 string) string {
	return fmt.Sprintf("%-31s %s %-31s %s", rubric1, values1, rubric2, values2)
}

func headerLine(externalID, label string) string {
	return fmt.Sprintf("%50s%-5s  %-39sAdmissão: 01/01/2020", "", externalID, label)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func TestClassify_SampleEntryLine(t *testing.T) {
	line := "0010 Salário Base           200,00         0,00        13.250,54+"

	entry, ok := Classify(line).(Entry)
	require.True(t, ok)
	require.Len(t, entry.Slots, 1)

	slot := entry.Slots[0]
	require.Equal(t, "0010", slot.Code)
	require.Equal(t, "Salário Base", slot.Description)
	requireDecimal(t, "200.00", slot.Quantity)
	requireDecimal(t, "0.00", slot.Base)
	requireDecimal(t, "13250.54", slot.Value)
	require.Equal(t, KindEarning, slot.Kind)
}

func TestClassify_DualSlotLine(t *testing.T) {
	line := dualLine(
		"0010 Salário Base", values("30,00", "0,00", "5.000,00+"),
		"0301 INSS", values("11,00", "5.000,00", "550,00-"),
	)
	require.Equal(t, 131, len([]rune(line)))

	entry, ok := Classify(line).(Entry)
	require.True(t, ok)
	require.Len(t, entry.Slots, 2)

	require.Equal(t, "0010", entry.Slots[0].Code)
	require.Equal(t, "Salário Base", entry.Slots[0].Description)
	requireDecimal(t, "30.00", entry.Slots[0].Quantity)
	requireDecimal(t, "5000.00", entry.Slots[0].Value)
	require.Equal(t, KindEarning, entry.Slots[0].Kind)

	require.Equal(t, "0301", entry.Slots[1].Code)
	require.Equal(t, "INSS", entry.Slots[1].Description)
	requireDecimal(t, "5000.00", entry.Slots[1].Base)
	requireDecimal(t, "550.00", entry.Slots[1].Value)
	require.Equal(t, KindDeduction, entry.Slots[1].Kind)
}

func TestClassify_Exactly130CharLineGetsPadded(t *testing.T) {
	full := []rune(dualLine(
		"0010 Salário Base", values("30,00", "0,00", "5.000,00+"),
		"0301 INSS", values("11,00", "5.000,00", "550,00-"),
	))
	// the exporter trims the final sign column when it is the last
	// character of the report width
	line := string(full[:130])

	entry, ok := Classify(line).(Entry)
	require.True(t, ok)
	require.Len(t, entry.Slots, 2)
	requireDecimal(t, "550.00", entry.Slots[1].Value)
	require.Equal(t, KindInformational, entry.Slots[1].Kind)
}

func TestClassify_EmptySecondSlotIgnored(t *testing.T) {
	line := dualLine("0010 Salário Base", values("30,00", "0,00", "5.000,00+"), "", values("", "", ""))

	entry, ok := Classify(line).(Entry)
	require.True(t, ok)
	require.Len(t, entry.Slots, 1)
}

func TestClassify_InformationalWithoutSign(t *testing.T) {
	line := singleLine("9001 Base FGTS", "0,00", "5.000,00", "5.000,00")

	entry, ok := Classify(line).(Entry)
	require.True(t, ok)
	require.Equal(t, KindInformational, entry.Slots[0].Kind)
}

func TestClassify_ExcludedLines(t *testing.T) {
	for _, line := range []string{
		"¯¯¯¯ ¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯¯",
		"Evt. Descrição                  Qtde          Base          Valor",
		"",
		"     0010 deslocado para a direita",
		fmt.Sprintf("%70s", ""),
	} {
		_, ok := Classify(line).(NoMatch)
		require.True(t, ok, "expected no match for %q", line)
	}
}

func TestClassify_Competency(t *testing.T) {
	c, ok := Classify("Folha Mensal                  Competência: 01/10/2023 a 31/10/2023").(Competency)
	require.True(t, ok)
	require.Equal(t, time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), c.Start)
	require.Equal(t, time.Date(2023, 10, 31, 0, 0, 0, 0, time.UTC), c.End)
}

func TestClassify_MalformedCompetencyIgnored(t *testing.T) {
	for _, line := range []string{
		"Competência:",
		"Competência: outubro de 2023",
		"Competência: 41/10/2023 a 31/10/2023",
	} {
		_, ok := Classify(line).(NoMatch)
		require.True(t, ok, "expected no match for %q", line)
	}
}

func TestClassify_EmployeeHeader(t *testing.T) {
	line := headerLine("12345", "MARIA SOUZA")

	h, ok := Classify(line).(EmployeeHeader)
	require.True(t, ok)
	require.Equal(t, "12345", h.ExternalID)
	require.Equal(t, "MARIA SOUZA", h.Label)
}

func TestClassify_ShortHeaderIsNoMatch(t *testing.T) {
	_, ok := Classify("Admiss").(NoMatch)
	require.True(t, ok)
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"13.250,54+", "13250.54"},
		{"550,00-", "550.00"},
		{"0,00", "0"},
		{"1.234", "1234"},
		{"200,00", "200.00"},
		{"", "0"},
		{",", "0"},
		{"abc", "0"},
	}
	for _, tc := range cases {
		requireDecimal(t, tc.want, ParseDecimal(tc.in))
	}
}

func TestTotals_ProbeAndComplete(t *testing.T) {
	var totals Totals
	require.False(t, totals.Complete())

	totals.Probe("Total de Empregados          :          42")
	totals.Probe("Total de Encargos            :   10.000,00")
	totals.Probe("Total de Pagamentos          :  150.000,00")
	totals.Probe("Total de Descontos           :   30.000,00")
	require.False(t, totals.Complete())

	totals.Probe("Total Líquido                :  120.000,00")
	require.True(t, totals.Complete())

	require.Equal(t, 42, *totals.Employees)
	requireDecimal(t, "10000.00", *totals.Charges)
	requireDecimal(t, "150000.00", *totals.Gross)
	requireDecimal(t, "30000.00", *totals.Deductions)
	requireDecimal(t, "120000.00", *totals.Net)
}
