// Package feed classifies lines of the positional payroll export and
// extracts structured entries from them. The layout is a fixed contract
// of the upstream provider: column offsets are counted in characters of
// the decoded text, so all slicing here works on runes, not bytes.
package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a rubric by the trailing sign of its value column.
type Kind string

const (
	KindEarning       Kind = "PROVENTO"
	KindDeduction     Kind = "DESCONTO"
	KindInformational Kind = "INFORMATIVO"
)

// Slot is one extracted earning/deduction movement. An entry line
// carries one or two of them side by side.
type Slot struct {
	Code        string
	Description string
	Quantity    decimal.Decimal
	Base        decimal.Decimal
	Value       decimal.Decimal
	Kind        Kind
}

// Line is the tagged result of classifying one feed line.
type Line interface{ line() }

type NoMatch struct{}

// Competency is the period header ("Competência: dd/mm/yyyy a dd/mm/yyyy").
type Competency struct {
	Start time.Time
	End   time.Time
}

// EmployeeHeader opens a new employee block.
type EmployeeHeader struct {
	ExternalID string
	Label      string
}

// Entry is a payroll movement line with one or two slots.
type Entry struct {
	Slots []Slot
}

func (NoMatch) line()        {}
func (Competency) line()     {}
func (EmployeeHeader) line() {}
func (Entry) line()          {}

const competencyLabel = "Competência:"

var (
	competencySplitRe = regexp.MustCompile(`Competência:\s*`)
	periodSplitRe     = regexp.MustCompile(`\s+a\s+`)
	valuesRe          = regexp.MustCompile(`([\d.,]+)\s+([\d.,]+)\s+([\d.,]+[+-]?)`)
)

// Classify inspects a single line (no trailing newline) and returns the
// recognized shape. Malformed content never fails: anything that does
// not match a known shape degrades to NoMatch, and a bad slot inside an
// otherwise valid entry line is simply dropped.
func Classify(line string) Line {
	if c, ok := classifyCompetency(line); ok {
		return c
	}

	runes := []rune(line)

	if h, ok := classifyEmployeeHeader(runes); ok {
		return h
	}
	if e, ok := classifyEntry(runes); ok {
		return e
	}
	return NoMatch{}
}

func classifyCompetency(line string) (Competency, bool) {
	if !strings.Contains(line, competencyLabel) {
		return Competency{}, false
	}
	parts := competencySplitRe.Split(line, 2)
	if len(parts) < 2 {
		return Competency{}, false
	}
	dates := periodSplitRe.Split(strings.TrimSpace(parts[1]), 2)
	if len(dates) != 2 {
		return Competency{}, false
	}
	start, err := time.Parse("02/01/2006", strings.TrimSpace(dates[0]))
	if err != nil {
		return Competency{}, false
	}
	end, err := time.Parse("02/01/2006", strings.TrimSpace(dates[1]))
	if err != nil {
		return Competency{}, false
	}
	return Competency{Start: start, End: end}, true
}

func classifyEmployeeHeader(runes []rune) (EmployeeHeader, bool) {
	if len(runes) <= 102 {
		return EmployeeHeader{}, false
	}
	if !strings.EqualFold(string(runes[96:102]), "Admiss") {
		return EmployeeHeader{}, false
	}
	return EmployeeHeader{
		ExternalID: strings.TrimSpace(string(runes[50:55])),
		Label:      strings.TrimSpace(string(runes[57:96])),
	}, true
}

func classifyEntry(runes []rune) (Entry, bool) {
	if len(runes) <= 6 {
		return Entry{}, false
	}
	if isBlank(runes[0:4]) || !isBlank(runes[4:5]) || isBlank(runes[5:6]) {
		return Entry{}, false
	}
	// decorative separators and the tabular header are not entries
	if strings.EqualFold(string(runes[0:4]), "¯¯¯¯") || strings.EqualFold(string(runes[0:3]), "Evt") {
		return Entry{}, false
	}

	// a line of exactly 130 chars is the dual-slot layout with the last
	// pad column trimmed by the exporter
	if len(runes) == 130 {
		runes = append(runes, ' ')
	}

	var slots []Slot
	if s, ok := parseSlot(runes, 0, 65); ok {
		slots = append(slots, s)
	}
	if len(runes) > 130 &&
		strings.TrimSpace(string(runes[66:97])) != "" &&
		!isBlank(runes[66:70]) &&
		strings.TrimSpace(string(runes[98:131])) != "" {
		if s, ok := parseSlot(runes, 66, 131); ok {
			slots = append(slots, s)
		}
	}
	if len(slots) == 0 {
		return Entry{}, false
	}
	return Entry{Slots: slots}, true
}

// parseSlot reads one code+description+values group from runes[start:end).
// The code is the first whitespace-delimited token; the three numbers
// (quantity, base, signed value) are located by regex inside the rest,
// and whatever sits between code and numbers is the description.
func parseSlot(runes []rune, start, end int) (Slot, bool) {
	if len(runes) < end {
		return Slot{}, false
	}
	region := strings.TrimSpace(string(runes[start:end]))
	if region == "" {
		return Slot{}, false
	}

	code, rest, found := strings.Cut(region, " ")
	if !found {
		return Slot{}, false
	}
	code = strings.TrimSpace(code)

	loc := valuesRe.FindStringSubmatchIndex(rest)
	if loc == nil {
		return Slot{}, false
	}
	description := strings.TrimSpace(rest[:loc[0]])
	if code == "" || description == "" {
		return Slot{}, false
	}

	quantity := rest[loc[2]:loc[3]]
	base := rest[loc[4]:loc[5]]
	value := rest[loc[6]:loc[7]]

	return Slot{
		Code:        code,
		Description: description,
		Quantity:    ParseDecimal(quantity),
		Base:        ParseDecimal(base),
		Value:       ParseDecimal(value),
		Kind:        kindFromSign(value),
	}, true
}

func kindFromSign(value string) Kind {
	switch {
	case strings.HasSuffix(value, "+"):
		return KindEarning
	case strings.HasSuffix(value, "-"):
		return KindDeduction
	default:
		return KindInformational
	}
}

// ParseDecimal converts the feed's locale format ("13.250,54+") to a
// decimal. Sign characters are stripped, dots are thousands separators
// and the comma is the decimal mark. Anything unparseable is zero.
func ParseDecimal(s string) decimal.Decimal {
	cleaned := strings.NewReplacer("+", "", "-", "", ".", "").Replace(strings.TrimSpace(s))
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, ",", "."))
	if cleaned == "" || cleaned == "." {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isBlank(runes []rune) bool {
	return strings.TrimSpace(string(runes)) == ""
}
