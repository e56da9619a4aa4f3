package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"

	"github.com/DiSSeNHaTeCHNe/sistema-folha/modules/payroll/feed"
)

type checkReport struct {
	File          string  `json:"file"`
	Lines         int     `json:"lines"`
	Employees     int     `json:"employees"`
	Entries       int     `json:"entries"`
	Slots         int     `json:"slots"`
	PeriodStart   *string `json:"period_start,omitempty"`
	PeriodEnd     *string `json:"period_end,omitempty"`
	TotalsPresent bool    `json:"totals_present"`
}

// newCheckCmd parses a feed without touching the database, so an
// operator can validate an export before running the real import.
func newCheckCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "check --file <path>",
		Short: "Dry-run parse of an ADP feed file, report structure as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(path) == "" {
				return errors.New("--file is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			report := checkReport{File: path}
			totals := &feed.Totals{}

			sc := bufio.NewScanner(charmap.Windows1252.NewDecoder().Reader(f))
			sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for sc.Scan() {
				line := sc.Text()
				report.Lines++
				totals.Probe(line)

				switch v := feed.Classify(line).(type) {
				case feed.Competency:
					start := v.Start.Format(time.DateOnly)
					end := v.End.Format(time.DateOnly)
					report.PeriodStart = &start
					report.PeriodEnd = &end
				case feed.EmployeeHeader:
					report.Employees++
				case feed.Entry:
					report.Entries++
					report.Slots += len(v.Slots)
				}
			}
			if err := sc.Err(); err != nil {
				return err
			}
			report.TotalsPresent = totals.Complete()

			return writeJSON(cmd, report)
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "path to the Windows-1252 feed file")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
