// Package report exports runs as spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ypid/datalad/internal/models"
)

const (
	RunSheet     = "run"
	ResultsSheet = "results"
)

var resultsHeader = []any{"Seq", "Action", "Path", "Type", "Status", "Message", "Dataset"}

// Write writes a workbook describing run to w: a "run" sheet with the
// summary and a "results" sheet with one row per result.
func Write(w io.Writer, run models.Run, results []models.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RunSheet); err != nil {
		return err
	}
	if err := writeRun(f, run); err != nil {
		return fmt.Errorf("writing run sheet: %w", err)
	}

	if _, err := f.NewSheet(ResultsSheet); err != nil {
		return err
	}
	if err := writeResults(f, results); err != nil {
		return fmt.Errorf("writing results sheet: %w", err)
	}

	return f.Write(w)
}

func writeRun(f *excelize.File, run models.Run) error {
	finished := ""
	if run.FinishedAt != nil {
		finished = run.FinishedAt.Format(time.RFC3339)
	}
	rows := [][]any{
		{"ID", run.ID.String()},
		{"State", string(run.State)},
		{"Started", run.StartedAt.Format(time.RFC3339)},
		{"Finished", finished},
		{"Jobs", run.Jobs},
		{"Ordered", run.Ordered},
		{"Results", run.Total},
		{"Failed", run.Failed},
	}
	for i, row := range rows {
		if err := setRow(f, RunSheet, i+1, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(RunSheet, "B", "B", 40)
}

func writeResults(f *excelize.File, results []models.RunResult) error {
	if err := setRow(f, ResultsSheet, 1, resultsHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(ResultsSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range results {
		row := []any{r.Seq, r.Action, r.Path, r.Type, string(r.Status), r.Message, r.RefDS}
		if err := setRow(f, ResultsSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(ResultsSheet, "C", "C", 60)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
