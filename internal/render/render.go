// Package render prints results and runs for the terminal.
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/ypid/datalad/internal/models"
	srvErrors "github.com/ypid/datalad/pkg/errors"
)

// Printer writes one line per result and keeps the counts for the final
// action summary.
type Printer struct {
	w      io.Writer
	counts map[string]map[models.ResultStatus]int

	ok, warn, bad func(a ...any) string
}

func NewPrinter(w io.Writer, colored bool) *Printer {
	mk := func(attr color.Attribute) func(a ...any) string {
		c := color.New(attr)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return &Printer{
		w:      w,
		counts: make(map[string]map[models.ResultStatus]int),
		ok:     mk(color.FgGreen),
		warn:   mk(color.FgYellow),
		bad:    mk(color.FgRed),
	}
}

func (p *Printer) status(s models.ResultStatus) string {
	switch {
	case s == models.StatusOK:
		return p.ok(string(s))
	case s.Failed():
		return p.bad(string(s))
	default:
		return p.warn(string(s))
	}
}

// Result prints r as "action(status): path (type) [message]".
func (p *Printer) Result(r models.Result) {
	if p.counts[r.Action] == nil {
		p.counts[r.Action] = make(map[models.ResultStatus]int)
	}
	p.counts[r.Action][r.Status]++

	line := fmt.Sprintf("%s(%s): %s (%s)", r.Action, p.status(r.Status), r.Path, r.Type)
	if r.Message != "" && r.Status != models.StatusOK {
		line += " [" + r.Message + "]"
	}
	fmt.Fprintln(p.w, line)
}

// Summary prints the action summary and, for a failed run, the failure.
func (p *Printer) Summary(err error) {
	if len(p.counts) > 0 {
		fmt.Fprintln(p.w, "action summary:")
		actions := make([]string, 0, len(p.counts))
		for a := range p.counts {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		for _, a := range actions {
			statuses := make([]string, 0, len(p.counts[a]))
			for s := range p.counts[a] {
				statuses = append(statuses, string(s))
			}
			sort.Strings(statuses)
			for _, s := range statuses {
				st := models.ResultStatus(s)
				fmt.Fprintf(p.w, "  %s (%s: %d)\n", a, p.status(st), p.counts[a][st])
			}
		}
	}

	if err == nil {
		return
	}
	if agg, ok := srvErrors.AsIncompleteResultsError(err); ok {
		if agg.Cause != nil {
			fmt.Fprintf(p.w, "%s %v\n", p.bad("error:"), agg.Cause)
		}
		if len(agg.Failures) > 0 {
			fmt.Fprintf(p.w, "%s %d path(s) failed\n", p.bad("error:"), len(agg.Failures))
		}
		return
	}
	fmt.Fprintf(p.w, "%s %v\n", p.bad("error:"), err)
}

// Runs prints runs as a table.
func Runs(w io.Writer, runs []models.Run) error {
	data := pterm.TableData{{"ID", "STARTED", "FINISHED", "STATE", "JOBS", "ORDERED", "TOTAL", "FAILED"}}
	for _, r := range runs {
		data = append(data, []string{
			r.ID.String(),
			r.StartedAt.Local().Format(time.DateTime),
			finished(r),
			string(r.State),
			strconv.Itoa(r.Jobs),
			strconv.FormatBool(r.Ordered),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Failed),
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Run prints the details of a single run.
func Run(w io.Writer, r models.Run) {
	fmt.Fprintf(w, "run:      %s\n", r.ID)
	fmt.Fprintf(w, "state:    %s\n", r.State)
	fmt.Fprintf(w, "started:  %s\n", r.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "finished: %s\n", finished(r))
	fmt.Fprintf(w, "jobs:     %d (ordered: %t)\n", r.Jobs, r.Ordered)
	fmt.Fprintf(w, "results:  %d (failed: %d)\n", r.Total, r.Failed)
}

func finished(r models.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.FinishedAt.Local().Format(time.DateTime)
}
