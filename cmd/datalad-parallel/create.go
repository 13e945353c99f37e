package main

import (
	"errors"
	"iter"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ypid/datalad/internal/dataset"
	"github.com/ypid/datalad/internal/render"
	"github.com/ypid/datalad/internal/services"
)

var errNoPaths = errors.New("no paths given: pass them as arguments or with --from")

func newCreateCommand(a *app) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "create [PATH...]",
		Short: "Create a dataset at every given path",
		Long: `Create a dataset at every given path, running several creations at once.

Paths come from the arguments, followed by the lines of --from ("-" reads
standard input). With --ordered (the default) a dataset is never created
while one of its parent paths is still being created, so list parents
before their children.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := pathSource(args, from)
			if err != nil {
				return err
			}

			printer := render.NewPrinter(cmd.OutOrStdout(), colored(cmd))
			svc := services.NewCreateService(a.cfg.Engine, a.store)

			_, runErr := svc.Create(cmd.Context(), paths, printer.Result)
			printer.Summary(runErr)
			if runErr != nil {
				return errReported
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&from, "from", "", `Read paths from this file, one per line ("-" for standard input)`)
	flags.IntP("jobs", "J", a.cfg.Engine.Jobs, "Number of datasets created at the same time")
	flags.Int("lookahead", a.cfg.Engine.Lookahead, "Paths read ahead of the workers; 0 means twice the jobs")
	flags.Bool("ordered", a.cfg.Engine.Ordered, "Wait for parent paths before creating a dataset")
	flags.Bool("skip-dependents", a.cfg.Engine.SkipDependents, "Skip paths below a path that failed")
	flags.Bool("fail-fast", a.cfg.Engine.FailFast, "Stop taking new paths after the first failure")
	flags.BoolP("force", "f", a.cfg.Engine.Force, "Create datasets in non-empty directories")

	a.bind("engine.jobs", flags.Lookup("jobs"))
	a.bind("engine.lookahead", flags.Lookup("lookahead"))
	a.bind("engine.ordered", flags.Lookup("ordered"))
	a.bind("engine.skip_dependents", flags.Lookup("skip-dependents"))
	a.bind("engine.fail_fast", flags.Lookup("fail-fast"))
	a.bind("engine.force", flags.Lookup("force"))

	return cmd
}

// pathSource chains the argument paths and the --from list.
func pathSource(args []string, from string) (iter.Seq2[string, error], error) {
	if len(args) == 0 && from == "" {
		return nil, errNoPaths
	}

	var list iter.Seq2[string, error]
	switch from {
	case "":
	case "-":
		list = dataset.Lines(os.Stdin)
	default:
		list = dataset.File(from)
	}

	return func(yield func(string, error) bool) {
		for p, err := range dataset.Paths(args...) {
			if !yield(p, err) {
				return
			}
		}
		if list == nil {
			return
		}
		for p, err := range list {
			if !yield(p, err) {
				return
			}
		}
	}, nil
}

// colored reports whether output goes to a terminal that accepts colors.
func colored(cmd *cobra.Command) bool {
	return cmd.OutOrStdout() == os.Stdout && !color.NoColor
}
