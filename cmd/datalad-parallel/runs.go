package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ypid/datalad/internal/models"
	"github.com/ypid/datalad/internal/render"
	"github.com/ypid/datalad/internal/report"
	"github.com/ypid/datalad/internal/services"
)

func newRunsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs",
	}
	cmd.AddCommand(
		newRunsListCommand(a),
		newRunsShowCommand(a),
		newRunsExportCommand(a),
	)
	return cmd
}

func newRunsListCommand(a *app) *cobra.Command {
	var (
		states []string
		limit  uint64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := services.NewRunService(a.store).List(cmd.Context(), services.RunListParams{
				States: states,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				pterm.Info.Println("No runs recorded")
				return nil
			}
			return render.Runs(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().StringSliceVar(&states, "state", nil, "Only list runs in these states (running, done, failed)")
	cmd.Flags().Uint64Var(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func newRunsShowCommand(a *app) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show a run and its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}

			svc := services.NewRunService(a.store)
			run, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			params := services.ResultListParams{}
			if failedOnly {
				params.Statuses = []string{string(models.StatusImpossible), string(models.StatusError)}
			}
			page, err := svc.Results(cmd.Context(), id, params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			render.Run(out, *run)
			fmt.Fprintln(out)
			printer := render.NewPrinter(out, colored(cmd))
			for _, r := range page.Results {
				printer.Result(r.Result)
			}
			printer.Summary(nil)
			return nil
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed results")
	return cmd
}

func newRunsExportCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export RUN_ID",
		Short: "Export a run as a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}

			svc := services.NewRunService(a.store)
			run, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			page, err := svc.Results(cmd.Context(), id, services.ResultListParams{})
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("run-%s.xlsx", id)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := report.Write(f, *run, page.Results); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			pterm.Success.Printfln("Exported %d result(s) of run %s to %s", len(page.Results), id, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default run-<id>.xlsx)")
	return cmd
}
