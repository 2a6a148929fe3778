package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"campipe/internal/db"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Inspect journaled runs",
	Long: `Lists recent runs from the run journal. With no argument an interactive
picker opens; pass a run ID to print its detail directly.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.NewStore(db.StoreConfig{
			Type: viper.GetString("journal.type"),
			DSN:  viper.GetString("journal.dsn"),
		})
		if err != nil {
			return fmt.Errorf("failed to open run journal: %w", err)
		}
		defer store.Close()

		if len(args) == 1 {
			return showRun(cmd, store, args[0])
		}
		return pickRun(cmd, store)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "How many runs to list")
	rootCmd.AddCommand(historyCmd)
}

func pickRun(cmd *cobra.Command, store db.Store) error {
	runs, err := store.RecentRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	options := make([]string, 0, len(runs))
	byLabel := make(map[string]string, len(runs))
	for _, r := range runs {
		label := fmt.Sprintf("%s  %-9s  %d/%d  %s",
			r.StartedAt.Format("2006-01-02 15:04"), r.Status, r.Succeeded, r.Components, r.OrderID)
		options = append(options, label)
		byLabel[label] = r.ID
	}

	var selected string
	prompt := &survey.Select{
		Message:  "Select a run:",
		Options:  options,
		PageSize: 15,
	}
	if err := askOne(prompt, &selected); err != nil {
		cmd.Println("Cancelled.")
		return nil
	}
	return showRun(cmd, store, byLabel[selected])
}

func showRun(cmd *cobra.Command, store db.Store, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Run:\t%s\n", run.ID)
	fmt.Fprintf(w, "Order:\t%s\n", run.OrderID)
	fmt.Fprintf(w, "File:\t%s\n", run.OrderFile)
	fmt.Fprintf(w, "Status:\t%s\n", run.Status)
	fmt.Fprintf(w, "Components:\t%d/%d successful\n", run.Succeeded, run.Components)
	fmt.Fprintf(w, "Started:\t%s\n", run.StartedAt.Format(time.RFC1123))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Finished:\t%s\n", run.FinishedAt.Format(time.RFC1123))
		fmt.Fprintf(w, "Duration:\t%s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	w.Flush()

	comps, err := store.RunComponents(runID)
	if err != nil {
		return fmt.Errorf("failed to load components: %w", err)
	}
	if len(comps) > 0 {
		fmt.Fprintln(out)
		cw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(cw, "COMPONENT\tSTATUS\tPROGRAMS\tDURATION\tMESSAGE")
		for _, c := range comps {
			// first line only, component messages can be multi-line
			msg := strings.SplitN(c.Message, "\n", 2)[0]
			fmt.Fprintf(cw, "%s\t%s\t%d\t%dms\t%s\n", c.ComponentID, c.Status, c.Programs, c.DurationMS, msg)
		}
		cw.Flush()
	}

	progs, err := store.RunPrograms(runID)
	if err != nil {
		return fmt.Errorf("failed to load programs: %w", err)
	}
	if len(progs) > 0 {
		fmt.Fprintln(out)
		pw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(pw, "PROGRAM\tSETUP\tFILE\tSIZE")
		for _, p := range progs {
			fmt.Fprintf(pw, "%d\t%s\t%s\t%d B\n", p.ProgramNumber, p.SetupName, p.OutputFile, p.SizeBytes)
		}
		pw.Flush()
	}
	return nil
}
