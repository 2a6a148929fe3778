package main

import (
	"fmt"
	"log/slog"

	"campipe/internal/config"
	"campipe/internal/db"
	"campipe/internal/host/sim"
	"campipe/internal/notify"
	"campipe/internal/pipeline"
	"campipe/internal/postproc"
	"campipe/internal/telemetry"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// askOne is swapped out in tests to drive prompts programmatically.
var askOne = survey.AskOne

var runYes bool

var runCmd = &cobra.Command{
	Use:   "run <order.json>",
	Short: "Process a manufacturing order end to end",
	Long: `Validates the order file, then processes every component in sequence:
open the model document, apply the ordered parameter values, regenerate
toolpaths and post process each setup into a numbered NC program.

Model documents are resolved as JSON manifests under models.dir, so runs
work against a plain directory of model definitions.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         executeRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Skip the confirmation prompt")
	runCmd.Flags().String("output", "", "Output directory for NC programs (overrides output.base_dir)")
	runCmd.Flags().Bool("timestamp", false, "Write output into a per-run <orderId>_<timestamp> subdirectory")
	rootCmd.AddCommand(runCmd)
}

func executeRun(cmd *cobra.Command, args []string) error {
	orderFile := args[0]
	out := cmd.OutOrStdout()

	if err := config.ValidateConfig(); err != nil {
		return err
	}

	if !runYes {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Process order %s?", orderFile),
			Default: true,
		}
		if err := askOne(prompt, &confirmed); err != nil {
			return fmt.Errorf("confirmation aborted: %w", err)
		}
		if !confirmed {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	settings := config.Current()
	if cmd.Flags().Changed("output") {
		settings.OutputBaseDir, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("timestamp") {
		settings.IncludeTimestamp, _ = cmd.Flags().GetBool("timestamp")
	}

	store, err := db.NewStore(db.StoreConfig{Type: settings.JournalType, DSN: settings.JournalDSN})
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}
	defer store.Close()

	var metrics *telemetry.Metrics
	if viper.GetBool("metrics.enabled") {
		metrics = telemetry.NewMetrics()
		addr := fmt.Sprintf(":%d", viper.GetInt("metrics.port"))
		go func() {
			if err := telemetry.StartMetricsServer(addr); err != nil {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
	}

	counter := postproc.NewFileCounter(settings.CounterPath)
	if metrics != nil {
		counter.OnFallback = metrics.CounterFallbacks.Inc
	}

	proc := pipeline.New(sim.NewHost(settings.ModelsDir), counter, pipeline.Options{
		OutputDir:        settings.OutputBaseDir,
		IncludeTimestamp: settings.IncludeTimestamp,
		PostConfig:       settings.PostConfig,
		GenerateTimeout:  settings.GenerateTimeout,
		PostTimeout:      settings.PostTimeout,
	})
	proc.Journal = store
	proc.Notifier = notify.NewManager()
	proc.Metrics = metrics

	report := proc.ProcessOrder(cmd.Context(), orderFile)

	fmt.Fprintln(out, report.Message)
	if len(report.ProgramFiles()) > 0 {
		fmt.Fprintf(out, "\nOutput directory: %s\n", report.OutputDir)
	}
	if !report.Completed() {
		exit(1)
	}
	return nil
}
