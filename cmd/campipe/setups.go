package main

import (
	"fmt"

	"campipe/internal/host"
	"campipe/internal/host/sim"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var setupsCmd = &cobra.Command{
	Use:   "setups <model>",
	Short: "List a model's CAM setups and operation states",
	Long: `Opens a model document and lists its CAM setups with the state of each
operation: suppressed, errored, or whether a valid toolpath exists.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		doc, err := sim.NewHost(viper.GetString("models.dir")).Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open document: %w", err)
		}
		cam, err := doc.Cam()
		if err != nil {
			return err
		}

		setups := cam.Setups()
		fmt.Fprintf(out, "%d CAM setup(s) in %s\n", len(setups), doc.Name())
		for _, s := range setups {
			ops := s.Operations()
			fmt.Fprintf(out, "\n%s (%d operation(s))\n", s.Name(), len(ops))
			for _, op := range ops {
				fmt.Fprintf(out, "  - %s: %s\n", op.Name(), operationState(op))
			}
		}
		return nil
	},
}

func operationState(op host.Operation) string {
	var state string
	switch {
	case op.IsSuppressed():
		return "suppressed"
	case op.Error() != "":
		state = "error: " + op.Error()
	case op.HasToolpath():
		state = "toolpath ready"
	default:
		state = "no toolpath"
	}
	if w := op.Warning(); w != "" {
		state += fmt.Sprintf(" (warning: %s)", w)
	}
	return state
}

func init() {
	rootCmd.AddCommand(setupsCmd)
}
