package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"campipe/internal/host/sim"
	"campipe/internal/params"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var paramsCheck string

var paramsCmd = &cobra.Command{
	Use:   "params <model>",
	Short: "List a model's user parameters",
	Long: `Opens a model document and lists its user parameters with their
expressions and evaluated values. With --check, verifies that the named
parameters exist instead of listing.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		doc, err := sim.NewHost(viper.GetString("models.dir")).Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open document: %w", err)
		}
		store, err := doc.Design()
		if err != nil {
			return err
		}

		if paramsCheck != "" {
			names := strings.Split(paramsCheck, ",")
			for i := range names {
				names[i] = strings.TrimSpace(names[i])
			}
			missing := params.MissingNames(store, names)
			if len(missing) == 0 {
				fmt.Fprintf(out, "All %d parameter(s) present in %s\n", len(names), doc.Name())
				return nil
			}
			fmt.Fprintf(out, "Missing parameter(s) in %s:\n", doc.Name())
			for _, name := range missing {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			exit(1)
			return nil
		}

		infos := params.List(store)
		if len(infos) == 0 {
			fmt.Fprintf(out, "No user parameters in %s\n", doc.Name())
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tEXPRESSION\tVALUE\tUNIT\tCOMMENT")
		for _, p := range infos {
			fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%s\n", p.Name, p.Expression, p.Value, p.Unit, p.Comment)
		}
		return w.Flush()
	},
}

func init() {
	paramsCmd.Flags().StringVar(&paramsCheck, "check", "", "Comma-separated parameter names to verify")
	rootCmd.AddCommand(paramsCmd)
}
