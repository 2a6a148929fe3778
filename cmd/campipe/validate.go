package main

import (
	"fmt"

	"campipe/internal/order"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateCmd = &cobra.Command{
	Use:   "validate <order.json>",
	Short: "Validate an order file without processing it",
	Long: `Checks an order file against the order schema: required fields, version
format, component entries and parameter value types. Nothing is opened
or generated.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if v, err := order.SchemaVersion(viper.GetString("schema.path")); err == nil {
			fmt.Fprintf(out, "Schema version: %s\n", v)
		}
		res := order.ValidateFile(args[0])
		if res.Valid {
			fmt.Fprintf(out, "✓ Valid: %s\n", args[0])
			return
		}
		fmt.Fprintf(out, "✗ Invalid: %s\n", args[0])
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		exit(1)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
