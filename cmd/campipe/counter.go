package main

import (
	"fmt"

	"campipe/internal/postproc"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var counterAdvance bool

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Show the NC program number counter",
	Long: `Reads the persistent program number counter. With --advance the next
number is allocated and written back, exactly as post processing a setup
would consume it.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		counter := postproc.NewFileCounter(viper.GetString("counter.path"))

		if counterAdvance {
			n, err := counter.Next()
			if err != nil {
				return fmt.Errorf("failed to allocate program number: %w", err)
			}
			fmt.Fprintf(out, "Allocated program number: %d\n", n)
			return nil
		}

		last := counter.Peek()
		fmt.Fprintf(out, "Last used program number: %d\n", last)
		fmt.Fprintf(out, "Next program number: %d\n", last+1)
		return nil
	},
}

func init() {
	counterCmd.Flags().BoolVar(&counterAdvance, "advance", false, "Allocate and persist the next program number")
	rootCmd.AddCommand(counterCmd)
}
