package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// executeCommand executes a cobra command and returns its output. An exit
// call inside the command surfaces as an "exit-N" error, with the output
// produced up to that point preserved.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	resetFlags(root)
	b := new(bytes.Buffer)

	// Mock exit
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				// This is an expected exit, don't re-panic
				output = b.String()
				err = errors.New(s)
				return
			}
			panic(r) // Re-panic actual panics
		}
	}()

	root.SetArgs(args)
	root.SetOut(b)
	root.SetErr(b)
	// Mock Stdin to avoid hanging on interactive prompts
	root.SetIn(bytes.NewBufferString(""))
	err = root.Execute()
	return b.String(), err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// resetViper clears configuration state so each test starts from the
// defaults initConfig installs.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func writeOrderFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "order.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing order file: %v", err)
	}
	return path
}

// writeModel drops a two-setup model manifest named <name>.json into dir.
func writeModel(t *testing.T, dir, name string) {
	t.Helper()
	manifest := `{
  "name": "` + name + `",
  "parameters": [
    {"name": "Width", "expression": "600 mm", "value": 600, "unit": "mm", "comment": "stock width"},
    {"name": "Height", "expression": "900 mm", "value": 900, "unit": "mm"}
  ],
  "setups": [
    {"name": "Face Milling", "operations": [{"name": "Face1"}]},
    {"name": "Drilling", "operations": [{"name": "Drill1"}]}
  ]
}`
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating models dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("writing model manifest: %v", err)
	}
}
