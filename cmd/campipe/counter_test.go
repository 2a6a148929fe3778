package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestCounterCommand(t *testing.T) {
	resetViper(t)
	viper.Set("counter.path", filepath.Join(t.TempDir(), "counter.txt"))

	output, err := executeCommand(rootCmd, "counter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "Last used program number: 1000") {
		t.Errorf("unexpected initial state: %s", output)
	}
	if !strings.Contains(output, "Next program number: 1001") {
		t.Errorf("unexpected next number: %s", output)
	}

	output, err = executeCommand(rootCmd, "counter", "--advance")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "Allocated program number: 1001") {
		t.Errorf("unexpected allocation: %s", output)
	}

	output, err = executeCommand(rootCmd, "counter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "Last used program number: 1001") {
		t.Errorf("allocation not persisted: %s", output)
	}
}
