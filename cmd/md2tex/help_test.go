package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunHelpCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"no topic", nil, ExitSuccess, "Usage: md2tex <command>"},
		{"convert", []string{"convert"}, ExitSuccess, "Usage: md2tex convert"},
		{"doctor", []string{"doctor"}, ExitSuccess, "Usage: md2tex doctor"},
		{"version", []string{"version"}, ExitSuccess, "Usage: md2tex version"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			env := &Environment{Stdout: &stdout, Stderr: &stderr}

			code := runHelpCmd(tt.args, env)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, stdout.String())
			}
		})
	}
}

func TestRunHelpCmdUnknownTopic(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}

	code := runHelpCmd([]string{"frobnicate"}, env)
	if code != ExitUsage {
		t.Errorf("exit = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(stderr.String(), `unknown command "frobnicate"`) {
		t.Errorf("stderr missing unknown command message:\n%s", stderr.String())
	}
}
