package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunDispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "no arguments",
			args:       []string{"md2tex"},
			wantCode:   ExitUsage,
			wantStderr: "Usage: md2tex <command>",
		},
		{
			name:       "unknown command",
			args:       []string{"md2tex", "transmogrify"},
			wantCode:   ExitUsage,
			wantStderr: `unknown command "transmogrify"`,
		},
		{
			name:       "version",
			args:       []string{"md2tex", "version"},
			wantCode:   ExitSuccess,
			wantStdout: "md2tex dev",
		},
		{
			name:       "version long flag",
			args:       []string{"md2tex", "--version"},
			wantCode:   ExitSuccess,
			wantStdout: "md2tex dev",
		},
		{
			name:       "help",
			args:       []string{"md2tex", "help"},
			wantCode:   ExitSuccess,
			wantStdout: "Usage: md2tex <command>",
		},
		{
			name:       "help convert",
			args:       []string{"md2tex", "help", "convert"},
			wantCode:   ExitSuccess,
			wantStdout: "Usage: md2tex convert",
		},
		{
			name:       "convert without input",
			args:       []string{"md2tex", "convert"},
			wantCode:   ExitIO,
			wantStderr: "no input",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			env := &Environment{
				Stdout:   &stdout,
				Stderr:   &stderr,
				LookPath: lookPathFrom(nil),
			}

			code := run(tt.args, env)
			if code != tt.wantCode {
				t.Errorf("exit = %d, want %d", code, tt.wantCode)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q:\n%s", tt.wantStdout, stdout.String())
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr.String())
			}
		})
	}
}

func TestDefaultEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()
	if env.Now == nil || env.Stdout == nil || env.Stderr == nil || env.LookPath == nil || env.Engine == nil {
		t.Error("DefaultEnv left a dependency nil")
	}
}
