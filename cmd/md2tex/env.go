package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

// engineRunner runs the typesetting engine in a working directory.
// Abstracted so tests can build documents without a TeX installation.
type engineRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (exitCode int, err error)
}

// execEngine runs the engine via os/exec with the build directory as cwd.
type execEngine struct{}

func (execEngine) Run(ctx context.Context, dir, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	// Engine output goes to the log file; stdout noise is dropped here and
	// surfaced through the log path on failure.
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now      func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
	LookPath func(string) (string, error)
	Engine   engineRunner
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:      time.Now,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		LookPath: exec.LookPath,
		Engine:   execEngine{},
	}
}
