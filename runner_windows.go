//go:build windows

package md2tex

import "os/exec"

// setProcessGroup is a no-op on Windows; exec.CommandContext kills the
// direct child and console tools rarely detach grandchildren here.
func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup kills the direct child process.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
