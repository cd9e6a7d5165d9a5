//go:build !windows

package md2tex

import (
	"os/exec"
	"syscall"
)

// setProcessGroup places the child in its own process group so a timeout can
// kill the tool together with any children it spawned (node, browsers).
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the child's process group (negative PID).
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// Best-effort cleanup; the exec package kills the direct child as fallback
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
