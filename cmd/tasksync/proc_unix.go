//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// configureDetachedProc starts cmd in its own session so it survives the
// parent's terminal.
func configureDetachedProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
