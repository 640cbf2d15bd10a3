// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package discovery

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr places the discovery process in its own process group so that
// it can be terminated together with any children it spawns.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup terminates the whole process group of the given pid.
func killProcessGroup(pid int) {
	_ = unix.Kill(-pid, unix.SIGKILL)
}
