//go:build linux

// Package osutils provides process privilege and device access checks.
package osutils

import "golang.org/x/sys/unix"

// IsAdmin reports whether the process runs with root privileges
func IsAdmin() bool {
	return unix.Geteuid() == 0
}

// CanAccess reports whether path can be opened for reading and writing by
// the real user of the process
func CanAccess(path string) bool {
	return unix.Access(path, unix.R_OK|unix.W_OK) == nil
}
