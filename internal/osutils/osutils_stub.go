//go:build !linux

// Package osutils provides process privilege and device access checks.
package osutils

import "os"

// IsAdmin is a stub for non-Linux platforms
func IsAdmin() bool {
	return false
}

// CanAccess reports whether path can be opened for reading and writing
func CanAccess(path string) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
