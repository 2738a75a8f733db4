//go:build linux

// Package proctitle names the server process so it is easy to spot in ps and top.
package proctitle

import (
	"errors"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// the kernel keeps 15 bytes of comm plus the terminating NUL
const commLen = 16

// Set renames the process. Only the first 15 bytes reach the kernel.
func Set(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("proctitle: empty title")
	}
	if len(os.Args) > 0 {
		os.Args[0] = title
	}
	comm := make([]byte, commLen)
	copy(comm[:commLen-1], title)
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&comm[0])), 0, 0, 0)
}
