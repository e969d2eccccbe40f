//go:build !windows

package mcp

import (
	"os"
	"syscall"
)

// stopSignals end Run.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
