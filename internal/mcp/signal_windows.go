//go:build windows

package mcp

import "os"

// stopSignals end Run. Windows has no SIGTERM.
var stopSignals = []os.Signal{os.Interrupt}
