//go:build windows

package main

import "os"

// shutdownSignals stop `serve` and `mcp-server`. SIGTERM does not exist on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
