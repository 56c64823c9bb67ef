//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals lists the signals that trigger a graceful shutdown.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
