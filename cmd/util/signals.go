package util

import (
	"os"
	"syscall"
)

var ShutdownSignals = []os.Signal{
	syscall.SIGTERM,
	syscall.SIGINT,
}
