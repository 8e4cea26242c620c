//go:build !unix

package runner

import "syscall"

const shimSupported = false

// Init reports false; the exec shim needs a unix exec.
func Init() bool { return false }

func signalName(sig syscall.Signal) string { return sig.String() }
