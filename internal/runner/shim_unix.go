//go:build unix

package runner

import (
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

const shimSupported = true

// Init turns the process into an exec shim when it was started as one,
// in which case it never returns. Otherwise it reports false.
//
//	func main() {
//		if runner.Init() {
//			return
//		}
//		...
//	}
func Init() bool {
	if filepath.Base(os.Args[0]) != ShimName {
		return false
	}
	os.Exit(execShim(notifyFD, argvFD))
	return true
}

// execShim reads the command from argvFD and replaces the process with
// it. It only returns when exec failed, after writing the errno to
// notifyFD.
func execShim(notifyFD, argvFD int) int {
	// A successful exec closes the pipe, which the parent reads as success.
	unix.CloseOnExec(notifyFD)
	notify := os.NewFile(uintptr(notifyFD), "runcmd-notify")

	in := os.NewFile(uintptr(argvFD), "runcmd-argv")
	argv, err := readArgv(in)
	_ = in.Close()

	var errno syscall.Errno
	if err != nil {
		errno = unix.EIO
	} else {
		errno = toErrno(execvp(argv))
	}

	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], uint32(errno))
	_, _ = notify.Write(buf[:])
	_ = notify.Close()
	return ExecFailStatus
}

// execvp resolves argv[0] through PATH and execs it. A file without a
// recognised header is handed to /bin/sh.
func execvp(argv []string) error {
	if len(argv) == 0 {
		return unix.EFAULT
	}
	path, err := exec.LookPath(argv[0])
	if errors.Is(err, exec.ErrDot) {
		err = nil
	}
	if err != nil {
		return err
	}
	err = unix.Exec(path, argv, os.Environ())
	if errors.Is(err, unix.ENOEXEC) {
		sh := append([]string{"/bin/sh", path}, argv[1:]...)
		return unix.Exec("/bin/sh", sh, os.Environ())
	}
	return err
}

func toErrno(err error) syscall.Errno {
	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		return errno
	case errors.Is(err, fs.ErrPermission):
		return unix.EACCES
	default:
		return unix.ENOENT
	}
}

func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return sig.String()
}
