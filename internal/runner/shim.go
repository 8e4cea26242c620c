package runner

import (
	"encoding/binary"
	"errors"
	"io"
)

// ShimName is the argv[0] under which the current binary re-executes
// itself to play the child side of a run.
const ShimName = "runcmd-exec-shim"

// Descriptors inherited by the shim.
const (
	notifyFD = 3 // errno of a failed exec, written by the shim
	argvFD   = 4 // command argv, written by the parent
)

// errArgvFrame is returned for an argv stream that ends mid-token.
var errArgvFrame = errors.New("runner: truncated argv frame")

// writeArgv sends argv to the shim as a token count followed by
// length-prefixed tokens. Tokens are passed through unmodified, so the
// shim's own exec reports arguments the kernel refuses.
func writeArgv(w io.Writer, argv []string) error {
	size := 4
	for _, arg := range argv {
		size += 4 + len(arg)
	}
	buf := make([]byte, 0, size)
	buf = binary.NativeEndian.AppendUint32(buf, uint32(len(argv)))
	for _, arg := range argv {
		buf = binary.NativeEndian.AppendUint32(buf, uint32(len(arg)))
		buf = append(buf, arg...)
	}
	_, err := w.Write(buf)
	return err
}

func readArgv(r io.Reader) ([]string, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, errArgvFrame
	}
	n := binary.NativeEndian.Uint32(hdr[:])
	argv := make([]string, 0, min(n, DefaultMaxArgs))
	for range n {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, errArgvFrame
		}
		tok := make([]byte, binary.NativeEndian.Uint32(hdr[:]))
		if _, err := io.ReadFull(r, tok); err != nil {
			return nil, errArgvFrame
		}
		argv = append(argv, string(tok))
	}
	return argv, nil
}
