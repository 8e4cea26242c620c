package mcp

import (
	"io"
	"os"

	"github.com/deixis/runcmd/internal/runner"
)

// capture gives a child /dev/null as stdin and temp files as stdout and
// stderr, and reads back up to limit bytes of each.
type capture struct {
	stdin  *os.File
	stdout *os.File
	stderr *os.File
	limit  int
}

func newCapture(limit int) (*capture, error) {
	c := &capture{limit: limit}
	var err error
	if c.stdin, err = os.Open(os.DevNull); err != nil {
		return nil, err
	}
	if c.stdout, err = os.CreateTemp("", "runcmd-stdout-*"); err != nil {
		c.close()
		return nil, err
	}
	if c.stderr, err = os.CreateTemp("", "runcmd-stderr-*"); err != nil {
		c.close()
		return nil, err
	}
	return c, nil
}

func (c *capture) redirect() *runner.Redirect {
	return &runner.Redirect{Stdin: c.stdin, Stdout: c.stdout, Stderr: c.stderr}
}

// read returns the captured streams and whether either exceeded limit.
func (c *capture) read() (stdout, stderr string, truncated bool) {
	stdout, t1 := readCapped(c.stdout, c.limit)
	stderr, t2 := readCapped(c.stderr, c.limit)
	return stdout, stderr, t1 || t2
}

func (c *capture) close() {
	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	for _, f := range []*os.File{c.stdout, c.stderr} {
		if f != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}
}

func readCapped(f *os.File, limit int) (string, bool) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", false
	}
	data, _ := io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if len(data) > limit {
		return string(data[:limit]), true
	}
	return string(data), false
}
