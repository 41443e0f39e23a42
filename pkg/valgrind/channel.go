package valgrind

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os/exec"
)

// captureReport runs one child process and collects its report over a
// loopback TCP connection instead of a pipe. Pipes have a small kernel
// buffer, so a child emitting a large report before the parent reads
// would deadlock; a socket keeps back-pressure on the transport layer.
//
// The listener is bound to an OS-chosen ephemeral port before the child
// is spawned, and the blocking accept is the rendezvous that guarantees
// the listener is ready before any data is sent. Concurrent runs are
// safe against each other because every run binds its own port.
//
// launch builds the child command for the resolved listener address.
// The child is always waited on, even when the run fails early. On a
// zero exit status the accepted connection is returned for the caller
// to consume and close; on a non-zero exit nothing is read and the
// child's stderr becomes the error.
func captureReport(launch func(addr *net.TCPAddr) *exec.Cmd) (io.ReadCloser, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: bind report listener: %w", ErrLaunch, err)
	}
	defer ln.Close()

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("%w: resolve listener address %q", ErrLaunch, ln.Addr())
	}

	cmd := launch(addr)
	var stderr bytes.Buffer
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	conn, err := ln.Accept()
	if err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("%w: accept report connection: %w", ErrTransport, err)
	}

	if err := cmd.Wait(); err != nil {
		conn.Close()
		return nil, toolError(stderr.String(), err)
	}

	return conn, nil
}
