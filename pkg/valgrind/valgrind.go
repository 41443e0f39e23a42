// Package valgrind runs executables under valgrind's memcheck tool and
// turns its XML report into a typed list of memory leaks.
package valgrind

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
)

// Runner invokes the valgrind binary against already-built executables.
type Runner struct {
	ValgrindBin string
}

// NewRunner creates a runner for the given valgrind binary. An empty
// path resolves "valgrind" from PATH.
func NewRunner(valgrindBin string) (*Runner, error) {
	if valgrindBin == "" {
		var err error
		valgrindBin, err = exec.LookPath("valgrind")
		if err != nil {
			return nil, fmt.Errorf("%w: valgrind binary not found in PATH: %w", ErrLaunch, err)
		}
	}

	if _, err := os.Stat(valgrindBin); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: valgrind binary not found at path: %s", ErrLaunch, valgrindBin)
	}

	return &Runner{
		ValgrindBin: valgrindBin,
	}, nil
}

// Analyze runs the binary at the given path under memcheck and returns
// every leak found, in report order, each with its call trace in most
// recent call first order. An empty result means the run was clean; it
// never signals a failure. Any extra args are passed to the binary.
//
// The call is fully synchronous and imposes no timeout of its own; a
// hung child blocks until it exits.
func (r *Runner) Analyze(binary string, args ...string) ([]Leak, error) {
	conn, err := captureReport(func(addr *net.TCPAddr) *exec.Cmd {
		cmdArgs := []string{
			"--leak-check=full",
			"--show-leak-kinds=all",
			"--xml=yes",
			"--xml-socket=" + net.JoinHostPort(addr.IP.String(), strconv.Itoa(addr.Port)),
			binary,
		}
		cmdArgs = append(cmdArgs, args...)
		return exec.Command(r.ValgrindBin, cmdArgs...)
	})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	report, err := parseReport(conn)
	if err != nil {
		return nil, err
	}

	return extractLeaks(report), nil
}

// CheckAvailable verifies that the configured valgrind binary runs.
func (r *Runner) CheckAvailable() error {
	cmd := exec.Command(r.ValgrindBin, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("valgrind command failed: %w", err)
	}
	return nil
}
