package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another server process is found.
var ErrAlreadyRunning = errors.New("another wherering server is already running")

// processLister returns the running processes. It is replaced in tests.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when another process runs the same executable.
// Two engines driving one ringer would fight over the restore history.
func ensureSingleInstance(list processLister) error {
	self := os.Getpid()

	processes, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	var executable string

	for _, process := range processes {
		if process.Pid() == self {
			executable = process.Executable()
			break
		}
	}

	if executable == "" {
		return nil
	}

	for _, process := range processes {
		if process.Pid() == self || process.Executable() != executable {
			continue
		}

		return fmt.Errorf("%w: pid %d (%s)", ErrAlreadyRunning, process.Pid(), executable)
	}

	return nil
}
