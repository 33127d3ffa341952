package app

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is how the process runs, fixed at startup.
type Mode int

const (
	// ModeInteractive answers inbound messages and, when configured, posts
	// recurring reminders.
	ModeInteractive Mode = iota
	// ModeReminder sends one message and exits.
	ModeReminder
)

func (m Mode) String() string {
	if m == ModeReminder {
		return "reminder"
	}
	return "interactive"
}

// ErrUsage reports invalid launch arguments.
var ErrUsage = errors.New("usage")

// RunMode is the parsed launch configuration.
type RunMode struct {
	Mode     Mode
	TargetID string
	Message  string
}

// ParseRunMode interprets positional launch arguments
// "[mode] [targetId] [reminderMessage]". Only "reminder" selects reminder
// mode; any other value, or none, is interactive.
func ParseRunMode(args []string) (RunMode, error) {
	if len(args) == 0 || args[0] != ModeReminder.String() {
		return RunMode{Mode: ModeInteractive}, nil
	}

	rm := RunMode{Mode: ModeReminder}
	if len(args) > 1 {
		rm.TargetID = strings.TrimSpace(args[1])
	}
	if len(args) > 2 {
		rm.Message = args[2]
	}
	if rm.TargetID == "" || strings.TrimSpace(rm.Message) == "" {
		return RunMode{}, fmt.Errorf("%w: reminder <targetId> <message>", ErrUsage)
	}
	return rm, nil
}

// ExitCode maps the result of a run to the process exit status.
func ExitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
