// Package port is the host embedding surface's abstraction boundary
// (spec §6 "Host port"): the four callbacks the engine cannot supply
// itself without picking a platform — process-fatal behavior, wall
// clock, timezone, and diagnostic logging. Grounded on the teacher's
// stderr-and-exit-code error reporting; pkg/api's default Context wires
// a Default port that keeps that behavior, with fatih/color used only
// at this edge (never inside pkg/vm/pkg/object), per SPEC_FULL.md §10.
package port

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

// LogLevel mirrors spec §6's port_log(level, fmt, ...) parameter.
type LogLevel int

const (
	LogTrace LogLevel = iota
	LogDebug
	LogInfo
	LogWarn
	LogError
)

// Port is the interface an embedder supplies to pkg/api's Context.
// Fatal must not return; the engine calls it exactly once per fatal and
// guarantees no further script code runs afterward (spec §5's
// cancellation contract).
type Port interface {
	Fatal(code string, message string)
	Now() time.Time
	TimeZone() *time.Location
	Log(level LogLevel, message string)
}

// Default is the port used when an embedder does not supply one: fatals
// exit the process with a distinguishing status, time/timezone come
// from the Go runtime, and Log writes warn/error lines color-coded to
// stderr and other levels plain to stdout, matching the CLI's own diagnostic convention (SPEC_FULL.md §6).
type Default struct{}

func (Default) Fatal(code string, message string) {
	fmt.Fprintf(os.Stderr, "%s %s: %s\n", color.RedString("fatal"), code, message)
	os.Exit(1)
}

func (Default) Now() time.Time { return time.Now() }

func (Default) TimeZone() *time.Location { return time.Local }

func (Default) Log(level LogLevel, message string) {
	switch level {
	case LogWarn:
		fmt.Fprintln(os.Stderr, color.YellowString(message))
	case LogError:
		fmt.Fprintln(os.Stderr, color.RedString(message))
	default:
		fmt.Fprintln(os.Stdout, message)
	}
}
