// Package gpufreq discovers where the kernel exposes the GPU clock and
// reads it, falling back to unprivileged reads when root is unavailable.
package gpufreq

import "fmt"

// State is the outcome of one read. It is one of Available,
// RequiresPrivilege, NotSupported or Error.
type State interface {
	Kind() string
	String() string
	isState()
}

const (
	KindAvailable         = "available"
	KindRequiresPrivilege = "requires_privilege"
	KindNotSupported      = "not_supported"
	KindError             = "error"
)

type Available struct {
	Sample Sample
}

// RequiresPrivilege means root is unavailable and no world-readable
// location produced a frequency.
type RequiresPrivilege struct{}

// NotSupported means the catalog has nothing to try for this device.
type NotSupported struct{}

type Error struct {
	Message string
}

// CanceledMessage is the Error message of a read whose context ended
// before it finished.
const CanceledMessage = "read canceled"

// IsCanceled reports whether state is a read cut short by its context.
func IsCanceled(state State) bool {
	e, ok := state.(Error)
	return ok && e.Message == CanceledMessage
}

func (Available) Kind() string         { return KindAvailable }
func (RequiresPrivilege) Kind() string { return KindRequiresPrivilege }
func (NotSupported) Kind() string      { return KindNotSupported }
func (Error) Kind() string             { return KindError }

func (a Available) String() string {
	return fmt.Sprintf("%d MHz (%s, %s)", a.Sample.CurrentMHz, a.Sample.Vendor, a.Sample.SourcePath)
}

func (RequiresPrivilege) String() string { return "root access required" }
func (NotSupported) String() string      { return "not supported on this device" }
func (e Error) String() string           { return "error: " + e.Message }

func (Available) isState()         {}
func (RequiresPrivilege) isState() {}
func (NotSupported) isState()      {}
func (Error) isState()             {}
