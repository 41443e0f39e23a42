package valgrind

import (
	"fmt"
	"strings"
)

// Kind classifies a memcheck error record. The value is the tag copied
// verbatim from the XML report; the set of tags is closed and a report
// carrying an unknown tag fails to parse.
type Kind string

const (
	KindDefinitelyLost  Kind = "Leak_DefinitelyLost"
	KindIndirectlyLost  Kind = "Leak_IndirectlyLost"
	KindPossiblyLost    Kind = "Leak_PossiblyLost"
	KindStillReachable  Kind = "Leak_StillReachable"
	KindInvalidFree     Kind = "InvalidFree"
	KindMismatchedFree  Kind = "MismatchedFree"
	KindInvalidRead     Kind = "InvalidRead"
	KindInvalidWrite    Kind = "InvalidWrite"
	KindInvalidJump     Kind = "InvalidJump"
	KindOverlap         Kind = "Overlap"
	KindInvalidMemPool  Kind = "InvalidMemPool"
	KindUninitCondition Kind = "UninitCondition"
	KindUninitValue     Kind = "UninitValue"
	KindSyscallParam    Kind = "SyscallParam"
	KindClientCheck     Kind = "ClientCheck"
)

var knownKinds = map[Kind]bool{
	KindDefinitelyLost:  true,
	KindIndirectlyLost:  true,
	KindPossiblyLost:    true,
	KindStillReachable:  true,
	KindInvalidFree:     true,
	KindMismatchedFree:  true,
	KindInvalidRead:     true,
	KindInvalidWrite:    true,
	KindInvalidJump:     true,
	KindOverlap:         true,
	KindInvalidMemPool:  true,
	KindUninitCondition: true,
	KindUninitValue:     true,
	KindSyscallParam:    true,
	KindClientCheck:     true,
}

// String returns a human-readable description of the kind.
func (k Kind) String() string {
	switch k {
	case KindDefinitelyLost:
		return "Leak (definitely lost)"
	case KindIndirectlyLost:
		return "Leak (indirectly lost)"
	case KindPossiblyLost:
		return "Leak (possibly lost)"
	case KindStillReachable:
		return "Leak (still reachable)"
	case KindInvalidFree:
		return "invalid free"
	case KindMismatchedFree:
		return "mismatched free"
	case KindInvalidRead:
		return "invalid read"
	case KindInvalidWrite:
		return "invalid write"
	case KindInvalidJump:
		return "invalid jump"
	case KindOverlap:
		return "overlapping source and destination"
	case KindInvalidMemPool:
		return "invalid memory pool"
	case KindUninitCondition:
		return "uninitialized condition"
	case KindUninitValue:
		return "uninitialized value"
	case KindSyscallParam:
		return "invalid syscall parameter"
	case KindClientCheck:
		return "client check failed"
	default:
		return string(k)
	}
}

// Leak is a single error record reported by memcheck: the number of
// leaked bytes, the classification and the call trace that led to the
// allocation. Leaks are plain values and are never mutated after
// extraction.
type Leak struct {
	Bytes      uint64     `json:"bytes"`
	Kind       Kind       `json:"kind"`
	StackTrace []Function `json:"stack,omitempty"`
}

// Equal reports whether two leaks match structurally, including the
// full stack trace.
func (l Leak) Equal(other Leak) bool {
	if l.Bytes != other.Bytes || l.Kind != other.Kind {
		return false
	}
	if len(l.StackTrace) != len(other.StackTrace) {
		return false
	}
	for i := range l.StackTrace {
		if !l.StackTrace[i].Equal(other.StackTrace[i]) {
			return false
		}
	}
	return true
}

// Function is one frame of a leak's call trace, most recent call first.
// Valgrind can only report name, file and line when the corresponding
// object carries debug information, so each field is independently
// optional. A nil field means the report did not carry it; no sentinel
// values are substituted.
type Function struct {
	Name *string `json:"name,omitempty"`
	File *string `json:"file,omitempty"`
	Line *uint64 `json:"line,omitempty"`
}

// Equal reports whether two frames carry the same fields.
func (f Function) Equal(other Function) bool {
	return eqPtr(f.Name, other.Name) && eqPtr(f.File, other.File) && eqPtr(f.Line, other.Line)
}

// String renders the frame as "name (file:line)". The parenthetical is
// omitted without a file, the ":line" part is omitted without a line,
// and a missing name is replaced with "unknown".
func (f Function) String() string {
	var b strings.Builder
	if f.Name != nil {
		b.WriteString(*f.Name)
	} else {
		b.WriteString("unknown")
	}
	if f.File != nil {
		b.WriteString(" (")
		b.WriteString(*f.File)
		if f.Line != nil {
			fmt.Fprintf(&b, ":%d", *f.Line)
		}
		b.WriteString(")")
	}
	return b.String()
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
