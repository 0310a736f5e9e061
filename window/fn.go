package window

import (
	"fmt"
	"time"
)

// Kind names a family of window functions
type Kind string

const (
	// GlobalWindowsKind places every element in the GlobalWindow
	GlobalWindowsKind Kind = "global"
	// FixedWindowsKind places elements in non-overlapping windows of a fixed size
	FixedWindowsKind Kind = "fixed"
)

// A Fn assigns a timestamped element to exactly one Window
type Fn interface {
	Kind() Kind                       // Kind returns the family of this window function
	AssignWindow(ts time.Time) Window // AssignWindow returns the window containing ts
	IsCompatible(o Fn) bool           // IsCompatible returns true iff o assigns windows identically
	String() string
}

// GlobalWindows is the window function that places every element in the GlobalWindow
type GlobalWindows struct{}

// Kind returns GlobalWindowsKind
func (GlobalWindows) Kind() Kind { return GlobalWindowsKind }

// AssignWindow returns the GlobalWindow
func (GlobalWindows) AssignWindow(time.Time) Window { return GlobalWindow{} }

// IsCompatible returns true iff o is also GlobalWindows
func (GlobalWindows) IsCompatible(o Fn) bool { return o.Kind() == GlobalWindowsKind }

func (GlobalWindows) String() string { return "GlobalWindows" }

// FixedWindows places elements in windows of Size, aligned to Offset from the epoch
type FixedWindows struct {
	Size   time.Duration
	Offset time.Duration
}

// NewFixedWindows returns FixedWindows of size aligned to the epoch. Windows
// have millisecond granularity, so size is rounded down to a whole number of
// milliseconds, and is at least one millisecond.
func NewFixedWindows(size time.Duration) *FixedWindows {
	size = size.Truncate(time.Millisecond)
	if size < time.Millisecond {
		size = time.Millisecond
	}
	return &FixedWindows{Size: size}
}

// Kind returns FixedWindowsKind
func (f *FixedWindows) Kind() Kind { return FixedWindowsKind }

// AssignWindow returns the fixed window containing ts
func (f *FixedWindows) AssignWindow(ts time.Time) Window {
	size := f.Size.Milliseconds()
	if size < 1 {
		size = 1
	}
	offset := f.Offset.Milliseconds() % size
	ms := ts.UnixMilli()
	start := ms - (((ms-offset)%size)+size)%size
	return IntervalWindow{
		Start: time.UnixMilli(start).UTC(),
		End:   time.UnixMilli(start + size).UTC(),
	}
}

// IsCompatible returns true iff o is FixedWindows with the same size and offset
func (f *FixedWindows) IsCompatible(o Fn) bool {
	of, ok := o.(*FixedWindows)
	return ok && of.Size == f.Size && of.Offset == f.Offset
}

func (f *FixedWindows) String() string {
	return fmt.Sprintf("FixedWindows(%v, %v)", f.Size, f.Offset)
}

// Strategy describes how a collection is windowed
type Strategy struct {
	Fn Fn
}

// DefaultStrategy returns a Strategy using GlobalWindows
func DefaultStrategy() *Strategy {
	return &Strategy{Fn: GlobalWindows{}}
}

// IsGlobal returns true iff every element of a collection with this Strategy
// is in the GlobalWindow
func (s *Strategy) IsGlobal() bool {
	return s == nil || s.Fn == nil || s.Fn.Kind() == GlobalWindowsKind
}

// SideInputWindow maps a window of a main input to the window of a side input
// (with this Strategy) which should be read for it
func (s *Strategy) SideInputWindow(main Window) Window {
	if s.IsGlobal() {
		return GlobalWindow{}
	}
	return s.Fn.AssignWindow(main.MaxTimestamp())
}

func (s *Strategy) String() string {
	if s.IsGlobal() {
		return GlobalWindows{}.String()
	}
	return s.Fn.String()
}
