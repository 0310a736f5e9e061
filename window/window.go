// Package window contains the windowing metadata carried by every element of
// a collection: the window an element belongs to, the function which assigned
// it, and the byte encoding used to group elements by window in a shuffle.
package window

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// MinTimestamp is the earliest timestamp an element may carry
	MinTimestamp = time.UnixMilli(math.MinInt64 / 1000).UTC()
	// MaxTimestamp is the latest timestamp an element may carry
	MaxTimestamp = time.UnixMilli(math.MaxInt64 / 1000).UTC()
	// GlobalMaxTimestamp is the end of the global window, which is one day
	// before MaxTimestamp so that downstream timers may still fire
	GlobalMaxTimestamp = MaxTimestamp.Add(-24 * time.Hour)
)

// A Window is a grouping of elements by time. Two elements are only combined
// together if they are in the same Window.
type Window interface {
	MaxTimestamp() time.Time // MaxTimestamp returns the inclusive upper bound of timestamps for values in this window
	Equals(o Window) bool    // Equals returns true iff o is the same window
	String() string
}

// GlobalWindow is the single window that spans all time
type GlobalWindow struct{}

// MaxTimestamp returns the end of the global window
func (GlobalWindow) MaxTimestamp() time.Time {
	return GlobalMaxTimestamp
}

// Equals returns true iff o is also the global window
func (GlobalWindow) Equals(o Window) bool {
	_, ok := o.(GlobalWindow)
	return ok
}

func (GlobalWindow) String() string {
	return "[*]"
}

// IntervalWindow is a window covering the half-open interval [Start, End)
type IntervalWindow struct {
	Start, End time.Time
}

// MaxTimestamp returns the last millisecond within this window
func (w IntervalWindow) MaxTimestamp() time.Time {
	return w.End.Add(-time.Millisecond)
}

// Equals returns true iff o covers the same interval
func (w IntervalWindow) Equals(o Window) bool {
	ow, ok := o.(IntervalWindow)
	return ok && w.Start.Equal(ow.Start) && w.End.Equal(ow.End)
}

func (w IntervalWindow) String() string {
	return fmt.Sprintf("[%v:%v)", w.Start.UnixMilli(), w.End.UnixMilli())
}

const (
	globalWindowTag   = 0
	intervalWindowTag = 1
)

// Encode appends a deterministic encoding of w to buf. Equal windows always
// produce equal bytes, so the encoding may be used as a grouping key.
func Encode(buf []byte, w Window) ([]byte, error) {
	switch tw := w.(type) {
	case GlobalWindow:
		return append(buf, globalWindowTag), nil
	case IntervalWindow:
		buf = append(buf, intervalWindowTag)
		buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(tw.Start.UnixMilli()))
		return protowire.AppendVarint(buf, protowire.EncodeZigZag(tw.End.UnixMilli())), nil
	default:
		return nil, fmt.Errorf("Unable to encode window of type %T", w)
	}
}

// Decode consumes one window from the front of buf
func Decode(buf []byte) (Window, int, error) {
	if len(buf) == 0 {
		return nil, 0, fmt.Errorf("Unable to decode window: empty buffer")
	}
	switch buf[0] {
	case globalWindowTag:
		return GlobalWindow{}, 1, nil
	case intervalWindowTag:
		start, n := protowire.ConsumeVarint(buf[1:])
		if n < 0 {
			return nil, 0, fmt.Errorf("Unable to decode window start: %w", protowire.ParseError(n))
		}
		end, m := protowire.ConsumeVarint(buf[1+n:])
		if m < 0 {
			return nil, 0, fmt.Errorf("Unable to decode window end: %w", protowire.ParseError(m))
		}
		return IntervalWindow{
			Start: time.UnixMilli(protowire.DecodeZigZag(start)).UTC(),
			End:   time.UnixMilli(protowire.DecodeZigZag(end)).UTC(),
		}, 1 + n + m, nil
	default:
		return nil, 0, fmt.Errorf("Unable to decode window: unknown tag %d", buf[0])
	}
}
