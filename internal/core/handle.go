package core

import (
	"fmt"
	"strconv"
	"strings"
)

type handleKind uint8

const (
	handleNone handleKind = iota
	handlePosition
	handleKey
)

// Handle is the opaque identity returned by Save and required by Delete.
// A handle minted by the flat-file backend wraps a position in the current
// sequence; one minted by the relational backend wraps a durable key. The
// two are never interchangeable.
type Handle struct {
	kind handleKind
	pos  int
	key  int64
}

// PositionHandle wraps a zero-based position.
func PositionHandle(i int) Handle {
	return Handle{kind: handlePosition, pos: i}
}

// KeyHandle wraps a store-assigned surrogate key.
func KeyHandle(id int64) Handle {
	return Handle{kind: handleKey, key: id}
}

// IsZero reports a record without identity (never saved).
func (h Handle) IsZero() bool { return h.kind == handleNone }

// Position returns the wrapped position, if h is positional.
func (h Handle) Position() (int, bool) {
	return h.pos, h.kind == handlePosition
}

// Key returns the wrapped surrogate key, if h is durable.
func (h Handle) Key() (int64, bool) {
	return h.key, h.kind == handleKey
}

// String renders "#3" for positions and "id:42" for keys.
func (h Handle) String() string {
	switch h.kind {
	case handlePosition:
		return "#" + strconv.Itoa(h.pos)
	case handleKey:
		return "id:" + strconv.FormatInt(h.key, 10)
	default:
		return ""
	}
}

// ParseHandle is the inverse of Handle.String. A bare number is read as a
// position, matching the index shown by list commands.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "id:"):
		id, err := strconv.ParseInt(s[3:], 10, 64)
		if err != nil || id <= 0 {
			return Handle{}, fmt.Errorf("invalid handle %q", s)
		}
		return KeyHandle(id), nil
	case strings.HasPrefix(s, "#"):
		s = s[1:]
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return Handle{}, fmt.Errorf("invalid handle %q", s)
	}
	return PositionHandle(i), nil
}
