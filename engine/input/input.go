package input

import "strings"

// Key identifies a key the scene reacts to.
type Key uint8

const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyShift
	KeyEscape
	KeyP
	KeyF1
	KeyF2
	KeyF
	KeyZ
	KeyX
	keyCount
)

// AllKeys lists every key polled each frame.
func AllKeys() []Key {
	keys := make([]Key, keyCount)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}

var keyNames = [keyCount]string{
	KeyW: "w", KeyA: "a", KeyS: "s", KeyD: "d", KeyQ: "q",
	KeyUp: "up", KeyDown: "down", KeyLeft: "left", KeyRight: "right",
	KeySpace: "space", KeyShift: "shift", KeyEscape: "escape",
	KeyP: "p", KeyF1: "f1", KeyF2: "f2",
	KeyF: "f", KeyZ: "z", KeyX: "x",
}

func (k Key) String() string {
	if k < keyCount {
		return keyNames[k]
	}
	return "unknown"
}

// ParseKey looks a key up by its lower-case name.
func ParseKey(name string) (Key, bool) {
	for i, n := range keyNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return Key(i), true
		}
	}
	return 0, false
}

// Axis is a virtual input axis built from two opposing key groups.
type Axis uint8

const (
	Horizontal Axis = iota // D/Right positive, A/Left negative
	Vertical               // W/Up positive, S/Down negative
)

// Keys is the per-frame key state consumed by gameplay systems.
type Keys interface {
	Held(k Key) bool
	JustPressed(k Key) bool
	Axis(a Axis) float64
}

// PollFunc reports whether a key is currently down.
type PollFunc func(k Key) bool

// InputState tracks keyboard state per frame
type InputState struct {
	held [keyCount]bool
	prev [keyCount]bool
}

func NewInputState() *InputState {
	return &InputState{}
}

// Update should be called once per simulation tick
func (s *InputState) Update(poll PollFunc) {
	s.prev = s.held
	for i := range s.held {
		s.held[i] = poll != nil && poll(Key(i))
	}
}

// Held returns true while the key is down
func (s *InputState) Held(k Key) bool {
	return k < keyCount && s.held[k]
}

// JustPressed returns true if key went down this tick
func (s *InputState) JustPressed(k Key) bool {
	return k < keyCount && s.held[k] && !s.prev[k]
}

// JustReleased returns true if key went up this tick
func (s *InputState) JustReleased(k Key) bool {
	return k < keyCount && !s.held[k] && s.prev[k]
}

// Axis returns -1, 0 or 1 for the virtual axis.
func (s *InputState) Axis(a Axis) float64 {
	var pos, neg bool
	switch a {
	case Horizontal:
		pos = s.Held(KeyD) || s.Held(KeyRight)
		neg = s.Held(KeyA) || s.Held(KeyLeft)
	case Vertical:
		pos = s.Held(KeyW) || s.Held(KeyUp)
		neg = s.Held(KeyS) || s.Held(KeyDown)
	}
	v := 0.0
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}

// Set forces a key state; used by scripted input and tests.
func (s *InputState) Set(k Key, down bool) {
	if k < keyCount {
		s.held[k] = down
	}
}
