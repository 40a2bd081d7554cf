package drive

import (
	"fmt"
	"strings"
)

// Intent is a motion command.
type Intent int

const (
	Stopped Intent = iota
	Forward
	Backward
	Left
	Right
)

func (i Intent) String() string {
	switch i {
	case Stopped:
		return "stop"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stop", "stopped":
		return Stopped, nil
	case "forward", "fwd":
		return Forward, nil
	case "backward", "back", "reverse":
		return Backward, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Stopped, fmt.Errorf("drive: unknown intent %q", s)
}

// State is the whole drive's commanded motion. Only one intent is active at a
// time, so a motor's forward and backward channels are never both driven.
type State struct {
	Intent Intent
	Level  int
}

func (s State) String() string {
	if s.Intent == Stopped {
		return "stop"
	}
	return fmt.Sprintf("%s(%d)", s.Intent, s.Level)
}

func (s State) valid() bool {
	return s.Intent >= Stopped && s.Intent <= Right
}

// targets returns the level of every channel for s. Unlisted channels are 0.
func (s State) targets() [NumChannels]int {
	var t [NumChannels]int
	for _, m := range motorMap {
		var ch int
		switch s.Intent {
		case Forward:
			ch = m.Forward
		case Backward:
			ch = m.Backward
		case Left:
			// Left side reverses, right side drives.
			ch = m.Backward
			if m.Side == SideRight {
				ch = m.Forward
			}
		case Right:
			ch = m.Forward
			if m.Side == SideRight {
				ch = m.Backward
			}
		default:
			continue
		}
		t[ch] = s.Level
	}
	return t
}

// normLevel folds levels that produce the same slot together.
func normLevel(l int) int {
	switch {
	case l <= 0:
		return 0
	case l >= 4096:
		return 4096
	default:
		return l
	}
}
