package drive

// Side is the half of the chassis a motor sits on.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Motor is one wheel motor and the two PWM channels of its H-bridge.
type Motor struct {
	Name     string
	Side     Side
	Forward  int
	Backward int
}

// NumChannels is the channel count of the PWM expander.
const NumChannels = 16

// motorMap is wired to match the platform harness. No channel is shared.
var motorMap = [...]Motor{
	{Name: "L1", Side: SideLeft, Forward: 0, Backward: 1},
	{Name: "L2", Side: SideLeft, Forward: 2, Backward: 3},
	{Name: "L3", Side: SideLeft, Forward: 4, Backward: 5},
	{Name: "R1", Side: SideRight, Forward: 6, Backward: 7},
	{Name: "R2", Side: SideRight, Forward: 8, Backward: 9},
	{Name: "R3", Side: SideRight, Forward: 10, Backward: 11},
}

// Motors returns a copy of the motor channel map.
func Motors() []Motor {
	out := make([]Motor, len(motorMap))
	copy(out, motorMap[:])
	return out
}
