package drive

import (
	"context"
	"errors"
	"time"
)

var afterFn = time.After

// Step is one entry of a motion program: apply the state, then hold it.
type Step struct {
	Intent Intent
	Level  int
	Hold   time.Duration
}

// DefaultSequence creeps forward, stops, creeps backward and rests.
func DefaultSequence() []Step {
	return []Step{
		{Intent: Forward, Level: 300, Hold: time.Second},
		{Intent: Stopped},
		{Intent: Backward, Level: 200, Hold: time.Second},
		{Intent: Stopped, Hold: time.Second},
	}
}

// RunSequence plays steps on d, repeating while loop is set, until ctx is
// done. The drive is stopped before returning. onStep, if non-nil, is called
// before each step is applied.
func RunSequence(ctx context.Context, d *Drive, steps []Step, loop bool, onStep func(Step)) error {
	if d == nil {
		return errors.New("drive: nil drive")
	}
	if len(steps) == 0 {
		return errors.New("drive: empty sequence")
	}
	for {
		for _, st := range steps {
			if err := ctx.Err(); err != nil {
				return stopWith(d, err)
			}
			if onStep != nil {
				onStep(st)
			}
			if err := d.Apply(State{Intent: st.Intent, Level: st.Level}); err != nil {
				return stopWith(d, err)
			}
			if st.Hold <= 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return stopWith(d, ctx.Err())
			case <-afterFn(st.Hold):
			}
		}
		if !loop {
			return stopWith(d, nil)
		}
	}
}

func stopWith(d *Drive, err error) error {
	if stopErr := d.Stop(); stopErr != nil {
		return errors.Join(err, stopErr)
	}
	return err
}
