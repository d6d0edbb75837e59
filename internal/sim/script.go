package sim

import "github.com/aerocade/flightcore/pkg/core"

// Step holds a command for a number of ticks.
type Step struct {
	Ticks   int
	Command core.PilotCommand
}

// Script is a pilot that replays steps, one Axes call per tick. After the
// last step it centres the stick.
type Script struct {
	steps []Step
	i, n  int
	loop  bool
}

// NewScript creates a script. With loop set it starts over at the end.
// Steps without ticks are dropped.
func NewScript(loop bool, steps ...Step) *Script {
	s := &Script{loop: loop}
	for _, st := range steps {
		if st.Ticks > 0 {
			s.steps = append(s.steps, st)
		}
	}
	return s
}

// Axes implements flight.Input.
func (s *Script) Axes() core.PilotCommand {
	if s.i >= len(s.steps) {
		if !s.loop || len(s.steps) == 0 {
			return core.PilotCommand{}
		}
		s.i = 0
	}

	cmd := s.steps[s.i].Command
	s.n++
	if s.n >= s.steps[s.i].Ticks {
		s.i++
		s.n = 0
	}
	return cmd
}

// Done reports whether a non-looping script has run out.
func (s *Script) Done() bool {
	return !s.loop && s.i >= len(s.steps)
}
