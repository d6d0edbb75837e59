package main

import (
	"github.com/aerocade/flightcore/internal/flight"
	"github.com/aerocade/flightcore/internal/sim"
	"github.com/aerocade/flightcore/pkg/core"
)

type command struct {
	command string
	args    []string
}

// sortieCommands are scripting calls made at fixed ticks of the demo
// sortie, as a mission script would.
var sortieCommands = map[uint64][]command{
	100: {{flight.CmdSetThrust, []string{"1", "3"}}},
	400: {{flight.CmdSetThrust, []string{"0.2", "-1"}}},
	700: {{flight.CmdSetThrust, []string{"0.9"}}},
	900: {{flight.CmdResetThrust, nil}},
}

// sortie climbs out, rolls into a turn, levels off and finally pushes the
// nose into the ground so the wreck and respawn path runs too.
func sortie() *sim.Script {
	return sim.NewScript(false,
		sim.Step{Ticks: 150, Command: core.PilotCommand{Pitch: 0.4, Flap: 0.5}},
		sim.Step{Ticks: 100, Command: core.PilotCommand{}},
		sim.Step{Ticks: 120, Command: core.PilotCommand{Roll: 0.6, Pitch: 0.2}},
		sim.Step{Ticks: 120, Command: core.PilotCommand{Roll: -0.6}},
		sim.Step{Ticks: 200, Command: core.PilotCommand{Yaw: 0.3}},
		sim.Step{Ticks: 400, Command: core.PilotCommand{Pitch: -1}},
	)
}
