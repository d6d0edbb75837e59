package flight

import (
	"fmt"
	"strconv"

	"github.com/aerocade/flightcore/internal/dispatcher"
)

// Scripting command names.
const (
	CmdSetThrust        = "setThrust"
	CmdResetThrust      = "resetThrust"
	CmdKill             = "kill"
	CmdRespawn          = "respawn"
	CmdIsDead           = "isDead"
	CmdTerminalVelocity = "terminalVelocity"
	CmdThrust           = "thrust"
)

// RegisterCommands exposes the unit's public API on d. Commands that change
// state are deferred and run at the start of the next fixed tick; at most
// limit may wait at once. Queries answer immediately and must be dispatched
// from the tick goroutine.
func (u *Unit) RegisterCommands(d *dispatcher.Dispatcher, limit int) {
	u.commands = d

	d.Register(CmdSetThrust, u.handleSetThrust,
		dispatcher.Validate(validateSetThrust), dispatcher.Deferred(limit), dispatcher.Logged())
	d.Register(CmdResetThrust, func(dispatcher.Event) (any, error) {
		u.ResetThrust()
		return nil, nil
	}, dispatcher.Deferred(limit), dispatcher.Logged())
	d.Register(CmdKill, func(dispatcher.Event) (any, error) {
		return u.Kill(), nil
	}, dispatcher.Deferred(limit), dispatcher.Logged())
	d.Register(CmdRespawn, func(dispatcher.Event) (any, error) {
		return u.Respawn(), nil
	}, dispatcher.Deferred(limit), dispatcher.Logged())

	d.Register(CmdIsDead, func(dispatcher.Event) (any, error) {
		return u.IsDead(), nil
	})
	d.Register(CmdTerminalVelocity, func(dispatcher.Event) (any, error) {
		return u.TerminalVelocity(), nil
	})
	d.Register(CmdThrust, func(dispatcher.Event) (any, error) {
		return u.Thrust(), nil
	})
}

// handleSetThrust expects [value] or [value, seconds], value in [0, 1].
func (u *Unit) handleSetThrust(e dispatcher.Event) (any, error) {
	value, duration, err := parseSetThrust(e.Args)
	if err != nil {
		return nil, err
	}
	u.SetThrust(value, duration)
	return u.Thrust(), nil
}

func validateSetThrust(e dispatcher.Event) error {
	_, _, err := parseSetThrust(e.Args)
	return err
}

func parseSetThrust(args []string) (float64, float64, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, fmt.Errorf("%s: expected 1 or 2 args, got %d", CmdSetThrust, len(args))
	}
	value, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: parsing value: %w", CmdSetThrust, err)
	}
	var duration float64
	if len(args) == 2 {
		duration, err = strconv.ParseFloat(args[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: parsing duration: %w", CmdSetThrust, err)
		}
	}
	return value, duration, nil
}
