// Package lifecycle tracks whether the aircraft is flying or wrecked and
// puts it back on the spawn point when it respawns.
package lifecycle

import (
	"fmt"

	"github.com/aerocade/flightcore/pkg/core"
)

// State of the aircraft.
type State uint8

const (
	Alive State = iota
	Destroyed
)

func (s State) String() string {
	switch s {
	case Alive:
		return "alive"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", s)
	}
}

// Trigger drives a transition.
type Trigger uint8

const (
	TriggerKill Trigger = iota
	TriggerRespawn
)

type edge struct {
	from State
	on   Trigger
}

// transitions lists every legal move; anything else is ignored.
var transitions = map[edge]State{
	{Alive, TriggerKill}:        Destroyed,
	{Destroyed, TriggerRespawn}: Alive,
}

// Transform is the part of the rigid body the controller touches on respawn.
type Transform interface {
	SetPose(p core.Pose)
	// ClearMotion zeroes linear and angular velocity and lifts any motion
	// constraints applied while wrecked.
	ClearMotion()
}

// Controller owns the Alive/Destroyed state machine. It is not safe for
// concurrent use.
type Controller struct {
	body      Transform
	spawn     core.Pose
	state     State
	observers []func(from, to State)
}

// New starts Alive. The spawn pose is copied and never changes.
func New(body Transform, spawn core.Pose) *Controller {
	return &Controller{body: body, spawn: spawn, state: Alive}
}

// OnTransition registers fn to run after every state change.
func (c *Controller) OnTransition(fn func(from, to State)) {
	if fn != nil {
		c.observers = append(c.observers, fn)
	}
}

// Kill destroys the aircraft. It returns false if it was already destroyed.
func (c *Controller) Kill() bool {
	return c.fire(TriggerKill)
}

// Respawn restores the spawn pose and clears motion. It returns false while
// the aircraft is alive.
func (c *Controller) Respawn() bool {
	return c.fire(TriggerRespawn)
}

func (c *Controller) fire(t Trigger) bool {
	next, ok := transitions[edge{c.state, t}]
	if !ok {
		return false
	}
	if t == TriggerRespawn && c.body != nil {
		c.body.SetPose(c.spawn)
		c.body.ClearMotion()
	}
	prev := c.state
	c.state = next
	for _, fn := range c.observers {
		fn(prev, next)
	}
	return true
}

// IsDead reports whether the aircraft is destroyed.
func (c *Controller) IsDead() bool {
	return c.state == Destroyed
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) SpawnPose() core.Pose {
	return c.spawn
}
