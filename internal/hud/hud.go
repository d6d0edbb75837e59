// Package hud draws the cockpit readout on a terminal and turns key presses
// into stick input and scripting actions.
package hud

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aerocade/flightcore/internal/flight"
	"github.com/aerocade/flightcore/pkg/core"
	"github.com/gdamore/tcell/v2"
)

// Action is a key press the host has to act on.
type Action uint8

const (
	ActionNone Action = iota
	ActionQuit
	ActionKill
	ActionRespawn
	ActionBoost
)

// stickStep is how far one arrow press moves an axis.
const stickStep = 0.25

var (
	styleText    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleWarn    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleDead    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleJet     = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleBarFill = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// HUD is a flight.Presenter, flight.Effects and flight.Input on one screen.
type HUD struct {
	mu     sync.Mutex
	screen tcell.Screen
	last   core.Telemetry
	cue    flight.EffectCue
	stick  core.PilotCommand
}

// New creates a HUD on an initialised screen.
func New(screen tcell.Screen) *HUD {
	return &HUD{screen: screen}
}

// Present draws one telemetry frame.
func (h *HUD) Present(t core.Telemetry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = t
	h.draw()
}

// ApplyEffects shows the exhaust and camera cue.
func (h *HUD) ApplyEffects(cue flight.EffectCue) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cue = cue
	h.draw()
}

// Axes returns the keyboard stick position.
func (h *HUD) Axes() core.PilotCommand {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stick
}

// HandleEvent applies a terminal event to the stick and reports what the
// host should do.
func (h *HUD) HandleEvent(ev tcell.Event) Action {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		h.mu.Lock()
		h.screen.Sync()
		h.draw()
		h.mu.Unlock()
	case *tcell.EventKey:
		return h.handleKey(ev)
	}
	return ActionNone
}

func (h *HUD) handleKey(ev *tcell.EventKey) Action {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyUp:
		h.stick.Pitch -= stickStep
	case tcell.KeyDown:
		h.stick.Pitch += stickStep
	case tcell.KeyLeft:
		h.stick.Roll -= stickStep
	case tcell.KeyRight:
		h.stick.Roll += stickStep
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return ActionQuit
		case 'k':
			return ActionKill
		case 'r':
			return ActionRespawn
		case 'b':
			return ActionBoost
		case 'a':
			h.stick.Yaw -= stickStep
		case 'd':
			h.stick.Yaw += stickStep
		case 'f':
			if h.stick.Flap == 0 {
				h.stick.Flap = 1
			} else {
				h.stick.Flap = 0
			}
		case ' ':
			h.stick = core.PilotCommand{Flap: h.stick.Flap}
		}
	}
	h.stick = h.stick.Clamped(-1, 1)
	return ActionNone
}

// Listen forwards actions from terminal events until the screen is
// finalised or ctx ends. actions is closed on return.
func (h *HUD) Listen(ctx context.Context, actions chan<- Action) {
	defer close(actions)
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return
		}
		a := h.HandleEvent(ev)
		if a == ActionNone {
			continue
		}
		select {
		case actions <- a:
		case <-ctx.Done():
			return
		}
	}
}

// draw must be called with mu held.
func (h *HUD) draw() {
	h.screen.Clear()

	style := styleText
	if h.last.Destroyed {
		style = styleDead
	}
	for i, line := range strings.Split(h.last.String(), "\n") {
		h.text(1, 1+i, line, style)
	}
	h.bar(12, 3, 20, h.last.Thrust)

	switch {
	case h.last.Destroyed:
		h.text(1, 5, "DESTROYED  [r] respawn", styleDead)
	case h.last.Override:
		h.text(1, 5, "OVERRIDE", styleWarn)
	}
	if h.cue.JetActive {
		h.text(1, 6, "JET", styleJet)
	}
	h.text(5, 6, fmt.Sprintf("CAM %d", h.cue.CameraPriority), styleText)
	h.text(1, 8, fmt.Sprintf("tick %d", h.last.Tick), styleText)

	h.screen.Show()
}

func (h *HUD) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		h.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (h *HUD) bar(x, y, width int, fill float64) {
	n := int(core.Clamp(fill, 0, 1) * float64(width))
	for i := 0; i < width; i++ {
		if i < n {
			h.screen.SetContent(x+i, y, '█', nil, styleBarFill)
		} else {
			h.screen.SetContent(x+i, y, '·', nil, styleText)
		}
	}
}

// Line reads back one screen row, trailing blanks trimmed. Unset cells read
// as spaces.
func Line(screen tcell.Screen, y int) string {
	w, _ := screen.Size()
	runes := make([]rune, 0, w)
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		runes = append(runes, r)
	}
	end := len(runes)
	for end > 0 && runes[end-1] == ' ' {
		end--
	}
	return string(runes[:end])
}
