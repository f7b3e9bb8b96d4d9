package tui

import (
	"context"

	"github.com/berth-dev/cutover/internal/simulation"
)

// Turner submits one message to a running session and reports the round
// state afterwards.
type Turner interface {
	Submit(ctx context.Context, text string) (*simulation.Turn, simulation.RoundInfo, error)
}

// Game binds a controller to one session. The session must only be read
// from the chat's goroutine while no turn is in flight.
type Game struct {
	Ctrl    *simulation.Controller
	Session *simulation.Session
}

// Submit implements Turner.
func (g Game) Submit(ctx context.Context, text string) (*simulation.Turn, simulation.RoundInfo, error) {
	turn, err := g.Ctrl.Submit(ctx, g.Session, text)
	return turn, g.Session.RoundInfo(), err
}

// turnMsg carries the result of a submitted turn back to the model.
type turnMsg struct {
	text string
	turn *simulation.Turn
	info simulation.RoundInfo
	err  error
}
