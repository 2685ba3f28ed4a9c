package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/siddhasavor/backend/internal/notify"
)

var ErrGatewayDown = errors.New("gateway down")

// Gateway records every message. The first FailFirst sends fail with Err
// (ErrGatewayDown when unset); FailAlways makes every send fail.
type Gateway struct {
	mu         sync.Mutex
	Sent       []notify.Message
	Calls      int
	FailFirst  int
	FailAlways bool
	Err        error
}

var _ notify.Gateway = (*Gateway)(nil)

func (g *Gateway) Send(_ context.Context, msg notify.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls++
	if g.FailAlways || g.Calls <= g.FailFirst {
		if g.Err != nil {
			return g.Err
		}
		return ErrGatewayDown
	}
	g.Sent = append(g.Sent, msg)
	return nil
}

func (g *Gateway) Messages() []notify.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]notify.Message, len(g.Sent))
	copy(out, g.Sent)
	return out
}
