package parking

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"pms/src/models"

	"github.com/google/uuid"
)

var ErrGatewayDeclined = errors.New("payment gateway processing failed")

// SimulatedGateway stands in for a real payment provider in demos and tests.
// It declines a configurable fraction of charges after a short processing
// delay. A production deployment injects a real PaymentGateway instead; retry
// and timeout policy stay with the caller.
type SimulatedGateway struct {
	FailureRate float64
	Delay       time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedGateway(failureRate float64, delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{
		FailureRate: failureRate,
		Delay:       delay,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, amount float64, ticket *models.Ticket) (string, error) {
	if g.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.Delay):
		}
	}
	g.mu.Lock()
	declined := g.rnd.Float64() < g.FailureRate
	g.mu.Unlock()
	if declined {
		return "", ErrGatewayDeclined
	}
	return uuid.NewString(), nil
}
