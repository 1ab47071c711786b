package payment

import (
	"context"
	"fmt"
	"sync"

	"ridelink/internal/ride-service/core/myerrors"
	"ridelink/internal/ride-service/core/ports"

	"github.com/google/uuid"
)

// StubClient satisfies the payment capture contract without a real
// processor: one intent per completion, confirmable exactly once. The
// coordinator's status CAS already guarantees a ride is never paid twice.
type StubClient struct {
	mu      sync.Mutex
	intents map[string]intent
}

type intent struct {
	amount    float64
	confirmed bool
}

func NewStub() ports.IPaymentClient {
	return &StubClient{
		intents: make(map[string]intent),
	}
}

func (c *StubClient) CreateIntent(ctx context.Context, amount float64) (string, error) {
	if amount <= 0 {
		return "", myerrors.E(myerrors.KindValidation, "payment amount must be positive")
	}

	ref := "pi_" + uuid.NewString()

	c.mu.Lock()
	c.intents[ref] = intent{amount: amount}
	c.mu.Unlock()

	return ref, nil
}

func (c *StubClient) Confirm(ctx context.Context, intentRef string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	in, ok := c.intents[intentRef]
	if !ok {
		return myerrors.E(myerrors.KindUpstream, fmt.Sprintf("unknown payment intent %s", intentRef))
	}
	if in.confirmed {
		return myerrors.E(myerrors.KindConflict, "payment intent already confirmed")
	}

	in.confirmed = true
	c.intents[intentRef] = in
	return nil
}
