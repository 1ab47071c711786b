package ports

import "context"

// IPaymentClient is the external payment capture contract: one intent per
// completion, confirmed exactly once. A ride is never paid twice.
type IPaymentClient interface {
	CreateIntent(ctx context.Context, amount float64) (string, error)
	Confirm(ctx context.Context, intentRef string) error
}
