package funding

import (
	"context"

	"github.com/points-app/points_app/internal/paystack"
)

// Gateway represents the external payment processor that issues checkouts
// and reports their outcome.
type Gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (paystack.Verification, error)
}

var _ Gateway = (*paystack.Client)(nil)
