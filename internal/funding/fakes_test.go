package funding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/points-app/points_app/internal/ledger"
	"github.com/points-app/points_app/internal/logging"
	"github.com/points-app/points_app/internal/notification"
	"github.com/points-app/points_app/internal/paystack"
)

type fakeGateway struct {
	mu sync.Mutex

	auth         paystack.Authorization
	initErr      error
	onInitialize func(req paystack.InitializeRequest)
	initCalls    []paystack.InitializeRequest

	verification paystack.Verification
	verifyErrs   []error
	verifyCalls  int
	// verifyFn, when set, answers every Verify call.
	verifyFn func(reference string) (paystack.Verification, error)
}

func (g *fakeGateway) Initialize(_ context.Context, req paystack.InitializeRequest) (paystack.Authorization, error) {
	g.mu.Lock()
	g.initCalls = append(g.initCalls, req)
	hook := g.onInitialize
	auth, err := g.auth, g.initErr
	g.mu.Unlock()
	if hook != nil {
		hook(req)
	}
	return auth, err
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (paystack.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyFn != nil {
		return g.verifyFn(reference)
	}
	if len(g.verifyErrs) > 0 {
		err := g.verifyErrs[0]
		g.verifyErrs = g.verifyErrs[1:]
		if err != nil {
			return paystack.Verification{}, err
		}
	}
	v := g.verification
	if v.Reference == "" {
		v.Reference = reference
	}
	return v, nil
}

func (g *fakeGateway) VerifyCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verifyCalls
}

// countingLedger records how many writes reach the store.
type countingLedger struct {
	ledger.Ledger
	mu        sync.Mutex
	createErr error
	creates   int
	refs    int
	settles int
}

func (l *countingLedger) Create(ctx context.Context, input ledger.NewTransaction) (ledger.Transaction, error) {
	l.mu.Lock()
	l.creates++
	err := l.createErr
	l.mu.Unlock()
	if err != nil {
		return ledger.Transaction{}, err
	}
	return l.Ledger.Create(ctx, input)
}

func (l *countingLedger) SetReference(ctx context.Context, id, reference string) error {
	l.mu.Lock()
	l.refs++
	l.mu.Unlock()
	return l.Ledger.SetReference(ctx, id, reference)
}

func (l *countingLedger) Settle(ctx context.Context, reference string, s ledger.Settlement) (ledger.SettleResult, error) {
	l.mu.Lock()
	l.settles++
	l.mu.Unlock()
	return l.Ledger.Settle(ctx, reference, s)
}

func (l *countingLedger) writes() (creates, refs, settles int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creates, l.refs, l.settles
}

type testEnv struct {
	service  *Service
	ledger   *countingLedger
	gateway  *fakeGateway
	notifier *notification.Recorder
	sleeps   []time.Duration
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ledger:   &countingLedger{Ledger: ledger.NewInMemory()},
		notifier: &notification.Recorder{},
		gateway: &fakeGateway{
			auth: paystack.Authorization{AuthorizationURL: "https://pay/x", AccessCode: "x", Reference: "ref_1"},
		},
	}
	svc, err := NewService(env.ledger, env.gateway, env.notifier, logging.Discard(), Options{
		Currency:      "NGN",
		CallbackURL:   "http://localhost:3000/buy-points/success",
		MaxAttempts:   3,
		Backoff:       250 * time.Millisecond,
		PendingExpiry: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.sleep = func(_ context.Context, d time.Duration) error {
		env.sleeps = append(env.sleeps, d)
		return nil
	}
	env.service = svc
	return env
}

func scenarioInput() InitiateInput {
	return InitiateInput{UserID: "u1", Coins: 500, AmountLocal: mustDecimal("4000"), Currency: "USD", Email: "a@b.com"}
}

func (env *testEnv) initiate(t *testing.T) InitiateResult {
	t.Helper()
	res, err := env.service.Initiate(context.Background(), scenarioInput())
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return res
}
