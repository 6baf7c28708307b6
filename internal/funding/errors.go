package funding

import "errors"

var (
	// ErrValidation rejects missing or non-positive request fields.
	ErrValidation = errors.New("invalid request")
	// ErrNotFound is returned when no transaction carries the reference.
	ErrNotFound = errors.New("transaction not found")
	// ErrLedgerRead wraps store failures while reading.
	ErrLedgerRead = errors.New("ledger read failed")
	// ErrLedgerWrite wraps store failures while writing.
	ErrLedgerWrite = errors.New("ledger write failed")
	// ErrGatewayInit is an explicit refusal or malformed answer from initialize.
	ErrGatewayInit = errors.New("gateway initialization failed")
	// ErrGatewayVerify is an explicit refusal from verify, or a charge that has
	// not reached an outcome yet. The ledger is left untouched.
	ErrGatewayVerify = errors.New("gateway verification failed")
	// ErrPaymentInFlight accompanies ErrGatewayVerify when the gateway has not
	// decided the charge yet.
	ErrPaymentInFlight = errors.New("payment still processing")
	// ErrGatewayUnavailable means the gateway could not be reached, after
	// retries on the verify path.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
)
