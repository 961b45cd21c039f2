package equilibrator

import "errors"

// Sentinel errors for equilibrator construction and execution.
var (
	// ErrNoClasses indicates New was called with an empty class list.
	ErrNoClasses = errors.New("equilibrator: no traffic classes configured")

	// ErrNilVDF indicates New was called with no volume-delay function.
	ErrNilVDF = errors.New("equilibrator: no vdf configured")

	// ErrLinkCountMismatch indicates two classes reference graphs with a
	// different number of links; the equilibrator requires every class
	// to index the same link space so aggregate (PCE-weighted) flows can
	// be summed elementwise.
	ErrLinkCountMismatch = errors.New("equilibrator: classes do not share a common link space")

	// ErrInvalidOptions indicates a non-positive MaxIterations,
	// RGapTarget, or StepsBelowNeeded was supplied.
	ErrInvalidOptions = errors.New("equilibrator: invalid options")

	// ErrCancelled wraps a context cancellation observed between
	// iterations; the last fully completed iteration's flows are left
	// intact, since there is no partial-iteration rollback.
	ErrCancelled = errors.New("equilibrator: cancelled")
)
