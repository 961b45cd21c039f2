// Package assignment is the top-level façade: it validates
// configuration, owns the set of traffic classes, wires a VDF and an
// Equilibrator together, and exposes the run's results, through an
// imperative setter style (set_classes/set_vdf/...) rather than
// functional options.
package assignment

import "errors"

// Sentinel errors for Assignment configuration and execution.
var (
	// ErrNoClasses indicates Execute was called with no classes set.
	ErrNoClasses = errors.New("assignment: no traffic classes configured")

	// ErrNoVDF indicates Execute was called with no VDF selected.
	ErrNoVDF = errors.New("assignment: no vdf configured")

	// ErrUnknownVDF indicates SetVDF named an unregistered algorithm.
	ErrUnknownVDF = errors.New("assignment: unknown vdf")

	// ErrUnknownAlgorithm indicates SetAlgorithm named something outside
	// {msa, fw, cfw, bfw}.
	ErrUnknownAlgorithm = errors.New("assignment: unknown algorithm")

	// ErrMissingCapacityField indicates the attribute named by
	// SetCapacityField is not present on the first class's graph.
	ErrMissingCapacityField = errors.New("assignment: capacity field not found")

	// ErrMissingTimeField indicates the attribute named by SetTimeField
	// is not present on the first class's graph.
	ErrMissingTimeField = errors.New("assignment: time field not found")

	// ErrInvalidVDFParameters indicates SetVDFParameters (or its default
	// zero value) supplied a parameter the selected VDF cannot accept,
	// caught at Execute's validation boundary instead of inside the
	// kernel constructor.
	ErrInvalidVDFParameters = errors.New("assignment: invalid vdf parameters")
)
