package models

import "errors"

// Error taxonomy for the gateway. Callers match with errors.Is; lower layers
// wrap these with context via fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidCommand marks malformed or unknown input rejected before dispatch.
	ErrInvalidCommand = errors.New("invalid command")

	// Registry-layer errors
	ErrRegistryUnavailable = errors.New("registry unavailable")
	ErrInvalidArtifact     = errors.New("invalid artifact")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid stage transition")

	// Worker-layer errors
	ErrWorkerUnreachable = errors.New("worker unreachable")
	ErrWorkerRejected    = errors.New("worker rejected submission")
	ErrUnknownJob        = errors.New("unknown job")

	// ErrJobLost marks a job the reconciliation loop could no longer find.
	ErrJobLost = errors.New("job lost")
)
