package domain

import "errors"

var (
	// ErrModelUnavailable means an embedding or generation model could not
	// be constructed. Fatal at startup, never retried per-request.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrEmptyCorpus means no artifact has ever been built. Reported
	// alongside a degraded answer, never fatal.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrGenerationTimeout means model inference exceeded the configured
	// wall-clock bound for one request.
	ErrGenerationTimeout = errors.New("generation timeout")

	// ErrIntegrity means an artifact failed validation (passage count or
	// dimension mismatch). Always treated as a build failure.
	ErrIntegrity = errors.New("artifact integrity violation")

	// ErrBuildInProgress means a rebuild was requested while another build
	// is still running.
	ErrBuildInProgress = errors.New("build already in progress")
)
