package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	// Upstream failure kinds surfaced by the FPL client.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamNotFound    = errors.New("upstream resource not found")
	ErrUpstreamMalformed   = errors.New("upstream payload malformed")

	// Ingestion rejections; the stored state is left untouched.
	ErrIngestValidation = errors.New("ingest validation failed")

	// Analytics over entities that were never ingested.
	ErrLeagueNotFound  = errors.New("league not found")
	ErrManagerNotFound = errors.New("manager not found")
)
