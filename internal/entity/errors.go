package entity

import "errors"

// Domain errors
var (
	// Request errors
	ErrValidation = errors.New("validation failed")

	// Pipeline errors, each wraps the underlying provider or transport error
	ErrEmbedding  = errors.New("embedding failed")
	ErrRetrieval  = errors.New("retrieval failed")
	ErrGeneration = errors.New("generation failed")

	// Upstream details
	ErrMalformedResponse   = errors.New("malformed upstream response")
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrDimensionMismatch   = errors.New("vector dimension mismatch")
)
