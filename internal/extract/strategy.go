package extract

import (
	"context"
	"errors"
)

// Tier identifies one extraction strategy, ordered by capability and cost.
type Tier string

const (
	// TierModel runs local ONNX entity recognition and question answering.
	TierModel Tier = "model"
	// TierLexical scores pattern-library matches with fixed boosts.
	TierLexical Tier = "lexical"
	// TierRegex is the dependency-free floor, always available.
	TierRegex Tier = "regex"
)

// Strategy is the common extraction contract shared by all tiers.
//
// Extract fails only on catastrophic internal errors; a document with no
// recognizable fields is a valid empty Result, not an error.
type Strategy interface {
	Tier() Tier
	Extract(ctx context.Context, text string) (Result, error)
}

var (
	// ErrStrategyUnavailable means a tier's dependencies failed to
	// initialize. It downgrades the pipeline at construction time and is
	// never returned from a call.
	ErrStrategyUnavailable = errors.New("extraction strategy unavailable")

	// ErrFatalExtraction means the regex floor itself failed. It is the
	// only extraction error surfaced to callers.
	ErrFatalExtraction = errors.New("extraction failed on fallback tier")
)
