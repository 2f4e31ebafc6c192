package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/docsift/docsift/internal/model"
)

// fallbackConfidence is reported per caller field when confidence scoring
// itself fails and only the already-extracted values are known.
const fallbackConfidence = 0.70

// Capability describes one tier's availability as resolved at construction.
type Capability struct {
	Tier      Tier   `json:"tier"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// Info is the diagnostic snapshot returned by ModelInfo.
type Info struct {
	ActiveTier   Tier         `json:"active_tier"`
	Capabilities []Capability `json:"capabilities"`
	Methods      []string     `json:"methods"`
	Models       []string     `json:"models,omitempty"`
}

// Options configures coordinator construction.
type Options struct {
	// Model locates the ONNX runtime and model artifacts for the model
	// tier. Zero value means the model tier is never attempted.
	Model model.RuntimeConfig
	// ForceTier pins the active tier instead of probing downward from the
	// most capable one. Forcing the model tier still requires it to load.
	ForceTier Tier
}

// Coordinator owns tier selection and fallback. Capability is resolved once
// here; extraction calls never re-probe, so a document stream observes one
// consistent tier for the coordinator's lifetime (barring per-call fallback
// to the regex floor).
type Coordinator struct {
	active   Strategy
	fallback *RegexStrategy
	caps     []Capability
	models   []string
}

// NewCoordinator probes tiers from most to least capable and binds the first
// one that constructs. The regex floor always constructs, so the returned
// coordinator is always usable; the error reports only invalid options.
func NewCoordinator(opts Options) (*Coordinator, error) {
	c := &Coordinator{fallback: NewRegexStrategy()}

	switch opts.ForceTier {
	case "", TierModel, TierLexical, TierRegex:
	default:
		return nil, fmt.Errorf("unknown tier %q", opts.ForceTier)
	}

	modelStrategy := c.probeModel(opts)
	lexical := NewLexicalStrategy()

	switch {
	case opts.ForceTier == TierRegex:
		c.active = c.fallback
	case opts.ForceTier == TierLexical:
		c.active = lexical
	case modelStrategy != nil:
		c.active = modelStrategy
	case opts.ForceTier == TierModel:
		fmt.Fprintf(os.Stderr, "docsift: model tier unavailable, downgrading to lexical\n")
		c.active = lexical
	default:
		c.active = lexical
	}

	c.caps = []Capability{
		capabilityOf(TierModel, modelStrategy != nil, c.modelDetail()),
		{Tier: TierLexical, Available: true},
		{Tier: TierRegex, Available: true},
	}
	return c, nil
}

// probeModel attempts to load both model capabilities and build the model
// tier. Any failure downgrades silently to nil; the cause lands in caps.
func (c *Coordinator) probeModel(opts Options) *ModelStrategy {
	if opts.ForceTier != "" && opts.ForceTier != TierModel {
		return nil
	}
	if opts.Model.NERModelDir == "" && opts.Model.QAModelDir == "" {
		return nil
	}

	var (
		tagger   EntityTagger
		answerer SpanAnswerer
	)
	if t, err := model.NewEntityTagger(opts.Model); err == nil {
		tagger = t
		c.models = append(c.models, "ner:"+opts.Model.NERModelDir)
	} else {
		fmt.Fprintf(os.Stderr, "docsift: entity model not loaded: %v\n", err)
	}
	if a, err := model.NewSpanAnswerer(opts.Model); err == nil {
		answerer = a
		c.models = append(c.models, "qa:"+opts.Model.QAModelDir)
	} else {
		fmt.Fprintf(os.Stderr, "docsift: qa model not loaded: %v\n", err)
	}

	strat, err := NewModelStrategy(tagger, answerer)
	if err != nil {
		return nil
	}
	return strat
}

func (c *Coordinator) modelDetail() string {
	if len(c.models) == 0 {
		return "no model loaded"
	}
	return ""
}

func capabilityOf(tier Tier, available bool, detail string) Capability {
	out := Capability{Tier: tier, Available: available}
	if !available {
		out.Detail = detail
	}
	return out
}

// ActiveTier reports which tier extraction calls will run first.
func (c *Coordinator) ActiveTier() Tier { return c.active.Tier() }

// Extract runs the active tier and, if it errors, falls back exactly once to
// the regex floor. Only a failure of the floor itself is surfaced, wrapped
// in ErrFatalExtraction.
func (c *Coordinator) Extract(ctx context.Context, text string) (Result, error) {
	res, err := c.active.Extract(ctx, text)
	if err == nil {
		return res, nil
	}
	if c.active.Tier() == TierRegex {
		return nil, fmt.Errorf("%w: %v", ErrFatalExtraction, err)
	}

	fmt.Fprintf(os.Stderr, "docsift: %s tier failed (%v), falling back to regex\n", c.active.Tier(), err)
	res, err = c.fallback.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFatalExtraction, err)
	}
	return res, nil
}

// ExtractFields returns only the extracted values. A fatal extraction yields
// an empty map rather than an error, so callers always get a usable map.
func (c *Coordinator) ExtractFields(ctx context.Context, text string) map[FieldKind]string {
	res, err := c.Extract(ctx, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docsift: extraction failed: %v\n", err)
		return map[FieldKind]string{}
	}
	return res.Values()
}

// ConfidenceScores scores the caller's already-extracted fields. The active
// tier is re-run over the text: a field the re-run proposes takes the
// pipeline confidence, a field it omits falls back to the value-shape
// heuristic table. When extraction itself fails, every caller field gets the
// flat basic confidence instead; the caller always receives one score per
// field it holds.
func (c *Coordinator) ConfidenceScores(ctx context.Context, fields map[FieldKind]string, text string) map[FieldKind]float64 {
	out := make(map[FieldKind]float64, len(fields))

	res, err := c.Extract(ctx, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docsift: confidence scoring failed: %v\n", err)
		for kind := range fields {
			out[kind] = fallbackConfidence
		}
		return out
	}

	for kind, value := range fields {
		if rec, ok := res[kind]; ok {
			out[kind] = rec.Confidence
			continue
		}
		out[kind] = HeuristicConfidence(kind, value)
	}
	return out
}

// ModelInfo reports the resolved tier, per-tier availability, and the
// methods and model artifacts in play.
func (c *Coordinator) ModelInfo() Info {
	info := Info{
		ActiveTier:   c.active.Tier(),
		Capabilities: c.caps,
		Models:       c.models,
	}
	switch s := c.active.(type) {
	case *ModelStrategy:
		info.Methods = s.Methods()
	case *LexicalStrategy:
		info.Methods = []string{"pattern-scoring"}
	default:
		info.Methods = []string{"regex", "structural"}
	}
	return info
}
