package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sugarme/tokenizer"
	ort "github.com/yalue/onnxruntime_go"
)

// maxAnswerTokens caps the span length the QA pass will accept.
const maxAnswerTokens = 30

// SpanAnswerer runs an extractive question-answering model: given a question
// and a context passage, it returns the most probable answer span and its
// score, the product of the start and end probabilities.
type SpanAnswerer struct {
	session *ort.DynamicAdvancedSession
	tk      *tokenizer.Tokenizer
}

// NewSpanAnswerer loads the QA session. Like the tagger, a failure is an
// availability signal that downgrades the pipeline.
func NewSpanAnswerer(cfg RuntimeConfig) (*SpanAnswerer, error) {
	if cfg.QAModelDir == "" {
		return nil, fmt.Errorf("qa model dir not configured")
	}
	if err := ensureRuntime(cfg.SharedLibraryPath); err != nil {
		return nil, fmt.Errorf("onnx runtime: %w", err)
	}

	tk, err := loadTokenizer(cfg.QAModelDir)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(
		filepath.Join(cfg.QAModelDir, "model.onnx"),
		[]string{"input_ids", "attention_mask"},
		[]string{"start_logits", "end_logits"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("loading qa session: %w", err)
	}

	return &SpanAnswerer{session: session, tk: tk}, nil
}

// Close releases the underlying session.
func (a *SpanAnswerer) Close() {
	if a.session != nil {
		a.session.Destroy()
	}
}

// Answer extracts the best answer span for the question from the context.
// An empty answer with score 0 means the model found nothing usable.
func (a *SpanAnswerer) Answer(question, context string) (string, float64, error) {
	en, err := a.tk.EncodePair(question, context, true)
	if err != nil {
		return "", 0, fmt.Errorf("encoding pair: %w", err)
	}
	n := len(en.Ids)
	if n == 0 {
		return "", 0, nil
	}

	idsT, err := int64Tensor(en.Ids)
	if err != nil {
		return "", 0, fmt.Errorf("building input tensor: %w", err)
	}
	defer idsT.Destroy()

	maskT, err := int64Tensor(en.AttentionMask)
	if err != nil {
		return "", 0, fmt.Errorf("building mask tensor: %w", err)
	}
	defer maskT.Destroy()

	outputs := []ort.Value{nil, nil}
	if err := a.session.Run([]ort.Value{idsT, maskT}, outputs); err != nil {
		return "", 0, fmt.Errorf("running qa session: %w", err)
	}
	startT, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return "", 0, fmt.Errorf("unexpected qa output type %T", outputs[0])
	}
	defer startT.Destroy()
	endT, ok := outputs[1].(*ort.Tensor[float32])
	if !ok {
		return "", 0, fmt.Errorf("unexpected qa output type %T", outputs[1])
	}
	defer endT.Destroy()

	startProbs := softmaxRow(toFloat64(startT.GetData(), n))
	endProbs := softmaxRow(toFloat64(endT.GetData(), n))

	// Only spans that lie fully inside the context segment are answers.
	allowed := make([]bool, n)
	for i := 0; i < n; i++ {
		inContext := i < len(en.TypeIds) && en.TypeIds[i] == 1
		special := i < len(en.SpecialTokenMask) && en.SpecialTokenMask[i] == 1
		allowed[i] = inContext && !special
	}

	start, end, score := bestSpan(startProbs, endProbs, allowed, maxAnswerTokens)
	if score <= 0 {
		return "", 0, nil
	}

	answer := spanText(en.Tokens, en.Offsets, context, start, end)
	return answer, score, nil
}

// bestSpan picks the (start, end) pair maximizing start*end probability
// subject to start <= end, span length <= maxLen, and both endpoints being
// allowed tokens. Returns score 0 when no valid span exists.
func bestSpan(startProbs, endProbs []float64, allowed []bool, maxLen int) (int, int, float64) {
	bestStart, bestEnd, bestScore := -1, -1, 0.0
	for i := range startProbs {
		if !allowed[i] {
			continue
		}
		limit := i + maxLen
		if limit >= len(endProbs) {
			limit = len(endProbs) - 1
		}
		for j := i; j <= limit; j++ {
			if !allowed[j] {
				continue
			}
			if s := startProbs[i] * endProbs[j]; s > bestScore {
				bestStart, bestEnd, bestScore = i, j, s
			}
		}
	}
	return bestStart, bestEnd, bestScore
}

// spanText recovers the answer text. Character offsets (relative to the
// context sequence) are preferred; token joining is the fallback when the
// tokenizer did not carry offsets through.
func spanText(tokens []string, offsets [][]int, context string, start, end int) string {
	if start >= 0 && end < len(offsets) &&
		len(offsets[start]) == 2 && len(offsets[end]) == 2 {
		from, to := offsets[start][0], offsets[end][1]
		if from >= 0 && to <= len(context) && from < to {
			return strings.TrimSpace(context[from:to])
		}
	}
	if start >= 0 && end < len(tokens) {
		return joinWordpieces(tokens[start : end+1])
	}
	return ""
}

func toFloat64(data []float32, n int) []float64 {
	if len(data) < n {
		n = len(data)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(data[i])
	}
	return out
}
