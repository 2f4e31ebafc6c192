package model

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sugarme/tokenizer"
	ort "github.com/yalue/onnxruntime_go"
)

// Entity is one aggregated span from the token-classification pass.
type Entity struct {
	Text  string
	Label string // entity group, e.g. ORG, MONEY, DATE, CARDINAL
	Score float64
}

// defaultNERLabels is the CoNLL-2003 BIO tag set most token-classification
// exports use. A labels.txt in the model directory overrides it, which is
// how finance-tuned models expose MONEY/DATE/CARDINAL categories.
var defaultNERLabels = []string{
	"O",
	"B-MISC", "I-MISC",
	"B-PER", "I-PER",
	"B-ORG", "I-ORG",
	"B-LOC", "I-LOC",
}

// EntityTagger runs a token-classification model and aggregates BIO tags
// into labeled spans. Safe for concurrent use: the session is read-only
// after construction and each call allocates its own tensors.
type EntityTagger struct {
	session *ort.DynamicAdvancedSession
	tk      *tokenizer.Tokenizer
	labels  []string
}

// NewEntityTagger loads the NER session. A failure here is an availability
// signal, not a fatal error: the caller downgrades to a lower tier.
func NewEntityTagger(cfg RuntimeConfig) (*EntityTagger, error) {
	if cfg.NERModelDir == "" {
		return nil, fmt.Errorf("ner model dir not configured")
	}
	if err := ensureRuntime(cfg.SharedLibraryPath); err != nil {
		return nil, fmt.Errorf("onnx runtime: %w", err)
	}

	tk, err := loadTokenizer(cfg.NERModelDir)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(
		filepath.Join(cfg.NERModelDir, "model.onnx"),
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"logits"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("loading ner session: %w", err)
	}

	return &EntityTagger{
		session: session,
		tk:      tk,
		labels:  loadLabels(cfg.NERModelDir),
	}, nil
}

// Close releases the underlying session.
func (t *EntityTagger) Close() {
	if t.session != nil {
		t.session.Destroy()
	}
}

// Tag recognizes entities in one chunk of text. Returns an empty slice when
// nothing is found.
func (t *EntityTagger) Tag(text string) ([]Entity, error) {
	en, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("encoding text: %w", err)
	}
	n := len(en.Ids)
	if n == 0 {
		return nil, nil
	}

	idsT, err := int64Tensor(en.Ids)
	if err != nil {
		return nil, fmt.Errorf("building input tensor: %w", err)
	}
	defer idsT.Destroy()

	maskT, err := int64Tensor(en.AttentionMask)
	if err != nil {
		return nil, fmt.Errorf("building mask tensor: %w", err)
	}
	defer maskT.Destroy()

	typeT, err := int64Tensor(en.TypeIds)
	if err != nil {
		return nil, fmt.Errorf("building type tensor: %w", err)
	}
	defer typeT.Destroy()

	outputs := []ort.Value{nil}
	if err := t.session.Run([]ort.Value{idsT, maskT, typeT}, outputs); err != nil {
		return nil, fmt.Errorf("running ner session: %w", err)
	}
	logitsT, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected ner output type %T", outputs[0])
	}
	defer logitsT.Destroy()

	probs := softmaxRows(logitsT.GetData(), len(t.labels))
	return aggregateEntities(en.Tokens, en.SpecialTokenMask, probs, t.labels), nil
}

// aggregateEntities folds per-token BIO predictions into contiguous spans.
// WordPiece continuations ("##") are joined without a space; a span's score
// is the mean probability of its tokens.
func aggregateEntities(tokens []string, specialMask []int, probs [][]float64, labels []string) []Entity {
	var (
		entities []Entity
		group    string
		parts    []string
		scoreSum float64
		count    int
	)

	flush := func() {
		if group == "" || count == 0 {
			return
		}
		entities = append(entities, Entity{
			Text:  joinWordpieces(parts),
			Label: group,
			Score: scoreSum / float64(count),
		})
		group, parts, scoreSum, count = "", nil, 0, 0
	}

	for i, tok := range tokens {
		if i >= len(probs) {
			break
		}
		if i < len(specialMask) && specialMask[i] == 1 {
			flush()
			continue
		}

		best, bestProb := 0, 0.0
		for c, p := range probs[i] {
			if p > bestProb {
				best, bestProb = c, p
			}
		}
		if best >= len(labels) {
			flush()
			continue
		}
		label := labels[best]

		prefix, name := splitBIO(label)
		switch {
		case name == "":
			flush()
		case prefix == "B" || name != group:
			flush()
			group = name
			parts = append(parts, tok)
			scoreSum, count = bestProb, 1
		default: // I- continuation of the open group
			parts = append(parts, tok)
			scoreSum += bestProb
			count++
		}
	}
	flush()
	return entities
}

// splitBIO splits "B-ORG" into ("B", "ORG"); "O" yields ("", "").
func splitBIO(label string) (prefix, name string) {
	if label == "O" || label == "" {
		return "", ""
	}
	if len(label) > 2 && (label[0] == 'B' || label[0] == 'I') && label[1] == '-' {
		return string(label[0]), label[2:]
	}
	// Some exports emit plain group names without BIO prefixes.
	return "B", label
}

func joinWordpieces(parts []string) string {
	var b strings.Builder
	for i, p := range parts {
		if cont, ok := strings.CutPrefix(p, "##"); ok {
			b.WriteString(cont)
			continue
		}
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(p)
	}
	return b.String()
}

// loadLabels reads one label per line from labels.txt, falling back to the
// CoNLL default set.
func loadLabels(modelDir string) []string {
	f, err := os.Open(filepath.Join(modelDir, "labels.txt"))
	if err != nil {
		return defaultNERLabels
	}
	defer f.Close()

	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			labels = append(labels, line)
		}
	}
	if len(labels) == 0 {
		return defaultNERLabels
	}
	return labels
}
