// Package model wraps the local ONNX runtime behind the model extraction
// tier.
//
// Availability is probed once per process: if the onnxruntime shared library
// cannot be loaded the probe fails, the taggers are never constructed, and
// the extraction pipeline downgrades to the lexical tier. Loaded sessions
// are treated as read-only shared resources afterwards and are never
// reconstructed.
package model

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// RuntimeConfig points at the ONNX runtime and model artifacts on disk.
// Each model directory holds a model.onnx plus the tokenizer.json it was
// exported with.
type RuntimeConfig struct {
	SharedLibraryPath string // explicit path to the onnxruntime library, optional
	NERModelDir       string
	QAModelDir        string
}

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// ensureRuntime initializes the process-wide ONNX environment at most once.
// Every later call observes the first call's outcome.
func ensureRuntime(libPath string) error {
	runtimeOnce.Do(func() {
		if libPath == "" {
			libPath = os.Getenv("DOCSIFT_ONNX_LIBRARY")
		}
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// loadTokenizer reads the tokenizer.json exported alongside a model.
func loadTokenizer(modelDir string) (*tokenizer.Tokenizer, error) {
	path := filepath.Join(modelDir, "tokenizer.json")
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", path, err)
	}
	return tk, nil
}

// softmaxRow converts one row of logits to probabilities.
func softmaxRow(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// softmaxRows splits a flat logits buffer into rows of width classes and
// softmaxes each row.
func softmaxRows(logits []float32, classes int) [][]float64 {
	if classes <= 0 || len(logits) == 0 {
		return nil
	}
	rows := len(logits) / classes
	out := make([][]float64, 0, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, classes)
		for c := 0; c < classes; c++ {
			row[c] = float64(logits[r*classes+c])
		}
		out = append(out, softmaxRow(row))
	}
	return out
}

// int64Tensor builds a (1, n) int64 input tensor from token-level ints.
func int64Tensor(values []int) (*ort.Tensor[int64], error) {
	data := make([]int64, len(values))
	for i, v := range values {
		data[i] = int64(v)
	}
	return ort.NewTensor(ort.NewShape(1, int64(len(values))), data)
}
