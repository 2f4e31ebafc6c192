// Package config resolves runtime settings from a YAML file, environment
// variables, and CLI flags, recording where each value came from. Later
// sources win: file, then environment, then flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath string
	CLITier    string
	CLIOnnxLib string
	CLINERDir  string
	CLIQADir   string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	Tier ResolvedValue `json:"tier"`

	OnnxLibrary ResolvedValue `json:"onnx_library"`
	NERModelDir ResolvedValue `json:"ner_model_dir"`
	QAModelDir  ResolvedValue `json:"qa_model_dir"`
}

type fileConfig struct {
	Tier  string `yaml:"tier"`
	Model struct {
		SharedLibrary string `yaml:"shared_library"`
		NERDir        string `yaml:"ner_dir"`
		QADir         string `yaml:"qa_dir"`
	} `yaml:"model"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".docsift", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.Tier, cfg.Tier, SourceConfig, path)
		apply(&out.OnnxLibrary, cfg.Model.SharedLibrary, SourceConfig, path)
		apply(&out.NERModelDir, cfg.Model.NERDir, SourceConfig, path)
		apply(&out.QAModelDir, cfg.Model.QADir, SourceConfig, path)
	}

	applyEnv(&out.Tier, "DOCSIFT_TIER")
	applyEnv(&out.OnnxLibrary, "DOCSIFT_ONNX_LIBRARY")
	applyEnv(&out.NERModelDir, "DOCSIFT_NER_DIR")
	applyEnv(&out.QAModelDir, "DOCSIFT_QA_DIR")

	apply(&out.Tier, opts.CLITier, SourceCLI, "--tier")
	apply(&out.OnnxLibrary, opts.CLIOnnxLib, SourceCLI, "--onnx-lib")
	apply(&out.NERModelDir, opts.CLINERDir, SourceCLI, "--ner-dir")
	apply(&out.QAModelDir, opts.CLIQADir, SourceCLI, "--qa-dir")

	for _, v := range []*ResolvedValue{&out.OnnxLibrary, &out.NERModelDir, &out.QAModelDir} {
		if v.Value != "" {
			v.Value = expandUserPath(v.Value)
		}
	}

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
