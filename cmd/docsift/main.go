package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/extract"
	"github.com/docsift/docsift/internal/mcp"
	"github.com/docsift/docsift/internal/model"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "extract":
		if err := runExtract(os.Args[2:], false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "confidence":
		if err := runExtract(os.Args[2:], true); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "info":
		if err := runInfo(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := runMCP(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("docsift %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// cliFlags are the settings every subcommand shares.
type cliFlags struct {
	configPath string
	tier       string
	onnxLib    string
	nerDir     string
	qaDir      string
	paths      []string
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "--tier" || arg == "--onnx-lib" || arg == "--ner-dir" || arg == "--qa-dir":
			if i+1 >= len(args) {
				return f, fmt.Errorf("%s requires a value", arg)
			}
			i++
			switch arg {
			case "--config":
				f.configPath = args[i]
			case "--tier":
				f.tier = args[i]
			case "--onnx-lib":
				f.onnxLib = args[i]
			case "--ner-dir":
				f.nerDir = args[i]
			case "--qa-dir":
				f.qaDir = args[i]
			}
		case strings.HasPrefix(arg, "-") && arg != "-":
			return f, fmt.Errorf("unknown flag: %s", arg)
		default:
			f.paths = append(f.paths, arg)
		}
	}
	return f, nil
}

// newCoordinator resolves config and builds the pipeline for one invocation.
func newCoordinator(f cliFlags) (*extract.Coordinator, error) {
	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: f.configPath,
		CLITier:    f.tier,
		CLIOnnxLib: f.onnxLib,
		CLINERDir:  f.nerDir,
		CLIQADir:   f.qaDir,
	})
	if err != nil {
		return nil, err
	}

	return extract.NewCoordinator(extract.Options{
		Model: model.RuntimeConfig{
			SharedLibraryPath: resolved.OnnxLibrary.Value,
			NERModelDir:       resolved.NERModelDir.Value,
			QAModelDir:        resolved.QAModelDir.Value,
		},
		ForceTier: extract.Tier(resolved.Tier.Value),
	})
}

func runExtract(args []string, confidence bool) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.paths) != 1 {
		return fmt.Errorf("usage: docsift %s <file|-> [--tier model|lexical|regex]", commandName(confidence))
	}

	text, err := readDocument(f.paths[0])
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("document is empty")
	}

	coord, err := newCoordinator(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	fields := coord.ExtractFields(ctx, text)
	var out any
	if confidence {
		out = coord.ConfidenceScores(ctx, fields, text)
	} else {
		out = fields
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func commandName(confidence bool) string {
	if confidence {
		return "confidence"
	}
	return "extract"
}

func runInfo(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	coord, err := newCoordinator(f)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(coord.ModelInfo(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runMCP(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	coord, err := newCoordinator(f)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(mcp.ServerConfig{Coordinator: coord, Version: version})
	return mcp.ServeStdio(srv)
}

// readDocument reads the whole document, from stdin when path is "-".
func readDocument(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func printUsage() {
	fmt.Println(`docsift — invoice field extraction

Usage:
  docsift extract <file|->     Extract structured fields as JSON
  docsift confidence <file|->  Score per-field extraction confidence
  docsift info                 Show the active tier and capabilities
  docsift mcp                  Run as an MCP server over stdio
  docsift version              Print version

Flags:
  --config <path>   Config file (default ~/.docsift/config.yaml)
  --tier <name>     Pin the extraction tier: model, lexical, regex
  --onnx-lib <path> Path to the onnxruntime shared library
  --ner-dir <path>  Directory holding the NER model and tokenizer
  --qa-dir <path>   Directory holding the QA model and tokenizer`)
}
