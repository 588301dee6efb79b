// Command ilopt drives the optimizer pipeline end to end over a JSON-
// encoded IL program: resolve scopes, run the requested passes, then emit
// either the rewritten tree as JSON or lowered LLVM IR text.
//
// Grounded on cmd/alas-compile/main.go's flag/stdin/stdout handling
// (flag.StringVar, read from stdin if no -file, write to -o or stdout),
// replacing the teacher's six single-purpose drivers
// (alas-compile/alas-run/alas-validate/alas-compile-multi/alas-plugin/
// alas-stdlib) with one driver parameterized by -passes and -emit.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/backend"
	"github.com/ilopt-lang/ilopt/internal/optimizer"
	"github.com/ilopt-lang/ilopt/internal/primitives"
	"github.com/ilopt-lang/ilopt/internal/resolve"
)

func main() {
	var input string
	var output string
	var passes string
	var emit string
	flag.StringVar(&input, "file", "", "JSON IL program to optimize (reads from stdin if not provided)")
	flag.StringVar(&output, "o", "", "Output file (default: stdout)")
	flag.StringVar(&passes, "passes", "disambiguate,functional-inline,full-inline",
		"comma-separated passes to run, in order: disambiguate, functional-inline, full-inline")
	flag.StringVar(&emit, "emit", "json", "Output format: json (rewritten tree) or llvm (LLVM IR text)")
	flag.Parse()

	if err := run(input, output, passes, emit); err != nil {
		fmt.Fprintf(os.Stderr, "ilopt: %v\n", err)
		os.Exit(1)
	}
}

func run(input, output, passes, emit string) error {
	data, err := readInput(input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var root ast.Block
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	tree := &root
	for _, pass := range strings.Split(passes, ",") {
		switch strings.TrimSpace(pass) {
		case "":
			continue
		case "disambiguate":
			info, err := resolve.Resolve(tree)
			if err != nil {
				return fmt.Errorf("resolve: %w", err)
			}
			tree, err = optimizer.Disambiguate(tree, info)
			if err != nil {
				return fmt.Errorf("disambiguate: %w", err)
			}
		case "functional-inline":
			if err := optimizer.InlineFunctional(tree, primitives.Default.Movable); err != nil {
				return fmt.Errorf("functional-inline: %w", err)
			}
		case "full-inline":
			var err error
			tree, err = optimizer.FullInline(tree)
			if err != nil {
				return fmt.Errorf("full-inline: %w", err)
			}
		default:
			return fmt.Errorf("unknown pass %q", pass)
		}
	}

	var out []byte
	switch emit {
	case "json":
		out, err = json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		out = append(out, '\n')

	case "llvm":
		module, err := backend.New().Lower(tree)
		if err != nil {
			return fmt.Errorf("lowering to LLVM IR: %w", err)
		}
		out = []byte(module.String())

	default:
		return fmt.Errorf("unsupported -emit %q", emit)
	}

	return writeOutput(output, out)
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
