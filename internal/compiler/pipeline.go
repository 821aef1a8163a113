package compiler

import (
	"orion/internal/analyzer"
	"orion/internal/errors"
	"orion/internal/lexer"
	"orion/internal/parser"
	"orion/internal/vm"
)

// CompileSource runs the full front end over a source string: scan, parse,
// type-check, then compile. Errors accumulate across phases, but a failing
// phase gates the ones after it so later passes never see broken input.
func CompileSource(source string) (*vm.CompiledFunction, []*errors.OrionError) {
	scanner := lexer.NewScanner(source)
	tokens := scanner.ScanTokens()
	if len(scanner.Errors) > 0 {
		return nil, scanner.Errors
	}

	p := parser.NewParser(tokens)
	statements := p.Parse()
	if len(p.Errors) > 0 {
		return nil, p.Errors
	}

	a := analyzer.New()
	a.Analyze(statements)
	if a.Failed() {
		return nil, a.Errors
	}

	return Compile(statements)
}
