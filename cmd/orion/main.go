// cmd/orion/main.go
package main

import (
	"bufio"
	"fmt"
	"os"

	"orion/internal/compiler"
	"orion/internal/lexer"
	"orion/internal/parser"
	"orion/internal/vm"
)

const version = "0.1.0"

func main() {
	var path string
	dumpTokens := false
	dumpAST := false

	for _, arg := range os.Args[1:] {
		switch arg {
		case "--help", "-h", "help":
			showUsage()
			return
		case "--version", "-v", "version":
			fmt.Printf("orion %s\n", version)
			return
		case "--tokens":
			dumpTokens = true
		case "--ast":
			dumpAST = true
		default:
			if path != "" {
				showUsage()
				os.Exit(64)
			}
			path = arg
		}
	}

	if path == "" {
		runPrompt()
		return
	}
	runFile(path, dumpTokens, dumpAST)
}

func showUsage() {
	fmt.Println("Usage: orion [options] [script]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --tokens     Print the token stream and exit")
	fmt.Println("  --ast        Print the parsed AST and exit")
	fmt.Println("  --version    Print the version and exit")
	fmt.Println()
	fmt.Println("With no script, an interactive prompt starts.")
}

func runFile(path string, dumpTokens, dumpAST bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not read '%s': %v\n", path, err)
		os.Exit(1)
	}
	source := string(data)

	if dumpTokens || dumpAST {
		dump(source, dumpTokens, dumpAST)
		return
	}

	fn, errs := compiler.CompileSource(source)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(65)
	}

	machine := vm.NewVM()
	defer machine.Close()
	status, _ := machine.Interpret(fn)
	if status == vm.InterpretRuntimeError {
		os.Exit(70)
	}
}

// dump prints the front-end view of a source file without running it.
func dump(source string, dumpTokens, dumpAST bool) {
	scanner := lexer.NewScanner(source)
	tokens := scanner.ScanTokens()
	for _, e := range scanner.Errors {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	if dumpTokens {
		for _, tok := range tokens {
			fmt.Println(tok)
		}
	}
	if dumpAST {
		p := parser.NewParser(tokens)
		statements := p.Parse()
		for _, e := range p.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		fmt.Print(parser.PrintProgram(statements))
	}
	if len(scanner.Errors) > 0 {
		os.Exit(65)
	}
}

// runPrompt keeps one VM alive across lines so definitions accumulate in
// its global table.
func runPrompt() {
	fmt.Printf("Orion %s REPL (Ctrl+D to exit)\n", version)
	machine := vm.NewVM()
	defer machine.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		fn, errs := compiler.CompileSource(line)
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			continue
		}
		machine.Interpret(fn)
	}
}
