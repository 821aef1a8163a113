package lexer

import "testing"

func TestScanSingleEOF(t *testing.T) {
	sources := []string{
		"",
		"var x = 1;",
		"// only a comment",
		"/* block\ncomment */",
		"var s = \"unterminated",
		"var q = @;",
	}
	for _, src := range sources {
		tokens := NewScanner(src).ScanTokens()
		eofs := 0
		for _, tok := range tokens {
			if tok.Type == TokenEOF {
				eofs++
			}
		}
		if eofs != 1 {
			t.Errorf("source %q: expected exactly one EOF token, got %d", src, eofs)
		}
		if tokens[len(tokens)-1].Type != TokenEOF {
			t.Errorf("source %q: last token is %s, want EOF", src, tokens[len(tokens)-1].Type)
		}
	}
}

func TestScanLinesNonDecreasing(t *testing.T) {
	src := "var a = 1;\nvar s = \"two\nlines\";\n/* a\nblock */ var b = 2;\nvar c = 3;"
	tokens := NewScanner(src).ScanTokens()
	last := 0
	for _, tok := range tokens {
		if tok.Line < last {
			t.Fatalf("token %s on line %d after line %d", tok, tok.Line, last)
		}
		last = tok.Line
	}
	if tokens[len(tokens)-1].Line != 5 {
		t.Errorf("EOF line = %d, want 5", tokens[len(tokens)-1].Line)
	}
}

func TestScanOperators(t *testing.T) {
	tests := []struct {
		source string
		want   []TokenType
	}{
		{"= == =>", []TokenType{TokenEqual, TokenDoubleEqual, TokenArrow, TokenEOF}},
		{"! != < <= > >=", []TokenType{TokenNot, TokenNotEqual, TokenLT, TokenLE, TokenGT, TokenGE, TokenEOF}},
		{"( ) { } [ ] , . ; :", []TokenType{TokenLParen, TokenRParen, TokenLBrace, TokenRBrace,
			TokenLBracket, TokenRBracket, TokenComma, TokenDot, TokenSemicolon, TokenColon, TokenEOF}},
	}
	for _, tt := range tests {
		tokens := NewScanner(tt.source).ScanTokens()
		if len(tokens) != len(tt.want) {
			t.Errorf("source %q: got %d tokens, want %d", tt.source, len(tokens), len(tt.want))
			continue
		}
		for i, typ := range tt.want {
			if tokens[i].Type != typ {
				t.Errorf("source %q token %d: got %s, want %s", tt.source, i, tokens[i].Type, typ)
			}
		}
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	tokens := NewScanner("var component state while foo this").ScanTokens()
	want := []TokenType{TokenVar, TokenComponent, TokenIdent, TokenWhile, TokenIdent, TokenThis, TokenEOF}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, typ)
		}
	}
}

func TestScanNumberLiterals(t *testing.T) {
	tokens := NewScanner("10 2.5").ScanTokens()
	if got := tokens[0].Literal.(float64); got != 10 {
		t.Errorf("literal = %v, want 10", got)
	}
	if got := tokens[1].Literal.(float64); got != 2.5 {
		t.Errorf("literal = %v, want 2.5", got)
	}
}

func TestScanStringQuotes(t *testing.T) {
	tokens := NewScanner(`"double" 'single'`).ScanTokens()
	if tokens[0].Literal != "double" || tokens[1].Literal != "single" {
		t.Errorf("string literals = %v, %v", tokens[0].Literal, tokens[1].Literal)
	}
}

func TestScanErrorsKeepScanning(t *testing.T) {
	s := NewScanner("var @ x = 1;")
	tokens := s.ScanTokens()
	if len(s.Errors) != 1 {
		t.Fatalf("expected 1 lex error, got %d", len(s.Errors))
	}
	// The bad character is dropped; the rest of the statement still tokenizes.
	want := []TokenType{TokenVar, TokenIdent, TokenEqual, TokenNumber, TokenSemicolon, TokenEOF}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, typ)
		}
	}
}
