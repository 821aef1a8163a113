package lexer

import "fmt"

type TokenType string

const (
	// Single-character symbols
	TokenLParen    TokenType = "("
	TokenRParen    TokenType = ")"
	TokenLBrace    TokenType = "{"
	TokenRBrace    TokenType = "}"
	TokenLBracket  TokenType = "["
	TokenRBracket  TokenType = "]"
	TokenComma     TokenType = ","
	TokenDot       TokenType = "."
	TokenMinus     TokenType = "-"
	TokenPlus      TokenType = "+"
	TokenSemicolon TokenType = ";"
	TokenSlash     TokenType = "/"
	TokenStar      TokenType = "*"
	TokenColon     TokenType = ":"
	TokenHash      TokenType = "#"

	// One or two character symbols
	TokenNot         TokenType = "!"
	TokenNotEqual    TokenType = "!="
	TokenEqual       TokenType = "="
	TokenDoubleEqual TokenType = "=="
	TokenGT          TokenType = ">"
	TokenGE          TokenType = ">="
	TokenLT          TokenType = "<"
	TokenLE          TokenType = "<="
	TokenArrow       TokenType = "=>"

	// Literals
	TokenIdent  TokenType = "IDENT"
	TokenString TokenType = "STRING"
	TokenNumber TokenType = "NUMBER"

	// Keywords
	TokenAnd         TokenType = "AND"
	TokenAs          TokenType = "AS"
	TokenBool        TokenType = "BOOL"
	TokenClass       TokenType = "CLASS"
	TokenComponent   TokenType = "COMPONENT"
	TokenConst       TokenType = "CONST"
	TokenElse        TokenType = "ELSE"
	TokenFalse       TokenType = "FALSE"
	TokenFloat       TokenType = "FLOAT"
	TokenFor         TokenType = "FOR"
	TokenFunction    TokenType = "FUNCTION"
	TokenIf          TokenType = "IF"
	TokenImport      TokenType = "IMPORT"
	TokenInt         TokenType = "INT"
	TokenLet         TokenType = "LET"
	TokenLicense     TokenType = "LICENSE"
	TokenModule      TokenType = "MODULE"
	TokenOr          TokenType = "OR"
	TokenPermissions TokenType = "PERMISSIONS"
	TokenPrivate     TokenType = "PRIVATE"
	TokenPublic      TokenType = "PUBLIC"
	TokenReturn      TokenType = "RETURN"
	TokenStringT     TokenType = "STRING_T"
	TokenSuper       TokenType = "SUPER"
	TokenSwitch      TokenType = "SWITCH"
	TokenThis        TokenType = "THIS"
	TokenTrue        TokenType = "TRUE"
	TokenUse         TokenType = "USE"
	TokenVar         TokenType = "VAR"
	TokenVoid        TokenType = "VOID"
	TokenWhile       TokenType = "WHILE"

	TokenEOF TokenType = "EOF"
)

var keywords = map[string]TokenType{
	"and":         TokenAnd,
	"as":          TokenAs,
	"bool":        TokenBool,
	"class":       TokenClass,
	"component":   TokenComponent,
	"const":       TokenConst,
	"else":        TokenElse,
	"false":       TokenFalse,
	"float":       TokenFloat,
	"for":         TokenFor,
	"function":    TokenFunction,
	"if":          TokenIf,
	"import":      TokenImport,
	"int":         TokenInt,
	"let":         TokenLet,
	"license":     TokenLicense,
	"module":      TokenModule,
	"or":          TokenOr,
	"permissions": TokenPermissions,
	"private":     TokenPrivate,
	"public":      TokenPublic,
	"return":      TokenReturn,
	"string":      TokenStringT,
	"super":       TokenSuper,
	"switch":      TokenSwitch,
	"this":        TokenThis,
	"true":        TokenTrue,
	"use":         TokenUse,
	"var":         TokenVar,
	"void":        TokenVoid,
	"while":       TokenWhile,
}

// Token carries the lexeme text, the decoded literal value for strings and
// numbers, and the source line it started on.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s' line %d", t.Type, t.Lexeme, t.Line)
}
