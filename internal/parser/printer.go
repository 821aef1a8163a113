// internal/parser/printer.go
package parser

import (
	"fmt"
	"strings"
)

// PrintProgram renders statements in a Lisp-like form, one per line. The
// output is meant for debugging the parser and for golden assertions in
// tests, not for round-tripping source.
func PrintProgram(statements []Stmt) string {
	lines := make([]string, 0, len(statements))
	for _, stmt := range statements {
		lines = append(lines, PrintStmt(stmt))
	}
	return strings.Join(lines, "\n")
}

func PrintStmt(stmt Stmt) string {
	switch s := stmt.(type) {
	case *Expression:
		return parenthesize("expr_stmt", s.Expr)
	case *Var:
		if s.Init != nil {
			return parenthesize("var "+s.Name.Lexeme, s.Init)
		}
		return fmt.Sprintf("(var %s)", s.Name.Lexeme)
	case *Block:
		lines := []string{"(block"}
		for _, inner := range s.Statements {
			lines = append(lines, "  "+PrintStmt(inner))
		}
		lines = append(lines, ")")
		return strings.Join(lines, "\n")
	case *If:
		out := "(if " + PrintExpr(s.Condition) + " " + PrintStmt(s.ThenBranch)
		if s.ElseBranch != nil {
			out += " else " + PrintStmt(s.ElseBranch)
		}
		return out + ")"
	case *While:
		return "(while " + PrintExpr(s.Condition) + " " + PrintStmt(s.Body) + ")"
	case *Function:
		names := make([]string, len(s.Params))
		for i, param := range s.Params {
			names[i] = param.Name.Lexeme
		}
		lines := []string{fmt.Sprintf("(fun %s(%s) {", s.Name.Lexeme, strings.Join(names, ", "))}
		for _, inner := range s.Body {
			lines = append(lines, "  "+PrintStmt(inner))
		}
		lines = append(lines, "})")
		return strings.Join(lines, "\n")
	case *Return:
		if s.Value != nil {
			return parenthesize("return", s.Value)
		}
		return "(return)"
	case *Class:
		lines := []string{fmt.Sprintf("(class %s {", s.Name.Lexeme)}
		for _, method := range s.Methods {
			lines = append(lines, "  "+PrintStmt(method))
		}
		lines = append(lines, "})")
		return strings.Join(lines, "\n")
	case *Component:
		lines := []string{fmt.Sprintf("(component %s {", s.Name.Lexeme)}
		for _, inner := range s.Body {
			lines = append(lines, "  "+PrintStmt(inner))
		}
		lines = append(lines, "})")
		return strings.Join(lines, "\n")
	case *StateBlock:
		lines := []string{fmt.Sprintf("  (state %s {", s.Name.Lexeme)}
		for _, inner := range s.Body {
			lines = append(lines, "    "+PrintStmt(inner))
		}
		lines = append(lines, "  })")
		return strings.Join(lines, "\n")
	case *StyleProp:
		values := make([]string, len(s.Values))
		for i, tok := range s.Values {
			values[i] = tok.Lexeme
		}
		return fmt.Sprintf("(style %s: %s)", s.Name.Lexeme, strings.Join(values, " "))
	case *Module:
		return fmt.Sprintf("(module %s)", s.Name.Lexeme)
	case *Use:
		if s.HasAlias {
			return fmt.Sprintf("(use %s as %s)", s.Name.Lexeme, s.Alias.Lexeme)
		}
		return fmt.Sprintf("(use %s)", s.Name.Lexeme)
	}
	return "(?)"
}

func PrintExpr(expr Expr) string {
	switch e := expr.(type) {
	case *Binary:
		return parenthesize(e.Operator.Lexeme, e.Left, e.Right)
	case *Grouping:
		return parenthesize("group", e.Expression)
	case *Literal:
		return formatLiteral(e.Value)
	case *Unary:
		return parenthesize(e.Operator.Lexeme, e.Right)
	case *Variable:
		return e.Name.Lexeme
	case *Assign:
		return parenthesize("assign "+e.Name.Lexeme, e.Value)
	case *Logical:
		return parenthesize(e.Operator.Lexeme, e.Left, e.Right)
	case *Call:
		parts := append([]Expr{e.Callee}, e.Arguments...)
		return parenthesize("call", parts...)
	case *Get:
		return parenthesize(". "+e.Name.Lexeme, e.Object)
	case *Set:
		return parenthesize("= "+e.Name.Lexeme, e.Object, e.Value)
	case *This:
		return "this"
	case *ListLiteral:
		return parenthesize("list", e.Elements...)
	case *DictLiteral:
		parts := make([]Expr, 0, len(e.Keys)*2)
		for i := range e.Keys {
			parts = append(parts, e.Keys[i], e.Values[i])
		}
		return parenthesize("dict", parts...)
	case *GetSubscript:
		return parenthesize("[]", e.Object, e.Index)
	case *SetSubscript:
		return parenthesize("=[]", e.Object, e.Index, e.Value)
	case *GenericType:
		if len(e.Params) == 0 {
			return e.Name.Lexeme
		}
		params := make([]string, len(e.Params))
		for i, param := range e.Params {
			params[i] = PrintExpr(param)
		}
		return fmt.Sprintf("%s[%s]", e.Name.Lexeme, strings.Join(params, ", "))
	}
	return "(?)"
}

func parenthesize(name string, parts ...Expr) string {
	var sb strings.Builder
	sb.WriteString("(" + name)
	for _, part := range parts {
		sb.WriteString(" " + PrintExpr(part))
	}
	sb.WriteString(")")
	return sb.String()
}

func formatLiteral(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case string:
		return "\"" + v + "\""
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("%v", value)
}
