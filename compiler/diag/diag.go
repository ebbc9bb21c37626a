package diag

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/loc"

	"github.com/slowlang/ix/compiler/token"
	"github.com/slowlang/ix/compiler/tp"
)

type (
	// Diagnostic is implemented by every positioned compiler error.
	Diagnostic interface {
		error

		Location() token.Token
		Message() string
	}

	LexError struct {
		Line int
		Col  int
		Text string
		Msg  string
	}

	ParseError struct {
		Tok token.Token
		Msg string
	}

	CompileError struct {
		Tok token.Token
		Msg string

		// PC is where the error was raised in the compiler.
		PC loc.PC
	}

	UnresolvedCallError struct {
		Tok  token.Token
		Name string
		Args []tp.Type

		PC loc.PC
	}

	UnresolvedNameError struct {
		Tok  token.Token
		Name string

		PC loc.PC
	}
)

func NewLexError(line, col int, text, f string, args ...any) *LexError {
	return &LexError{
		Line: line,
		Col:  col,
		Text: text,
		Msg:  fmt.Sprintf(f, args...),
	}
}

func NewParseError(tok token.Token, f string, args ...any) *ParseError {
	return &ParseError{
		Tok: tok,
		Msg: fmt.Sprintf(f, args...),
	}
}

// Compile creates CompileError remembering the caller.
func Compile(tok token.Token, f string, args ...any) *CompileError {
	return &CompileError{
		Tok: tok,
		Msg: fmt.Sprintf(f, args...),
		PC:  loc.Caller(1),
	}
}

func UnresolvedCall(tok token.Token, name string, args []tp.Type) *UnresolvedCallError {
	return &UnresolvedCallError{
		Tok:  tok,
		Name: name,
		Args: args,
		PC:   loc.Caller(1),
	}
}

func UnresolvedName(tok token.Token, name string) *UnresolvedNameError {
	return &UnresolvedNameError{
		Tok:  tok,
		Name: name,
		PC:   loc.Caller(1),
	}
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *LexError) Location() token.Token {
	return token.Token{Kind: token.Invalid, Text: e.Text, Line: e.Line, Col: e.Col}
}

func (e *LexError) Message() string { return e.Msg }

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Tok.Line, e.Tok.Col, e.Msg)
}

func (e *ParseError) Location() token.Token { return e.Tok }
func (e *ParseError) Message() string       { return e.Msg }

func (e *CompileError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Tok.Line, e.Tok.Col, e.Msg)
}

func (e *CompileError) Location() token.Token { return e.Tok }
func (e *CompileError) Message() string       { return e.Msg }

func (e *UnresolvedCallError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Tok.Line, e.Tok.Col, e.Message())
}

func (e *UnresolvedCallError) Location() token.Token { return e.Tok }

func (e *UnresolvedCallError) Message() string {
	args := "(none)"

	if len(e.Args) != 0 {
		var b strings.Builder

		for i, a := range e.Args {
			if i != 0 {
				b.WriteString(", ")
			}

			b.WriteString(a.String())
		}

		args = b.String()
	}

	return fmt.Sprintf("Could not resolve function '%s' with arguments: %s", e.Name, args)
}

func (e *UnresolvedNameError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Tok.Line, e.Tok.Col, e.Message())
}

func (e *UnresolvedNameError) Location() token.Token { return e.Tok }

func (e *UnresolvedNameError) Message() string {
	return fmt.Sprintf("Cannot resolve variable '%s' in current scope.", e.Name)
}

// Render formats the diagnostic found in err's chain.
// Errors without a diagnostic are rendered with the compile template and no position.
func Render(err error, file string) string {
	return string(AppendRender(nil, err, file, false))
}

// RenderDebug is Render with the compiler source location appended.
func RenderDebug(err error, file string) string {
	return string(AppendRender(nil, err, file, true))
}

func AppendRender(b []byte, err error, file string, debug bool) []byte {
	var d Diagnostic
	if !errors.As(err, &d) {
		return appendCompile(b, token.Token{}, file, err.Error())
	}

	switch d.(type) {
	case *ParseError, *LexError:
		return appendParse(b, d.Location(), file, d.Message())
	}

	b = appendCompile(b, d.Location(), file, d.Message())

	if !debug {
		return b
	}

	var pc loc.PC

	switch e := d.(type) {
	case *CompileError:
		pc = e.PC
	case *UnresolvedCallError:
		pc = e.PC
	case *UnresolvedNameError:
		pc = e.PC
	}

	if pc == 0 {
		return b
	}

	_, path, line := pc.NameFileLine()

	return hfmt.Appendf(b, "\n│> Logged from %s:%d", filepath.Base(path), line)
}

func appendCompile(b []byte, tok token.Token, file, msg string) []byte {
	line, col := pos(tok)

	return hfmt.Appendf(b, "[Ixion Exception]\n│> [%d:%d] in file \"%s\" ['%s']:\n│> %s", line, col, file, tok.Text, msg)
}

func appendParse(b []byte, tok token.Token, file, msg string) []byte {
	line, col := pos(tok)

	b = append(b, "┌──────────────────────Parser Exception────────────────────\n"...)
	b = hfmt.Appendf(b, "│[%d:%d] Unexpected token in file \"%s\" {'%s'}:\n", line, col, file, tok.Text)
	b = hfmt.Appendf(b, "│%s\n", msg)
	b = append(b, "╰──────────────────────────────────────────────────────────"...)

	return b
}

func pos(tok token.Token) (line, col int) {
	if tok.IsZero() {
		return -1, -1
	}

	return tok.Line, tok.Col
}
