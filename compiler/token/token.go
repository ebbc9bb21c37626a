package token

import "strconv"

type (
	Kind int

	Token struct {
		Kind Kind
		Text string
		Line int
		Col  int
	}
)

const (
	Invalid Kind = iota
	EOF

	Ident
	Int
	Float
	String
	Char

	keywordStart
	Case
	With
	For
	While
	If
	Else
	Return
	Struct
	Enum
	Def
	Type
	Const
	Var
	Pub
	Use
	New
	True
	False
	Null
	Break
	Continue
	keywordEnd

	LParen
	RParen
	LBrace
	RBrace
	LBrack
	RBrack
	Comma
	Varargs
	Range
	Dot
	Module
	Colon
	Assign
	Ge
	Le
	Gt
	Lt
	Eq
	Ne
	And
	Or
	Xor
	Add
	Mul
	Sub
	Div
	Mod
	Pow
	Pipe
	Arrow
	Walrus
	Not
	Inc
	Dec
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	Question
)

var names = map[Kind]string{
	Invalid: "invalid",
	EOF:     "EOF",
	Ident:   "identifier",
	Int:     "int",
	Float:   "float",
	String:  "string",
	Char:    "char",

	Case:     "case",
	With:     "with",
	For:      "for",
	While:    "while",
	If:       "if",
	Else:     "else",
	Return:   "return",
	Struct:   "struct",
	Enum:     "enum",
	Def:      "def",
	Type:     "type",
	Const:    "const",
	Var:      "var",
	Pub:      "pub",
	Use:      "use",
	New:      "new",
	True:     "true",
	False:    "false",
	Null:     "null",
	Break:    "break",
	Continue: "continue",

	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	LBrack:    "[",
	RBrack:    "]",
	Comma:     ",",
	Varargs:   "...",
	Range:     "..",
	Dot:       ".",
	Module:    "::",
	Colon:     ":",
	Assign:    "=",
	Ge:        ">=",
	Le:        "<=",
	Gt:        ">",
	Lt:        "<",
	Eq:        "==",
	Ne:        "!=",
	And:       "&&",
	Or:        "||",
	Xor:       "^",
	Add:       "+",
	Mul:       "*",
	Sub:       "-",
	Div:       "/",
	Mod:       "%",
	Pow:       "**",
	Pipe:      "|",
	Arrow:     "=>",
	Walrus:    ":=",
	Not:       "!",
	Inc:       "++",
	Dec:       "--",
	AddAssign: "+=",
	SubAssign: "-=",
	MulAssign: "*=",
	DivAssign: "/=",
	ModAssign: "%=",
	Question:  "?",
}

var keywords = map[string]Kind{}

func init() {
	for k := keywordStart + 1; k < keywordEnd; k++ {
		keywords[names[k]] = k
	}
}

// Keyword returns the keyword kind for the word or Ident.
func Keyword(word string) Kind {
	if k, ok := keywords[word]; ok {
		return k
	}

	return Ident
}

func (k Kind) IsKeyword() bool { return k > keywordStart && k < keywordEnd }

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Operators returns the operator spellings, used by the lexer for longest match.
func Operators() map[string]Kind {
	m := make(map[string]Kind, len(names))

	for k := keywordEnd + 1; k <= Question; k++ {
		m[names[k]] = k
	}

	return m
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}

	return t.Text
}

// IsZero reports a token without position.
func (t Token) IsZero() bool { return t == Token{} }
