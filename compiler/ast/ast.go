package ast

import "github.com/slowlang/ix/compiler/token"

type (
	// Node is any syntax tree node.
	// Node capabilities are implemented by the back package
	// as exhaustive type switches over the variants below.
	Node interface {
		Token() token.Token
	}

	Expr interface {
		Node
		expr()
	}

	Stmt interface {
		Node
		stmt()
	}

	Base struct {
		Tok token.Token
	}

	Program struct {
		Base  `tlog:",embed"`
		Stmts []Stmt
	}

	Use struct {
		Base `tlog:",embed"`
		Path string
	}

	TypeRef struct {
		Base     `tlog:",embed"`
		Name     string // dotted
		List     bool
		Nullable bool

		Union []*TypeRef // alternatives, other fields are unset
	}

	Param struct {
		Base `tlog:",embed"`
		Name string
		Type *TypeRef
	}

	FuncDecl struct {
		Base   `tlog:",embed"`
		Pub    bool
		Name   string
		Params []*Param
		Result *TypeRef // nil for void
		Body   *Block
	}

	Field struct {
		Base `tlog:",embed"`
		Name string
		Type *TypeRef
	}

	StructDecl struct {
		Base    `tlog:",embed"`
		Pub     bool
		Name    string
		Fields  []*Field
		Methods []*FuncDecl
	}

	// TypeAlias names a type: type Name = a | b.
	TypeAlias struct {
		Base `tlog:",embed"`
		Pub  bool
		Name string
		Type *TypeRef
	}

	VarDecl struct {
		Base  `tlog:",embed"`
		Pub   bool
		Const bool
		Name  string
		Type  *TypeRef // optional
		Value Expr
	}

	Block struct {
		Base  `tlog:",embed"`
		Stmts []Stmt
	}

	If struct {
		Base `tlog:",embed"`
		Cond Expr
		Then *Block
		Else Stmt // *If, *Block or nil
	}

	While struct {
		Base `tlog:",embed"`
		Cond Expr
		Body *Block
	}

	For struct {
		Base `tlog:",embed"`
		Var  string
		Iter Expr
		Body *Block
	}

	// Case runs the first arm matching the runtime type of X.
	Case struct {
		Base `tlog:",embed"`
		X    Expr
		Arms []*CaseArm
	}

	CaseArm struct {
		Base `tlog:",embed"`
		Type *TypeRef
		Name string // X converted to Type
		Body *Block
	}

	Return struct {
		Base  `tlog:",embed"`
		Value Expr // optional
	}

	// Branch is break or continue.
	Branch struct {
		Base `tlog:",embed"`
	}

	ExprStmt struct {
		Base `tlog:",embed"`
		X    Expr
	}

	Literal struct {
		Base `tlog:",embed"`
	}

	Ident struct {
		Base `tlog:",embed"`
		Name string
	}

	Unary struct {
		Base `tlog:",embed"`
		Op   token.Kind
		X    Expr
	}

	Postfix struct {
		Base `tlog:",embed"`
		Op   token.Kind
		X    Expr
	}

	Binary struct {
		Base  `tlog:",embed"`
		Op    token.Kind
		Left  Expr
		Right Expr
	}

	// Assign is a plain or compound assignment.
	// Op is token.Assign or one of the compound kinds.
	Assign struct {
		Base   `tlog:",embed"`
		Op     token.Kind
		Target Expr
		Value  Expr
	}

	Call struct {
		Base   `tlog:",embed"`
		Callee Expr
		Args   []Expr
	}

	Property struct {
		Base `tlog:",embed"`
		X    Expr
		Name string
	}

	New struct {
		Base `tlog:",embed"`
		Type *TypeRef
		Args []Expr
	}

	List struct {
		Base  `tlog:",embed"`
		Elems []Expr
	}
)

// IndexFunc is the function index access a[i] is desugared into.
const IndexFunc = "at"

func (b Base) Token() token.Token { return b.Tok }

func (*Literal) expr()  {}
func (*Ident) expr()    {}
func (*Unary) expr()    {}
func (*Postfix) expr()  {}
func (*Binary) expr()   {}
func (*Assign) expr()   {}
func (*Call) expr()     {}
func (*Property) expr() {}
func (*New) expr()      {}
func (*List) expr()     {}

func (*Use) stmt()        {}
func (*FuncDecl) stmt()   {}
func (*StructDecl) stmt() {}
func (*TypeAlias) stmt()  {}
func (*VarDecl) stmt()    {}
func (*Block) stmt()      {}
func (*If) stmt()         {}
func (*While) stmt()      {}
func (*For) stmt()        {}
func (*Case) stmt()       {}
func (*Return) stmt()     {}
func (*Branch) stmt()     {}
func (*ExprStmt) stmt()   {}

// Inspect walks the tree depth first calling f for each node.
// Children are skipped if f returns false.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}

	switch n := n.(type) {
	case *Program:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *FuncDecl:
		for _, p := range n.Params {
			Inspect(p, f)
		}

		Inspect(n.Body, f)
	case *StructDecl:
		for _, x := range n.Fields {
			Inspect(x, f)
		}

		for _, m := range n.Methods {
			Inspect(m, f)
		}
	case *VarDecl:
		inspectExpr(n.Value, f)
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *If:
		inspectExpr(n.Cond, f)
		Inspect(n.Then, f)

		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *While:
		inspectExpr(n.Cond, f)
		Inspect(n.Body, f)
	case *For:
		inspectExpr(n.Iter, f)
		Inspect(n.Body, f)
	case *Case:
		inspectExpr(n.X, f)

		for _, a := range n.Arms {
			Inspect(a, f)
		}
	case *CaseArm:
		Inspect(n.Body, f)
	case *Return:
		inspectExpr(n.Value, f)
	case *ExprStmt:
		inspectExpr(n.X, f)
	case *Unary:
		inspectExpr(n.X, f)
	case *Postfix:
		inspectExpr(n.X, f)
	case *Binary:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *Assign:
		inspectExpr(n.Target, f)
		inspectExpr(n.Value, f)
	case *Call:
		inspectExpr(n.Callee, f)

		for _, a := range n.Args {
			inspectExpr(a, f)
		}
	case *Property:
		inspectExpr(n.X, f)
	case *New:
		for _, a := range n.Args {
			inspectExpr(a, f)
		}
	case *List:
		for _, e := range n.Elems {
			inspectExpr(e, f)
		}
	}
}

func inspectExpr(x Expr, f func(Node) bool) {
	if x == nil {
		return
	}

	Inspect(x, f)
}
