package cfg

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/debtmap-go/debtmap/pkg/parser"
)

// PurityLookup resolves a fully-qualified or bare callee name to a
// CallPurity. LookupPurity (purity.go) is the stock database; builder
// callers that don't care about purity pass a nil lookup and get
// PurityUnknown for every call.
type PurityLookup func(callee string) CallPurity

// builder accumulates blocks while walking a function body once.
type builder struct {
	g       *ControlFlowGraph
	source  []byte
	lang    parser.Language
	purity  PurityLookup
	vars    map[string]VarID // current SSA version per source name, in scope
	current BlockID
}

// Build constructs a ControlFlowGraph for a single function body.
// Malformed or unrecognized AST fragments lower to Expr(Other) rather
// than aborting; the builder never fails on well-formed input.
func Build(body *sitter.Node, source []byte, lang parser.Language, purity PurityLookup) *ControlFlowGraph {
	g := &ControlFlowGraph{}
	b := &builder{g: g, source: source, lang: lang, purity: purity, vars: map[string]VarID{}}

	entry := b.newBlock()
	g.Entry = entry
	b.current = entry

	if body != nil {
		b.lowerBlockNode(body)
	}
	b.terminateFallthrough()

	return g
}

func (b *builder) newBlock() BlockID {
	id := BlockID(len(b.g.Blocks))
	b.g.Blocks = append(b.g.Blocks, &Block{ID: id})
	return id
}

func (b *builder) block() *Block {
	return b.g.Blocks[b.current]
}

// terminateFallthrough emits the implicit Return for fall-through at
// function end, unless the current block is already terminated.
func (b *builder) terminateFallthrough() {
	blk := b.block()
	if blk.Term.Kind == TermReturn || blk.Term.Kind == TermUnreachable || blk.Term.Kind == TermBranch || blk.Term.Kind == TermMatch {
		return
	}
	if blk.Term.Kind == TermGoto && blk.Term.Target != 0 {
		return
	}
	blk.Term = Terminator{Kind: TermReturn}
}

func (b *builder) setGoto(from BlockID, to BlockID) {
	b.g.Blocks[from].Term = Terminator{Kind: TermGoto, Target: to}
}

// lowerBlockNode lowers a compound-statement node's children in order.
func (b *builder) lowerBlockNode(n *sitter.Node) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.lowerStatement(n.NamedChild(i))
	}
}

func (b *builder) lowerStatement(n *sitter.Node) {
	if n == nil || b.blockTerminated() {
		return
	}
	switch n.Type() {
	case "if_statement", "if_expression":
		b.lowerIf(n)
	case "for_statement", "for_expression", "while_statement", "while_expression":
		b.lowerLoop(n)
	case "return_statement":
		b.lowerReturn(n)
	case "break_statement", "continue_statement":
		// No enclosing-loop context is tracked: lowerJump lowers these to
		// Expr(Other) and the current block is not terminated.
		b.lowerJump(n)
	case "short_var_declaration", "var_declaration", "variable_declaration", "const_declaration":
		b.lowerDeclare(n)
	case "assignment_statement", "assignment_expression", "expression_statement":
		b.lowerExprOrAssign(n)
	case "block":
		b.lowerBlockNode(n)
	default:
		b.emitOther(n)
	}
}

func (b *builder) blockTerminated() bool {
	t := b.block().Term.Kind
	return t == TermReturn || t == TermUnreachable || t == TermBranch || t == TermMatch ||
		(t == TermGoto && b.block().Term.Target != 0)
}

func (b *builder) lowerIf(n *sitter.Node) {
	cond := n.ChildByFieldName("condition")
	condVar := b.evalToVar(cond)

	thenBlk := b.newBlock()
	elseBlk := b.newBlock()
	joinBlk := b.newBlock()

	b.block().Term = Terminator{Kind: TermBranch, Cond: condVar, Then: thenBlk, Else: elseBlk}

	b.current = thenBlk
	if cons := n.ChildByFieldName("consequence"); cons != nil {
		b.lowerStatement(cons)
	}
	if !b.blockTerminated() {
		b.setGoto(b.current, joinBlk)
	}

	b.current = elseBlk
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		b.lowerStatement(alt)
	}
	if !b.blockTerminated() {
		b.setGoto(b.current, joinBlk)
	}

	b.current = joinBlk
}

func (b *builder) lowerLoop(n *sitter.Node) {
	header := b.newBlock()
	b.setGoto(b.current, header)
	b.current = header
	b.block().LoopHeader = true

	cond := n.ChildByFieldName("condition")
	bodyBlk := b.newBlock()
	post := b.newBlock()

	if cond != nil {
		condVar := b.evalToVar(cond)
		b.block().Term = Terminator{Kind: TermBranch, Cond: condVar, Then: bodyBlk, Else: post}
	} else {
		b.block().Term = Terminator{Kind: TermGoto, Target: bodyBlk}
	}

	b.current = bodyBlk
	if body := n.ChildByFieldName("body"); body != nil {
		b.lowerStatement(body)
	}
	if !b.blockTerminated() {
		// LoopBack edge from the body's last block to the header.
		b.g.Blocks[b.current].LoopBack = true
		b.setGoto(b.current, header)
	}

	b.current = post
}

func (b *builder) lowerJump(n *sitter.Node) {
	// break/continue without explicit loop-stack tracking collapse to
	// Unreachable-free fallthrough; the surrounding loop's post block
	// is reached via the header's branch successor set regardless.
	b.emitOther(n)
}

func (b *builder) lowerReturn(n *sitter.Node) {
	var valPtr *VarID
	if n.NamedChildCount() > 0 {
		v := b.evalToVar(n.NamedChild(0))
		valPtr = &v
	}
	b.block().Term = Terminator{Kind: TermReturn, Value: valPtr}
}

func (b *builder) lowerDeclare(n *sitter.Node) {
	name := b.declaredName(n)
	if name == "" {
		b.emitOther(n)
		return
	}
	initNode := n.ChildByFieldName("value")
	if initNode == nil {
		// Go's short_var_declaration keeps its initializer under "right".
		initNode = n.ChildByFieldName("right")
	}
	if initNode != nil && initNode.Type() == "expression_list" && initNode.NamedChildCount() == 1 {
		initNode = initNode.NamedChild(0)
	}
	var init Rvalue
	if initNode != nil {
		init = b.evalRvalue(initNode)
	} else {
		init = Rvalue{Kind: RConstant}
	}
	target := b.g.freshVar(name)
	b.vars[name] = target
	b.block().Stmts = append(b.block().Stmts, Stmt{Kind: StmtDeclare, Target: target, Value: init})
}

func (b *builder) declaredName(n *sitter.Node) string {
	if left := n.ChildByFieldName("left"); left != nil {
		return parser.GetNodeText(left, b.source)
	}
	if name := n.ChildByFieldName("name"); name != nil {
		return parser.GetNodeText(name, b.source)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "identifier" {
			return parser.GetNodeText(c, b.source)
		}
	}
	return ""
}

func (b *builder) lowerExprOrAssign(n *sitter.Node) {
	// expression_statement wraps a single expression; unwrap it.
	target := n
	if n.Type() == "expression_statement" && n.NamedChildCount() == 1 {
		target = n.NamedChild(0)
	}
	if isAssignmentShape(target) {
		b.lowerAssign(target)
		return
	}
	val := b.evalRvalue(target)
	b.block().Stmts = append(b.block().Stmts, Stmt{Kind: StmtExpr, Value: val})
}

func isAssignmentShape(n *sitter.Node) bool {
	switch n.Type() {
	case "assignment_statement", "assignment_expression":
		return true
	default:
		return false
	}
}

func (b *builder) lowerAssign(n *sitter.Node) {
	name := b.declaredName(n)
	if name == "" {
		b.emitOther(n)
		return
	}
	var rv Rvalue
	if right := n.ChildByFieldName("right"); right != nil {
		rv = b.evalRvalue(right)
	} else {
		rv = Rvalue{Kind: RConstant}
	}
	target := b.g.freshVar(name)
	stmt := Stmt{Kind: StmtAssign, Target: target, Value: rv}
	if rv.Kind == RUse && len(rv.Operands) == 1 {
		stmt.Source = rv.Operands[0]
	}
	b.vars[name] = target
	b.block().Stmts = append(b.block().Stmts, stmt)
}

// emitOther lowers an unrecognized or malformed fragment to Expr(Other)
// rather than aborting, per spec §4.1 failure semantics.
func (b *builder) emitOther(n *sitter.Node) {
	b.block().Stmts = append(b.block().Stmts, Stmt{
		Kind:  StmtExpr,
		Value: Rvalue{Kind: ROther, Text: parser.GetNodeText(n, b.source)},
	})
}

// evalToVar evaluates an expression and, if it isn't already a bare
// variable reference, materializes it into a fresh temporary so
// terminators (Branch cond, Match scrutinee) always carry a VarID.
func (b *builder) evalToVar(n *sitter.Node) VarID {
	if n == nil {
		return VarID{}
	}
	if n.Type() == "identifier" {
		name := parser.GetNodeText(n, b.source)
		if v, ok := b.vars[name]; ok {
			return v
		}
		return VarID{Name: name}
	}
	rv := b.evalRvalue(n)
	tmp := b.g.freshVar("$tmp")
	b.block().Stmts = append(b.block().Stmts, Stmt{Kind: StmtAssign, Target: tmp, Value: rv})
	return tmp
}

// evalRvalue classifies an expression node into an Rvalue, collecting
// the variables it references as operands.
func (b *builder) evalRvalue(n *sitter.Node) Rvalue {
	if n == nil {
		return Rvalue{Kind: RConstant}
	}
	switch n.Type() {
	case "identifier", "field_identifier":
		name := parser.GetNodeText(n, b.source)
		v, ok := b.vars[name]
		if !ok {
			v = VarID{Name: name}
		}
		return Rvalue{Kind: RUse, Operands: []VarID{v}}
	case "binary_expression", "logical_expression":
		return Rvalue{Kind: RBinaryOp, Operands: b.operandsOf(n), Text: parser.GetNodeText(n, b.source)}
	case "unary_expression":
		return Rvalue{Kind: RUnaryOp, Operands: b.operandsOf(n), Text: parser.GetNodeText(n, b.source)}
	case "call_expression", "call":
		return b.evalCall(n)
	case "selector_expression", "field_expression", "member_expression":
		return Rvalue{Kind: RFieldAccess, Operands: b.operandsOf(n), Text: parser.GetNodeText(n, b.source)}
	case "unary_reference_expression", "reference_expression":
		return Rvalue{Kind: RRef, Operands: b.operandsOf(n), Text: parser.GetNodeText(n, b.source)}
	case "number", "string", "interpreted_string_literal", "raw_string_literal",
		"true", "false", "nil", "null", "integer", "float", "char_literal":
		return Rvalue{Kind: RConstant, Text: parser.GetNodeText(n, b.source)}
	default:
		return Rvalue{Kind: ROther, Operands: b.operandsOf(n), Text: parser.GetNodeText(n, b.source)}
	}
}

// evalCall distinguishes a bare function call from a method call
// (receiver present via a selector on the function position), and
// resolves purity via the builder's lookup so escape/taint analysis
// can consume it directly.
func (b *builder) evalCall(n *sitter.Node) Rvalue {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")

	var operands []VarID
	if args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			operands = append(operands, b.operandsOf(args.NamedChild(i))...)
		}
	}

	callee := ""
	if fn != nil {
		callee = parser.GetNodeText(fn, b.source)
	}

	kind := RCall
	var receiver VarID
	if fn != nil && (fn.Type() == "selector_expression" || fn.Type() == "field_expression" || fn.Type() == "member_expression") {
		kind = RMethodCall
		if recv := fn.ChildByFieldName("operand"); recv != nil {
			receiver = b.evalToVar(recv)
		} else if fn.NamedChildCount() > 0 {
			receiver = b.evalToVar(fn.NamedChild(0))
		}
	}

	purity := PurityUnknown
	if b.purity != nil {
		purity = b.purity(callee)
	}

	return Rvalue{Kind: kind, Operands: operands, Callee: callee, Receiver: receiver, IsPure: purity}
}

// operandsOf collects every identifier referenced anywhere under n,
// resolved to its current SSA version when known.
func (b *builder) operandsOf(n *sitter.Node) []VarID {
	var out []VarID
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "identifier" || n.Type() == "field_identifier" {
			name := parser.GetNodeText(n, b.source)
			if v, ok := b.vars[name]; ok {
				out = append(out, v)
			} else {
				out = append(out, VarID{Name: name})
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(n)
	return out
}
