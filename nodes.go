package nanocalc

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression.
type node struct {
	kind nodeKind

	name string
	num  float64
	fn   Func

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum    // push num
	nodeName   // push lookup(name)
	nodeAssign // evaluate left, store it in name, leave it pushed

	nodeCall // name is Func to call, right is link to nodeArg unless niladic
	nodeArg  // name is "" or "," or ";", eval left, right is link to next arg

	nodeNeg // evaluate left, then negate
	nodeNop // evaluate left
	nodeNot // evaluate left, then logical not

	nodeAdd // evaluate left, add right
	nodeSub // evaluate left, sub right
	nodeMul // evaluate left, mul right
	nodeDiv // evaluate left, div by right
	nodeMod // evaluate left, mod by right
	nodePow // evaluate left, exp by right

	nodeLt // comparisons push 1 or 0
	nodeLe
	nodeGt
	nodeGe
	nodeEq
	nodeNe

	nodeAnd // logical operators push 1 or 0
	nodeOr
	nodeXor
	nodeNand
	nodeNor
)

var nodeKindNames = [...]string{
	nodeNone:   "None",
	nodeNum:    "Num",
	nodeName:   "Name",
	nodeAssign: "Assign",
	nodeCall:   "Call",
	nodeArg:    "Arg",
	nodeNeg:    "Neg",
	nodeNop:    "Nop",
	nodeNot:    "Not",
	nodeAdd:    "Add",
	nodeSub:    "Sub",
	nodeMul:    "Mul",
	nodeDiv:    "Div",
	nodeMod:    "Mod",
	nodePow:    "Pow",
	nodeLt:     "Lt",
	nodeLe:     "Le",
	nodeGt:     "Gt",
	nodeGe:     "Ge",
	nodeEq:     "Eq",
	nodeNe:     "Ne",
	nodeAnd:    "And",
	nodeOr:     "Or",
	nodeXor:    "Xor",
	nodeNand:   "Nand",
	nodeNor:    "Nor",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeKindNames[k]
}

// binsyms gives the operator text used to print binary nodes.
var binsyms = map[nodeKind][2]string{
	nodeAdd:  {" + ", " + "},
	nodeSub:  {" - ", " - "},
	nodeMul:  {" * ", " × "},
	nodeDiv:  {" / ", " ÷ "},
	nodeMod:  {" % ", " % "},
	nodePow:  {" ^ ", " ^ "},
	nodeLt:   {" < ", " < "},
	nodeLe:   {" <= ", " <= "},
	nodeGt:   {" > ", " > "},
	nodeGe:   {" >= ", " >= "},
	nodeEq:   {" == ", " == "},
	nodeNe:   {" != ", " != "},
	nodeAnd:  {" and ", " and "},
	nodeOr:   {" or ", " or "},
	nodeXor:  {" xor ", " xor "},
	nodeNand: {" nand ", " nand "},
	nodeNor:  {" nor ", " nor "},
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false, false)
	return b.String()
}

func (n *node) fmt(b *strings.Builder, square, alt bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b, square, alt)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b, square, alt)
		}
		b.WriteByte('$')
	case nodeNum, nodeName:
		b.WriteString(n.name)
	case nodeAssign:
		b.WriteString(n.name)
		b.WriteString(" := ")
		n.left.fmt(b, !square, alt)
	case nodeCall:
		b.WriteString(n.name)
		n.fmtargs(b, !square, alt)
	case nodeArg:
		// Args usually only appear inside calls, which are handled by fmtargs.
		b.WriteByte(':')
		n.left.fmt(b, !square, alt)
		if n.right != nil {
			n.right.fmt(b, !square, alt)
		}
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmt(b, !square, alt)
	case nodeNop:
		b.WriteByte('+')
		n.left.fmt(b, !square, alt)
	case nodeNot:
		b.WriteString("not ")
		n.left.fmt(b, !square, alt)
	default:
		sym, ok := binsyms[n.kind]
		if !ok {
			panic("nanocalc: invalid node kind " + n.kind.String() + " after writing " + b.String())
		}
		n.left.fmt(b, !square, alt)
		if !alt {
			b.WriteString(sym[0])
		} else {
			b.WriteString(sym[1])
		}
		n.right.fmt(b, !square, alt)
	}
}

func (n *node) fmtargs(b *strings.Builder, square, alt bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	if n.right == nil {
		// Niladic call.
		return
	}
	n = n.right
	if n.kind != nodeArg {
		b.WriteString("***")
		n.fmt(b, !square, alt)
		return
	}
	n.left.fmt(b, !square, alt)
	for n.right != nil {
		n = n.right
		if n.kind != nodeArg {
			b.WriteString("***")
			n.fmt(b, !square, alt)
			return
		}
		b.WriteString(", ")
		n.left.fmt(b, !square, alt)
	}
}
