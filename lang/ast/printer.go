package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented dump of node to w using Walk, one line per node,
// each node rendered through its own Format method with the '#' flag set so
// child counts are visible. It is used by the command line's debug dump
// paths (--dump=ast, --dump=resolved) and has no bearing on compilation.
func Fprint(w io.Writer, node Node) {
	depth := 0
	var visit VisitorFunc
	visit = func(n Node, dir VisitDirection) Visitor {
		switch dir {
		case VisitEnter:
			fmt.Fprintf(w, "%s%#v\n", strings.Repeat("  ", depth), n)
			depth++
		case VisitExit:
			depth--
		}
		return visit
	}
	Walk(visit, node)
}
