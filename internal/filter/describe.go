package filter

import (
	"fmt"
	"strings"
)

// Describe renders a compact single-line summary of a tree, for listings and debug
// logs. Disabled nodes are marked with a leading "!".
func Describe(n Node) string {
	if n == nil {
		return "<none>"
	}
	var b strings.Builder
	describe(&b, n)
	return b.String()
}

func describe(b *strings.Builder, n Node) {
	if !n.Enabled() {
		b.WriteByte('!')
	}
	switch v := n.(type) {
	case *True:
		b.WriteString("true")
	case *Substring:
		fmt.Fprintf(b, "substring(%q)", v.Value())
	case *Regex:
		fmt.Fprintf(b, "regex(%q)", v.Pattern())
	case *And:
		describeList(b, "and", v.Children())
	case *Or:
		describeList(b, "or", v.Children())
	case *Nor:
		describeList(b, "nor", v.Children())
	case *Not:
		b.WriteString("not(")
		if v.Child() != nil {
			describe(b, v.Child())
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%T", n)
	}
}

func describeList(b *strings.Builder, name string, children []Node) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, c := range children {
		if i > 0 {
			b.WriteString(", ")
		}
		describe(b, c)
	}
	b.WriteByte(')')
}
