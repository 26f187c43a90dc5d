package filter

// Composite nodes skip disabled children entirely: a disabled child contributes
// nothing to the combination, so disabling a branch prunes its constraining power
// without removing it from the tree.
//
// Vacuous cases (no children, or every child disabled):
//   - And matches (vacuous truth).
//   - Or matches. The alternative reading (an empty disjunction matches nothing)
//     makes adding an empty Or group silently blank the whole view, so the neutral
//     reading is used and pinned by TestOrVacuousTrue.
//   - Nor matches (nothing matched, so "none matched" holds).

// And matches when every enabled child matches.
type And struct {
	node
	children []Node
}

// NewAnd creates a conjunction over the given children.
func NewAnd(children ...Node) *And {
	return &And{children: children}
}

func (a *And) Match(line string) bool {
	if !a.Enabled() {
		return true
	}
	for _, c := range a.children {
		if !c.Enabled() {
			continue
		}
		if !c.Match(line) {
			return false
		}
	}
	return true
}

func (a *And) Children() []Node { return a.children }
func (a *And) Add(child Node)   { a.children = append(a.children, child) }

// Or matches when at least one enabled child matches, and vacuously when there are
// no enabled children.
type Or struct {
	node
	children []Node
}

// NewOr creates a disjunction over the given children.
func NewOr(children ...Node) *Or {
	return &Or{children: children}
}

func (o *Or) Match(line string) bool {
	if !o.Enabled() {
		return true
	}
	any := false
	for _, c := range o.children {
		if !c.Enabled() {
			continue
		}
		any = true
		if c.Match(line) {
			return true
		}
	}
	return !any
}

func (o *Or) Children() []Node { return o.children }
func (o *Or) Add(child Node)   { o.children = append(o.children, child) }

// Nor matches when no enabled child matches.
type Nor struct {
	node
	children []Node
}

// NewNor creates a joint denial over the given children.
func NewNor(children ...Node) *Nor {
	return &Nor{children: children}
}

func (n *Nor) Match(line string) bool {
	if !n.Enabled() {
		return true
	}
	for _, c := range n.children {
		if !c.Enabled() {
			continue
		}
		if c.Match(line) {
			return false
		}
	}
	return true
}

func (n *Nor) Children() []Node { return n.children }
func (n *Nor) Add(child Node)   { n.children = append(n.children, child) }

// Not matches when its child does not. An absent or disabled child leaves nothing to
// negate and the node matches.
type Not struct {
	node
	child Node
}

// NewNot creates a negation of child, which may be nil.
func NewNot(child Node) *Not {
	return &Not{child: child}
}

func (n *Not) Match(line string) bool {
	if !n.Enabled() {
		return true
	}
	if n.child == nil || !n.child.Enabled() {
		return true
	}
	return !n.child.Match(line)
}

func (n *Not) Child() Node         { return n.child }
func (n *Not) SetChild(child Node) { n.child = child }
