package filter

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Node type tags used in persisted profiles.
const (
	TypeTrue      = "true"
	TypeSubstring = "substring"
	TypeRegex     = "regex"
	TypeAnd       = "and"
	TypeOr        = "or"
	TypeNor       = "nor"
	TypeNot       = "not"
)

// Profile is a named filter tree. A disabled profile, or one with no root, matches
// every line.
type Profile struct {
	Name    string
	Enabled bool
	Root    Node
}

// Match evaluates the profile's tree against a line.
func (p *Profile) Match(line string) bool {
	if p == nil || !p.Enabled || p.Root == nil {
		return true
	}
	return p.Root.Match(line)
}

// Tree returns the root node to evaluate, substituting the neutral filter when the
// profile constrains nothing.
func (p *Profile) Tree() Node {
	if p == nil || !p.Enabled || p.Root == nil {
		return NewTrue()
	}
	return p.Root
}

// DecodeProfiles parses a profiles document of the form
// {"profiles":[{"name":...,"enabled":...,"root":{...}}]}.
func DecodeProfiles(data []byte) ([]*Profile, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("profiles document is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	list := doc.Get("profiles")
	if !list.IsArray() {
		return nil, fmt.Errorf("profiles document missing \"profiles\" array")
	}

	var profiles []*Profile
	var err error
	list.ForEach(func(_, item gjson.Result) bool {
		var p *Profile
		p, err = decodeProfile(item)
		if err != nil {
			return false
		}
		profiles = append(profiles, p)
		return true
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// DecodeProfile parses a single profile object.
func DecodeProfile(data []byte) (*Profile, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("profile is not valid JSON")
	}
	return decodeProfile(gjson.ParseBytes(data))
}

func decodeProfile(res gjson.Result) (*Profile, error) {
	name := res.Get("name").String()
	if name == "" {
		return nil, fmt.Errorf("profile missing name")
	}
	p := &Profile{Name: name, Enabled: true}
	if v := res.Get("enabled"); v.Exists() {
		p.Enabled = v.Bool()
	}
	if root := res.Get("root"); root.Exists() {
		node, err := decodeNode(root)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		p.Root = node
	}
	return p, nil
}

// DecodeNode parses a single type-tagged node tree.
func DecodeNode(data []byte) (Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("filter node is not valid JSON")
	}
	return decodeNode(gjson.ParseBytes(data))
}

func decodeNode(res gjson.Result) (Node, error) {
	typ := res.Get("type").String()
	var n Node
	switch typ {
	case TypeTrue:
		n = NewTrue()
	case TypeSubstring:
		n = NewSubstring(res.Get("value").String(), res.Get("case_sensitive").Bool())
	case TypeRegex:
		// An uncompilable persisted pattern keeps its place in the tree as a
		// never-matching leaf rather than failing the whole profile load.
		r, _ := NewRegex(res.Get("pattern").String(), res.Get("case_sensitive").Bool())
		n = r
	case TypeAnd, TypeOr, TypeNor:
		children, err := decodeChildren(res)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeAnd:
			n = NewAnd(children...)
		case TypeOr:
			n = NewOr(children...)
		default:
			n = NewNor(children...)
		}
	case TypeNot:
		var child Node
		if c := res.Get("child"); c.Exists() {
			var err error
			child, err = decodeNode(c)
			if err != nil {
				return nil, err
			}
		}
		n = NewNot(child)
	case "":
		return nil, fmt.Errorf("filter node missing type tag")
	default:
		return nil, fmt.Errorf("unknown filter node type %q", typ)
	}

	if v := res.Get("enabled"); v.Exists() && !v.Bool() {
		n.SetEnabled(false)
	}
	return n, nil
}

func decodeChildren(res gjson.Result) ([]Node, error) {
	var children []Node
	var err error
	res.Get("children").ForEach(func(_, item gjson.Result) bool {
		var c Node
		c, err = decodeNode(item)
		if err != nil {
			return false
		}
		children = append(children, c)
		return true
	})
	return children, err
}

// MarshalJSON emits the type-tagged form DecodeProfile reads back.
func (p *Profile) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"name":    p.Name,
		"enabled": p.Enabled,
	}
	if p.Root != nil {
		root, err := encodeNode(p.Root)
		if err != nil {
			return nil, err
		}
		out["root"] = root
	}
	return json.Marshal(out)
}

func encodeNode(n Node) (map[string]any, error) {
	out := map[string]any{"enabled": n.Enabled()}
	switch v := n.(type) {
	case *True:
		out["type"] = TypeTrue
	case *Substring:
		out["type"] = TypeSubstring
		out["value"] = v.Value()
		out["case_sensitive"] = v.CaseSensitive()
	case *Regex:
		out["type"] = TypeRegex
		out["pattern"] = v.Pattern()
		out["case_sensitive"] = v.CaseSensitive()
	case *And:
		out["type"] = TypeAnd
		children, err := encodeChildren(v.Children())
		if err != nil {
			return nil, err
		}
		out["children"] = children
	case *Or:
		out["type"] = TypeOr
		children, err := encodeChildren(v.Children())
		if err != nil {
			return nil, err
		}
		out["children"] = children
	case *Nor:
		out["type"] = TypeNor
		children, err := encodeChildren(v.Children())
		if err != nil {
			return nil, err
		}
		out["children"] = children
	case *Not:
		out["type"] = TypeNot
		if v.Child() != nil {
			child, err := encodeNode(v.Child())
			if err != nil {
				return nil, err
			}
			out["child"] = child
		}
	default:
		return nil, fmt.Errorf("unknown filter node %T", n)
	}
	return out, nil
}

func encodeChildren(nodes []Node) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(nodes))
	for _, c := range nodes {
		enc, err := encodeNode(c)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}
