package host

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Element is a node in the rendered structure of a view. It carries just
// enough of a DOM to let callers sniff for renderer markers.
type Element struct {
	Tag      string
	Classes  sets.Set[string]
	Attrs    map[string]string
	Parent   *Element
	Children []*Element
}

// NewElement creates a detached element.
func NewElement(tag string, classes ...string) *Element {
	return &Element{
		Tag:     strings.ToLower(tag),
		Classes: sets.New[string](classes...),
		Attrs:   map[string]string{},
	}
}

// Append adopts children and returns e for chaining.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c == nil {
			continue
		}

		c.Parent = e
		e.Children = append(e.Children, c)
	}

	return e
}

// SetAttr sets an attribute and returns e for chaining.
func (e *Element) SetAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}

	e.Attrs[name] = value

	return e
}

// HasClass reports whether e carries class.
func (e *Element) HasClass(class string) bool {
	return e != nil && e.Classes.Has(class)
}

// Attr returns the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}

	v, ok := e.Attrs[name]

	return v, ok
}

// Closest returns e or the nearest ancestor carrying class.
func (e *Element) Closest(class string) *Element {
	for n := e; n != nil; n = n.Parent {
		if n.HasClass(class) {
			return n
		}
	}

	return nil
}

// Find returns the first element in e's subtree, e included, for which
// match returns true. The walk is depth-first in document order.
func (e *Element) Find(match func(*Element) bool) *Element {
	if e == nil {
		return nil
	}

	if match(e) {
		return e
	}

	for _, c := range e.Children {
		if found := c.Find(match); found != nil {
			return found
		}
	}

	return nil
}

// Walk calls fn for every element in e's subtree in document order.
func (e *Element) Walk(fn func(*Element)) {
	if e == nil {
		return
	}

	fn(e)

	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Query returns the first element in e's subtree matching selector.
func (e *Element) Query(selector string) *Element {
	sel := ParseSelector(selector)

	return e.Find(sel.Matches)
}

// QueryAll returns every element in e's subtree matching selector.
func (e *Element) QueryAll(selector string) []*Element {
	sel := ParseSelector(selector)

	var out []*Element

	e.Walk(func(n *Element) {
		if sel.Matches(n) {
			out = append(out, n)
		}
	})

	return out
}

// Selector is a descendant chain of compound selectors such as
// "div.slides-container section.past" or "[data-presentation]".
type Selector []compound

type compound struct {
	tag     string
	classes []string
	attrs   []string
}

// ParseSelector parses the small selector subset elements support: tag
// names, .class and [attr] parts, joined by whitespace for descendants.
func ParseSelector(s string) Selector {
	var sel Selector

	for _, part := range strings.Fields(s) {
		sel = append(sel, parseCompound(part))
	}

	return sel
}

func parseCompound(s string) compound {
	var c compound

	for s != "" {
		switch s[0] {
		case '.':
			name, rest := cut(s[1:])
			c.classes = append(c.classes, name)
			s = rest
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				c.attrs = append(c.attrs, s[1:])
				return c
			}

			c.attrs = append(c.attrs, s[1:end])
			s = s[end+1:]
		default:
			name, rest := cut(s)
			c.tag = strings.ToLower(name)
			s = rest
		}
	}

	return c
}

// cut splits s at the next '.' or '['.
func cut(s string) (string, string) {
	i := strings.IndexAny(s, ".[")
	if i < 0 {
		return s, ""
	}

	return s[:i], s[i:]
}

// Matches reports whether e matches the full descendant chain.
func (s Selector) Matches(e *Element) bool {
	if len(s) == 0 || e == nil {
		return false
	}

	last := len(s) - 1
	if !s[last].matches(e) {
		return false
	}

	i := last - 1
	for n := e.Parent; n != nil && i >= 0; n = n.Parent {
		if s[i].matches(n) {
			i--
		}
	}

	return i < 0
}

func (c compound) matches(e *Element) bool {
	if c.tag != "" && c.tag != "*" && c.tag != e.Tag {
		return false
	}

	for _, cl := range c.classes {
		if !e.HasClass(cl) {
			return false
		}
	}

	for _, a := range c.attrs {
		if _, ok := e.Attr(a); !ok {
			return false
		}
	}

	return true
}
