// =============================================================================
// Purchase Order Form Engine - Document Model Helpers
// =============================================================================
//
// This package wraps golang.org/x/net/html with the small set of queries and
// mutations the form engine needs. The parsed node tree IS the live document:
// every other package reads ordering and values from it on each call and
// never caches positions across mutations.
//
// QUERY MODEL:
//   Matchers are plain predicates over *html.Node. Find/FindAll walk the
//   descendants of a root in document order, which matches the order a
//   browser's querySelectorAll would return.
//
// =============================================================================

package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrMissingAnchor is returned when an element the form contract requires
// (item table, preview container, section container) is absent.
var ErrMissingAnchor = errors.New("required form anchor is missing")

// =============================================================================
// PARSING AND RENDERING
// =============================================================================

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse form document: %w", err)
	}
	return doc, nil
}

// ParseString is Parse for in-memory documents.
func ParseString(s string) (*html.Node, error) {
	return Parse(strings.NewReader(s))
}

// Render serializes a node (usually the document root) back to HTML.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render form document: %w", err)
	}
	return buf.String(), nil
}

// =============================================================================
// MATCHERS
// =============================================================================

// Matcher reports whether a node satisfies a query.
type Matcher func(*html.Node) bool

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Tag matches elements by tag name.
func Tag(name string) Matcher {
	a := atom.Lookup([]byte(name))
	return func(n *html.Node) bool {
		if !IsElement(n) {
			return false
		}
		if a != 0 {
			return n.DataAtom == a
		}
		return n.Data == name
	}
}

// Class matches elements carrying the class c.
func Class(c string) Matcher {
	return func(n *html.Node) bool {
		return IsElement(n) && HasClass(n, c)
	}
}

// AttrEquals matches elements whose attribute key equals val.
func AttrEquals(key, val string) Matcher {
	return func(n *html.Node) bool {
		if !IsElement(n) {
			return false
		}
		v, ok := Attr(n, key)
		return ok && v == val
	}
}

// HasAttr matches elements that carry the attribute key.
func HasAttr(key string) Matcher {
	return func(n *html.Node) bool {
		if !IsElement(n) {
			return false
		}
		_, ok := Attr(n, key)
		return ok
	}
}

// ID matches the element with the given id.
func ID(id string) Matcher {
	return AttrEquals("id", id)
}

// All combines matchers with logical AND.
func All(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// Any combines matchers with logical OR.
func Any(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if m(n) {
				return true
			}
		}
		return false
	}
}

// EditableField matches the `.editable-field` value holders.
var EditableField = Class("editable-field")

// =============================================================================
// TRAVERSAL
// =============================================================================

// Find returns the first descendant of root matching m, or nil.
func Find(root *html.Node, m Matcher) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if found := Find(c, m); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant of root matching m in document order.
func FindAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Closest returns n or its nearest ancestor matching m.
func Closest(n *html.Node, m Matcher) *html.Node {
	for ; n != nil; n = n.Parent {
		if m(n) {
			return n
		}
	}
	return nil
}

// Contains reports whether n is ancestor itself or one of its descendants.
func Contains(ancestor, n *html.Node) bool {
	if ancestor == nil {
		return false
	}
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// ElementChildren returns the element children of n.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	if n == nil {
		return out
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) {
			out = append(out, c)
		}
	}
	return out
}

// IndexOf returns the position of n in list, or -1.
func IndexOf(list []*html.Node, n *html.Node) int {
	for i, c := range list {
		if c == n {
			return i
		}
	}
	return -1
}

// =============================================================================
// TABLE STRUCTURE
// =============================================================================
// The HTML5 parser inserts <tbody> wrappers and nested tables are common in
// the form, so row ownership is decided by the nearest enclosing <table>.

var (
	isTable = Tag("table")
	isRow   = Tag("tr")
	isCell  = Any(Tag("td"), Tag("th"))
)

// OwnedRows returns the rows whose nearest table ancestor is table.
func OwnedRows(table *html.Node) []*html.Node {
	var out []*html.Node
	for _, tr := range FindAll(table, isRow) {
		if Closest(tr.Parent, isTable) == table {
			out = append(out, tr)
		}
	}
	return out
}

// HeaderRow returns the first row inside the table's own <thead>.
func HeaderRow(table *html.Node) *html.Node {
	for _, tr := range OwnedRows(table) {
		if tr.Parent != nil && tr.Parent.DataAtom == atom.Thead {
			return tr
		}
	}
	return nil
}

// BodyRows returns the table's own rows that sit in a <tbody>.
func BodyRows(table *html.Node) []*html.Node {
	var out []*html.Node
	for _, tr := range OwnedRows(table) {
		if tr.Parent != nil && tr.Parent.DataAtom == atom.Tbody {
			out = append(out, tr)
		}
	}
	return out
}

// Cells returns the td/th children of a row.
func Cells(tr *html.Node) []*html.Node {
	var out []*html.Node
	for _, c := range ElementChildren(tr) {
		if isCell(c) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// ATTRIBUTES AND CLASSES
// =============================================================================

// Attr returns the value of attribute key.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// GetAttr returns the attribute value or "".
func GetAttr(n *html.Node, key string) string {
	v, _ := Attr(n, key)
	return v
}

// SetAttr sets or replaces an attribute, keeping its original position.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// Classes returns the element's class list.
func Classes(n *html.Node) []string {
	return strings.Fields(GetAttr(n, "class"))
}

// HasClass reports whether the element carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, have := range Classes(n) {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass appends classes that are not already present.
func AddClass(n *html.Node, cs ...string) {
	list := Classes(n)
	changed := false
	for _, c := range cs {
		if !HasClass(n, c) && !contains(list, c) {
			list = append(list, c)
			changed = true
		}
	}
	if changed {
		SetAttr(n, "class", strings.Join(list, " "))
	}
}

// RemoveClass drops classes; the attribute is removed once empty.
func RemoveClass(n *html.Node, cs ...string) {
	if n == nil {
		return
	}
	list := Classes(n)
	out := list[:0]
	for _, c := range list {
		if !contains(cs, c) {
			out = append(out, c)
		}
	}
	if len(out) == len(Classes(n)) {
		return
	}
	if len(out) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(out, " "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// TEXT CONTENT
// =============================================================================

// Text returns the concatenated text of n and its descendants.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}

// TextExcluding returns the text of n, skipping subtrees matching skip.
func TextExcluding(n *html.Node, skip Matcher) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if skip(c) {
				continue
			}
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}

// SetText replaces every child of n with a single text node.
func SetText(n *html.Node, s string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if s != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
}

// CollapseSpace trims s and collapses internal whitespace runs.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// =============================================================================
// NODE MOVEMENT
// =============================================================================

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertBefore moves n under parent before ref (append when ref is nil).
func InsertBefore(parent, n, ref *html.Node) {
	Detach(n)
	parent.InsertBefore(n, ref)
}

// Swap exchanges the positions of a and b. A placeholder marks a's slot so
// the insertion point survives while both nodes are detached, which makes
// the swap correct for adjacent and distant siblings alike.
func Swap(a, b *html.Node) error {
	if a == nil || b == nil || a.Parent == nil || b.Parent == nil {
		return fmt.Errorf("cannot swap detached nodes")
	}
	if a == b {
		return nil
	}
	if Contains(a, b) || Contains(b, a) {
		return fmt.Errorf("cannot swap a node with its own ancestor")
	}
	placeholder := &html.Node{Type: html.CommentNode, Data: "swap-placeholder"}
	a.Parent.InsertBefore(placeholder, a)
	InsertBefore(b.Parent, a, b)
	InsertBefore(placeholder.Parent, b, placeholder)
	Detach(placeholder)
	return nil
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}
