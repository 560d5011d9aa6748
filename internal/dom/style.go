package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Inline style helpers. Declarations keep their original order; a property
// that is set for the first time is appended at the end.

type declaration struct {
	prop  string
	value string
}

func parseStyle(s string) []declaration {
	var out []declaration
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		out = append(out, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

func writeStyle(n *html.Node, decls []declaration) {
	if len(decls) == 0 {
		RemoveAttr(n, "style")
		return
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.prop + ": " + d.value
	}
	SetAttr(n, "style", strings.Join(parts, "; ")+";")
}

// StyleProp returns the inline value of a CSS property.
func StyleProp(n *html.Node, prop string) string {
	prop = strings.ToLower(prop)
	for _, d := range parseStyle(GetAttr(n, "style")) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// SetStyleProp sets an inline CSS property.
func SetStyleProp(n *html.Node, prop, value string) {
	prop = strings.ToLower(prop)
	decls := parseStyle(GetAttr(n, "style"))
	for i := range decls {
		if decls[i].prop == prop {
			decls[i].value = value
			writeStyle(n, decls)
			return
		}
	}
	writeStyle(n, append(decls, declaration{prop: prop, value: value}))
}

// RemoveStyleProp deletes an inline CSS property.
func RemoveStyleProp(n *html.Node, prop string) {
	prop = strings.ToLower(prop)
	decls := parseStyle(GetAttr(n, "style"))
	out := decls[:0]
	for _, d := range decls {
		if d.prop != prop {
			out = append(out, d)
		}
	}
	if len(out) != len(decls) {
		writeStyle(n, out)
	}
}

// IsHidden reports whether the element is hidden with an inline display:none.
func IsHidden(n *html.Node) bool {
	return strings.EqualFold(StyleProp(n, "display"), "none")
}
