package raml

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one key/value pair of a YAML mapping, in document order.
type Entry struct {
	Key   string
	Value *yaml.Node
}

// Entries returns the pairs of a mapping node; other node kinds yield nil.
func Entries(node *yaml.Node) []Entry {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, Entry{Key: node.Content[i].Value, Value: deref(node.Content[i+1])})
	}
	return out
}

// Lookup returns the value stored under key in a mapping node.
func Lookup(node *yaml.Node, key string) *yaml.Node {
	for _, e := range Entries(node) {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Scalar returns the trimmed scalar value of node, or "" for non-scalars.
func Scalar(node *yaml.Node) string {
	node = deref(node)
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return ""
	}
	return strings.TrimSpace(node.Value)
}

// RawScalar returns the untrimmed scalar value (used for embedded documents).
func RawScalar(node *yaml.Node) string {
	node = deref(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

// Bool reads a scalar boolean, returning def when absent or malformed.
func Bool(node *yaml.Node, def bool) bool {
	s := Scalar(node)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// Strings reads a scalar or a sequence of scalars.
func Strings(node *yaml.Node) []string {
	node = deref(node)
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		if s := Scalar(node); s != "" {
			return []string{s}
		}
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, c := range node.Content {
			if s := Scalar(c); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Describe renders node back to YAML text, for examples kept verbatim.
func Describe(node *yaml.Node) string {
	node = deref(node)
	if node == nil {
		return ""
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\n")
}

// ExpectMapping returns a SpecError when node is present but not a mapping.
func ExpectMapping(node *yaml.Node, where string) error {
	node = deref(node)
	if node == nil || node.Kind == yaml.MappingNode || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil
	}
	return &SpecError{Code: ParseError, Message: fmt.Sprintf("raml: expected a mapping at line %d", node.Line), Path: where}
}

func deref(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// Node builders used by the version emitters.

// Map builds a mapping node from alternating key/value pairs; nil values are
// skipped so optional attributes can be passed unconditionally.
func Map(pairs ...any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		val, _ := pairs[i+1].(*yaml.Node)
		if val == nil {
			continue
		}
		n.Content = append(n.Content, Str(key), val)
	}
	return n
}

// Append adds key/value to mapping node m when value is non-nil.
func Append(m *yaml.Node, key string, value *yaml.Node) {
	if value == nil {
		return
	}
	m.Content = append(m.Content, Str(key), value)
}

// Str builds a string scalar; it returns nil for the empty string.
func Str(s string) *yaml.Node {
	if s == "" {
		return nil
	}
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

// BoolNode builds a boolean scalar.
func BoolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

// Seq builds a sequence of string scalars; it returns nil for an empty list.
func Seq(items []string) *yaml.Node {
	if len(items) == 0 {
		return nil
	}
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, it := range items {
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: it})
	}
	return n
}

// MarshalDocument writes the header line followed by node as YAML.
func MarshalDocument(header string, node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString("\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("raml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("raml: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// MergeMapping copies entries of src that dst lacks into dst, recursing into
// nested mappings present in both. Entries already in dst win; this is how
// traits are applied to methods.
func MergeMapping(dst, src *yaml.Node) {
	dst, src = deref(dst), deref(src)
	if dst == nil || src == nil || dst.Kind != yaml.MappingNode || src.Kind != yaml.MappingNode {
		return
	}
	for _, e := range Entries(src) {
		existing := Lookup(dst, e.Key)
		if existing == nil {
			dst.Content = append(dst.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}, cloneNode(e.Value))
			continue
		}
		if existing.Kind == yaml.MappingNode && e.Value.Kind == yaml.MappingNode {
			MergeMapping(existing, e.Value)
		}
	}
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Content = make([]*yaml.Node, len(n.Content))
	for i, child := range n.Content {
		c.Content[i] = cloneNode(child)
	}
	return &c
}

// Names reads an "is"-style reference list: a scalar, a sequence of scalars,
// or a sequence of single-key maps carrying parameters (the keys are used).
func Names(node *yaml.Node) []string {
	node = deref(node)
	if node == nil || node.Kind != yaml.SequenceNode {
		return Strings(node)
	}
	var out []string
	for _, item := range node.Content {
		item = deref(item)
		if item.Kind == yaml.MappingNode {
			for _, e := range Entries(item) {
				out = append(out, e.Key)
			}
			continue
		}
		if s := Scalar(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NamedEntries reads a declaration block written either as a mapping or as
// a list of single-entry maps (the 0.8 form).
func NamedEntries(node *yaml.Node) []Entry {
	node = deref(node)
	if node == nil {
		return nil
	}
	if node.Kind == yaml.MappingNode {
		return Entries(node)
	}
	if node.Kind != yaml.SequenceNode {
		return nil
	}
	var out []Entry
	for _, item := range node.Content {
		out = append(out, Entries(deref(item))...)
	}
	return out
}
