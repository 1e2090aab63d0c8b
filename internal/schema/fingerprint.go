package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Canonical renders the structural identity of s: kinds, formats, enums,
// field names (sorted), required flags, item types and reference names.
// Descriptions are not part of the identity.
func (s *Schema) Canonical() string {
	var b strings.Builder
	writeCanonical(&b, s)
	return b.String()
}

// Fingerprint is a short stable hash of Canonical.
func (s *Schema) Fingerprint() string {
	sum := sha256.Sum256([]byte(s.Canonical()))
	return hex.EncodeToString(sum[:12])
}

func writeCanonical(b *strings.Builder, s *Schema) {
	if s == nil {
		b.WriteString("nil")
		return
	}
	switch s.Kind {
	case Ref:
		b.WriteString("ref(")
		b.WriteString(s.Ref)
		b.WriteString(")")
		return
	case Array:
		b.WriteString("[")
		writeCanonical(b, s.Items)
		b.WriteString("]")
		return
	}
	b.WriteString(string(s.Kind))
	if s.Format != "" {
		b.WriteString(":")
		b.WriteString(s.Format)
	}
	if len(s.Enum) > 0 {
		enum := append([]string(nil), s.Enum...)
		sort.Strings(enum)
		b.WriteString("<")
		b.WriteString(strings.Join(enum, "|"))
		b.WriteString(">")
	}
	if s.Kind != Object {
		return
	}
	fields := append([]*Field(nil), s.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	b.WriteString("{")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(f.Name)
		if f.Required {
			b.WriteString("!")
		} else {
			b.WriteString("?")
		}
		b.WriteString(":")
		writeCanonical(b, f.Schema)
	}
	b.WriteString("}")
}
