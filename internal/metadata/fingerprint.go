package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/mark3labs/raml2go/internal/schema"
)

func fingerprint(fields []*Field, alias *TypeRef) string {
	var b strings.Builder
	if alias != nil {
		b.WriteString("=")
		writeTypeRef(&b, *alias)
	}
	sorted := append([]*Field(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	b.WriteString("{")
	for i, f := range sorted {
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
		writeTypeRef(&b, f.Type)
	}
	b.WriteString("}")
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:12])
}

func writeTypeRef(b *strings.Builder, t TypeRef) {
	switch t.Kind {
	case schema.Ref:
		b.WriteString("ref(" + t.Body + ")")
		return
	case schema.Array:
		b.WriteString("[")
		if t.Elem != nil {
			writeTypeRef(b, *t.Elem)
		}
		b.WriteString("]")
		return
	}
	b.WriteString(string(t.Kind))
	if t.Format != "" {
		b.WriteString(":" + t.Format)
	}
	if len(t.Enum) > 0 {
		enum := append([]string(nil), t.Enum...)
		sort.Strings(enum)
		b.WriteString("<" + strings.Join(enum, "|") + ">")
	}
}

// hasInlineObject reports whether resolving s creates bodies of its own.
func hasInlineObject(s *schema.Schema) bool {
	if s == nil {
		return false
	}
	for _, f := range s.Fields {
		if isInlineObject(f.Schema) {
			return true
		}
	}
	return s.Kind != schema.Object && isInlineObject(s)
}

func isInlineObject(s *schema.Schema) bool {
	for s != nil && s.Kind == schema.Array {
		s = s.Items
	}
	return s != nil && s.Kind == schema.Object && len(s.Fields) > 0
}
