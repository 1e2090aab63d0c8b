package schema

// Structural schema model shared by both RAML versions. Schemas are trees:
// references to declared types are held by name (Ref), never by pointer, so
// a schema graph with cycles can still be walked without a visited set.

import "strings"

type Kind string

const (
	Object  Kind = "object"
	Array   Kind = "array"
	String  Kind = "string"
	Integer Kind = "integer"
	Number  Kind = "number"
	Boolean Kind = "boolean"
	Date    Kind = "date"
	File    Kind = "file"
	Any     Kind = "any"
	Ref     Kind = "ref"
)

type Schema struct {
	Kind        Kind
	Ref         string // declared type name when Kind == Ref
	Format      string
	Description string
	Enum        []string
	Fields      []*Field // object properties in declaration order
	Items       *Schema  // element type when Kind == Array
}

type Field struct {
	Name     string
	Required bool
	Schema   *Schema
}

// NewRef returns a reference to a declared type.
func NewRef(name string) *Schema { return &Schema{Kind: Ref, Ref: name} }

// NewArray returns an array of items.
func NewArray(items *Schema) *Schema { return &Schema{Kind: Array, Items: items} }

// NewObject returns an object with the given fields.
func NewObject(fields ...*Field) *Schema { return &Schema{Kind: Object, Fields: fields} }

// IsPrimitive reports whether s maps onto a scalar type.
func (s *Schema) IsPrimitive() bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case String, Integer, Number, Boolean, Date, File, Any:
		return true
	}
	return false
}

// Field returns the named field or nil.
func (s *Schema) Field(name string) *Field {
	if s == nil {
		return nil
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Refs returns every declared type name referenced from s, in first-seen order.
func (s *Schema) Refs() []string {
	var out []string
	seen := map[string]struct{}{}
	stack := []*Schema{s}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil {
			continue
		}
		if cur.Kind == Ref {
			if _, ok := seen[cur.Ref]; !ok {
				seen[cur.Ref] = struct{}{}
				out = append(out, cur.Ref)
			}
			continue
		}
		if cur.Items != nil {
			stack = append(stack, cur.Items)
		}
		for i := len(cur.Fields) - 1; i >= 0; i-- {
			stack = append(stack, cur.Fields[i].Schema)
		}
	}
	return out
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	c.Enum = append([]string(nil), s.Enum...)
	c.Items = s.Items.Clone()
	if s.Fields != nil {
		c.Fields = make([]*Field, len(s.Fields))
		for i, f := range s.Fields {
			c.Fields[i] = &Field{Name: f.Name, Required: f.Required, Schema: f.Schema.Clone()}
		}
	}
	return &c
}

// KindOf maps a RAML or JSON Schema primitive type name to a Kind. The second
// return value carries an implied format (e.g. "datetime" for RAML dates).
func KindOf(typeName string) (Kind, string, bool) {
	switch strings.ToLower(strings.TrimSpace(typeName)) {
	case "string":
		return String, "", true
	case "integer":
		return Integer, "", true
	case "number":
		return Number, "", true
	case "boolean":
		return Boolean, "", true
	case "date":
		return Date, "date", true
	case "date-only":
		return Date, "date-only", true
	case "time-only":
		return Date, "time-only", true
	case "datetime-only":
		return Date, "datetime-only", true
	case "datetime":
		return Date, "datetime", true
	case "file":
		return File, "", true
	case "object":
		return Object, "", true
	case "array":
		return Array, "", true
	case "any", "":
		return Any, "", true
	}
	return "", "", false
}
