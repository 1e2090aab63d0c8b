package rules

import (
	"fmt"
	"strings"

	"github.com/mark3labs/raml2go/internal/codemodel"
	"github.com/mark3labs/raml2go/internal/metadata"
	"github.com/mark3labs/raml2go/internal/schema"
)

func init() {
	Bodies.Register("model-struct", "JSON struct per body with a Validate method for required fields",
		func() (BodyRule, error) { return modelStruct{}, nil })
}

// modelStruct renders a body as a struct with JSON tags, or as a defined
// type when the body is a named non-object schema. Fields referring to a
// member of the body's own cycle are pointers.
type modelStruct struct{}

func (modelStruct) Apply(b *metadata.Body, ctx *Context) (*codemodel.File, error) {
	f, err := ctx.Model.NewFile(fileName(ModelsDir, b.Name))
	if err != nil {
		return nil, err
	}
	ty := typer{ctx: ctx, file: f, owner: b.Name}
	doc := b.Name + " is generated from " + b.Source + "."
	if b.Description != "" {
		doc = b.Name + ": " + b.Description
	}

	if b.Alias != nil {
		underlying, err := ty.goType(*b.Alias)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name, err)
		}
		if _, err := f.AddType(&codemodel.Type{Name: b.Name, Doc: doc, Kind: codemodel.Defined, Underlying: underlying}); err != nil {
			return nil, err
		}
		return f, nil
	}

	t, err := f.AddType(&codemodel.Type{Name: b.Name, Doc: doc})
	if err != nil {
		return nil, err
	}
	taken := map[string]bool{"Validate": true}
	var checks []string
	for _, field := range b.Fields {
		goType, err := ty.goType(field.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", b.Name, field.Name, err)
		}
		pointer := isRef(&field.Type) && (!field.Required || ctx.Graph.Cyclic(b.Name, field.Type.Body))
		if pointer {
			goType = "*" + goType
		}
		tag := field.Name
		if !field.Required {
			tag += ",omitempty"
		}
		name := identifier(field.Name, true, taken)
		if err := t.AddField(&codemodel.Field{
			Name: name,
			Type: goType,
			Tag:  fmt.Sprintf("json:%q", tag),
			Doc:  field.Description,
		}); err != nil {
			return nil, err
		}
		if check := requiredCheck(name, field, pointer); field.Required && check != "" {
			checks = append(checks, fmt.Sprintf("if %s {\nreturn errors.New(%q)\n}", check, field.Name+" is required"))
		}
	}

	body := "return nil"
	if len(checks) > 0 {
		f.Import("errors")
		body = strings.Join(checks, "\n") + "\nreturn nil"
	}
	if err := t.AddMethod(&codemodel.Func{
		Name:     "Validate",
		Doc:      "Validate reports the first missing required field.",
		Receiver: "m *" + b.Name,
		Results:  []string{"error"},
		Body:     body,
	}); err != nil {
		return nil, err
	}
	return f, nil
}

// requiredCheck returns the condition under which a required field counts
// as missing, or "" when its zero value is acceptable.
func requiredCheck(goName string, field *metadata.Field, pointer bool) string {
	switch {
	case pointer:
		return "m." + goName + " == nil"
	case field.Type.Kind == schema.String:
		return "m." + goName + ` == ""`
	case field.Type.Kind == schema.Array, field.Type.Kind == schema.Object:
		return "m." + goName + " == nil"
	}
	return ""
}
