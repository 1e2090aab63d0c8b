package raml10

import (
	"context"
	"fmt"

	"github.com/mark3labs/raml2go/internal/raml"
)

// Factory builds 1.0 documents.
type Factory struct{}

var _ raml.Factory = (*Factory)(nil)

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Version() raml.Version { return raml.V10 }

func (f *Factory) BuildRoot(ctx context.Context, locator string, opts ...raml.Option) (raml.Root, error) {
	doc, err := raml.ReadDocument(ctx, locator, raml.NewSettings(opts...))
	if err != nil {
		return nil, err
	}
	return f.Decode(doc)
}

func (f *Factory) Decode(doc *raml.Document) (raml.Root, error) {
	v, err := doc.Version()
	if err != nil {
		return nil, &raml.SpecError{Code: raml.VersionError, Message: err.Error(), Location: doc.Location, Cause: err}
	}
	if v != raml.V10 {
		return nil, &raml.SpecError{Code: raml.VersionError, Message: fmt.Sprintf("raml: %s document handed to the 1.0 factory", v), Location: doc.Location}
	}
	api, err := decode(doc)
	if err != nil {
		return nil, err
	}
	return &root{api: api}, nil
}

func (f *Factory) CreateRoot() raml.Root                      { return &root{api: NewApi()} }
func (f *Factory) CreateResource() raml.Resource              { return &resource{r: newResource()} }
func (f *Factory) CreateAction(t raml.ActionType) raml.Action { return &method{m: newMethod(t)} }
func (f *Factory) NewEmitter() raml.Emitter                   { return emitter{} }
