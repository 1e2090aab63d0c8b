// Package spec loads RAML documents and selects the object model matching
// their declared version. The choice is made once per load; callers only
// see the raml facade afterwards.
package spec

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/raml/raml08"
	"github.com/mark3labs/raml2go/internal/raml/raml10"
)

type (
	SpecError = raml.SpecError
	ErrorCode = raml.ErrorCode
	Option    = raml.Option
	Settings  = raml.Settings
)

const (
	InputError   = raml.InputError
	NetworkError = raml.NetworkError
	ParseError   = raml.ParseError
	VersionError = raml.VersionError
)

var (
	WithHTTPTimeout     = raml.WithHTTPTimeout
	WithMaxRetries      = raml.WithMaxRetries
	WithBackoffBase     = raml.WithBackoffBase
	WithAllowFileRefs   = raml.WithAllowFileRefs
	WithMaxIncludeDepth = raml.WithMaxIncludeDepth
)

var factories = map[raml.Version]raml.Factory{
	raml.V08: raml08.NewFactory(),
	raml.V10: raml10.NewFactory(),
}

// FactoryFor returns the factory for version v.
func FactoryFor(v raml.Version) (raml.Factory, error) {
	f, ok := factories[v]
	if !ok {
		return nil, &SpecError{Code: VersionError, Message: fmt.Sprintf("spec: unsupported RAML version %q", v)}
	}
	return f, nil
}

// Versions lists the supported RAML versions.
func Versions() []raml.Version {
	out := make([]raml.Version, 0, len(factories))
	for v := range factories {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Load reads the RAML document at input (a filesystem path or an http/https
// URL), resolves its includes, and decodes it with the factory for its
// declared version.
//
// file:// URLs are blocked. Includes of a remote document may only point at
// other URLs unless WithAllowFileRefs(true) is given.
func Load(ctx context.Context, input string, opts ...Option) (raml.Root, error) {
	doc, err := raml.ReadDocument(ctx, input, raml.NewSettings(opts...))
	if err != nil {
		return nil, err
	}
	return decode(ctx, doc)
}

// Parse decodes an in-memory document. location anchors relative includes
// and may be empty.
func Parse(ctx context.Context, data []byte, location string, opts ...Option) (raml.Root, error) {
	doc, err := raml.ParseDocument(ctx, data, location, raml.NewSettings(opts...))
	if err != nil {
		return nil, err
	}
	return decode(ctx, doc)
}

func decode(ctx context.Context, doc *raml.Document) (raml.Root, error) {
	v, err := doc.Version()
	if err != nil {
		return nil, &SpecError{Code: VersionError, Message: err.Error(), Location: doc.Location, Cause: err}
	}
	f, err := FactoryFor(v)
	if err != nil {
		return nil, err
	}
	root, err := f.Decode(doc)
	if err != nil {
		return nil, err
	}
	logr.FromContextOrDiscard(ctx).V(1).Info("loaded RAML document",
		"location", doc.Location, "version", string(v), "resources", len(root.Resources()))
	return root, nil
}
