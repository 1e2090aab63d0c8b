package metadata

import (
	"net/url"
	"strings"

	"github.com/mark3labs/raml2go/internal/raml"
)

// ResolveBasePath returns the path prefix for every generated route.
//
// A non-nil override wins over the document's baseUri. The literal "/"
// means no prefix at all, since configuration cannot always express an
// empty string. Otherwise the baseUri is used with {version} substituted,
// its scheme and host dropped and any trailing "/" removed.
func ResolveBasePath(root raml.Root, override *string) string {
	base := ""
	if root != nil {
		base = root.BaseURI()
	}
	if override != nil {
		base = *override
	}
	if base == "/" {
		return ""
	}
	if override == nil && root != nil {
		base = strings.ReplaceAll(base, "{version}", root.APIVersion())
	}
	base = strings.TrimSpace(base)
	if u, err := url.Parse(base); err == nil && u.Scheme != "" && u.Host != "" {
		base = u.EscapedPath()
		if p, err := url.PathUnescape(base); err == nil {
			base = p
		}
	}
	base = strings.TrimRight(base, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base
}
