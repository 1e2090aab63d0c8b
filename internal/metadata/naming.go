package metadata

import (
	"strconv"
	"strings"

	"github.com/mark3labs/raml2go/internal/raml"
	"github.com/mark3labs/raml2go/internal/strcase"
)

var verbs = map[raml.ActionType]string{
	raml.GET:     "Get",
	raml.POST:    "Create",
	raml.PUT:     "Update",
	raml.PATCH:   "Patch",
	raml.DELETE:  "Delete",
	raml.HEAD:    "Head",
	raml.OPTIONS: "Options",
	raml.TRACE:   "Trace",
}

// pathName turns a resource path into an identifier: "/items/{id}" becomes
// "ItemsByID".
func pathName(path string) string {
	var b strings.Builder
	for _, seg := range segments(path) {
		if isTemplate(seg) {
			b.WriteString("By")
		}
		b.WriteString(strcase.ToPascalCase(seg))
	}
	return b.String()
}

// methodName names the Go method serving an action. A display name wins
// over the verb and path.
func methodName(a raml.Action, relative string) string {
	if n := strcase.ToPascalCase(a.DisplayName()); n != "" {
		return n
	}
	return verbs[a.Type()] + pathName(relative)
}

func segments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isTemplate(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

// templateNames returns the URI parameter names of path in order.
func templateNames(path string) []string {
	var out []string
	for _, seg := range segments(path) {
		for seg != "" {
			open := strings.IndexByte(seg, '{')
			if open < 0 {
				break
			}
			end := strings.IndexByte(seg[open:], '}')
			if end < 0 {
				break
			}
			out = append(out, seg[open+1:open+end])
			seg = seg[open+end+1:]
		}
	}
	return out
}

// commonPrefix returns the longest segment-wise common prefix of two paths.
func commonPrefix(a, b string) string {
	as, bs := segments(a), segments(b)
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	if n == 0 {
		return ""
	}
	return "/" + strings.Join(as[:n], "/")
}

// uniqueNames hands out names, suffixing repeats with 2, 3 and so on.
type uniqueNames map[string]struct{}

func (u uniqueNames) take(name string) string {
	candidate := name
	for i := 2; ; i++ {
		if _, taken := u[candidate]; !taken {
			u[candidate] = struct{}{}
			return candidate
		}
		candidate = name + strconv.Itoa(i)
	}
}
