package metadata

import (
	"fmt"
	"strings"
)

// GroupBy selects which resources share a controller.
type GroupBy string

const (
	// GroupByFirstSegment groups by the first path segment. A (controller)
	// annotation on a resource or one of its ancestors takes precedence.
	GroupByFirstSegment GroupBy = "first-segment"
	// GroupByResource gives every resource with actions its own controller.
	GroupByResource GroupBy = "resource"
	// GroupBySingle puts every action in one controller named after the API.
	GroupBySingle GroupBy = "single"
)

var groupByValues = []GroupBy{GroupByFirstSegment, GroupByResource, GroupBySingle}

// GroupByValues lists the accepted policy names.
func GroupByValues() []string {
	out := make([]string, len(groupByValues))
	for i, g := range groupByValues {
		out[i] = string(g)
	}
	return out
}

// ParseGroupBy maps a policy name to a GroupBy. Empty means the default.
func ParseGroupBy(s string) (GroupBy, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return GroupByFirstSegment, nil
	}
	for _, g := range groupByValues {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown grouping policy %q (want one of %s)", s, strings.Join(GroupByValues(), ", "))
}

const DefaultMediaType = "application/json"

type Options struct {
	// BasePathOverride replaces the document's baseUri when non-nil.
	BasePathOverride *string
	GroupBy          GroupBy
	// MediaTypeFilter restricts extraction to bodies of the default media
	// type and skips actions that never use it.
	MediaTypeFilter bool
	// DefaultMediaType overrides the document's mediaType.
	DefaultMediaType string
}

type Option func(*Options)

func WithBasePath(p string) Option          { return func(o *Options) { o.BasePathOverride = &p } }
func WithGroupBy(g GroupBy) Option          { return func(o *Options) { o.GroupBy = g } }
func WithMediaTypeFilter(on bool) Option    { return func(o *Options) { o.MediaTypeFilter = on } }
func WithDefaultMediaType(mt string) Option { return func(o *Options) { o.DefaultMediaType = mt } }
