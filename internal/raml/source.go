package raml

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings configures how documents and their includes are read.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// AllowFileRefs permits file includes from a document fetched over HTTP.
	// Includes of a local document are always allowed.
	AllowFileRefs bool
	// MaxIncludeDepth bounds nested !include chains.
	MaxIncludeDepth int
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout:     10 * time.Second,
		MaxRetries:      3,
		BackoffBase:     200 * time.Millisecond,
		AllowFileRefs:   false,
		MaxIncludeDepth: 32,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option    { return func(s *Settings) { s.AllowFileRefs = allow } }
func WithMaxIncludeDepth(n int) Option       { return func(s *Settings) { s.MaxIncludeDepth = n } }

// NewSettings applies opts over DefaultSettings.
func NewSettings(opts ...Option) Settings {
	s := DefaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Document is a read RAML file with every !include already spliced in.
type Document struct {
	Location string // absolute path or URL
	Header   string // first line, e.g. "#%RAML 1.0"
	Root     *yaml.Node
}

// Version returns the RAML version declared by the header line.
func (d *Document) Version() (Version, error) {
	return ParseHeader(d.Header)
}

// ParseHeader extracts the version from a "#%RAML x.y" header line.
func ParseHeader(header string) (Version, error) {
	h := strings.TrimSpace(header)
	if !strings.HasPrefix(h, "#%RAML") {
		return "", fmt.Errorf("raml: missing '#%%RAML' header line")
	}
	fields := strings.Fields(strings.TrimPrefix(h, "#%RAML"))
	if len(fields) == 0 {
		return "", fmt.Errorf("raml: header %q has no version", h)
	}
	switch fields[0] {
	case string(V08):
		return V08, nil
	case string(V10):
		return V10, nil
	}
	return "", fmt.Errorf("raml: unsupported version %q", fields[0])
}

// ReadDocument loads locator (a filesystem path or http/https URL), parses
// it as YAML and resolves its includes.
func ReadDocument(ctx context.Context, locator string, settings Settings) (*Document, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, &SpecError{Code: InputError, Message: "raml: input is empty"}
	}
	r := &reader{settings: settings, client: &http.Client{Timeout: settings.HTTPTimeout}}

	loc, remote, err := r.classify(locator)
	if err != nil {
		return nil, err
	}
	r.allowFiles = !remote || settings.AllowFileRefs

	raw, err := r.read(ctx, loc)
	if err != nil {
		return nil, err
	}
	header := firstLine(raw)
	if _, err := ParseHeader(header); err != nil {
		return nil, &SpecError{Code: VersionError, Message: err.Error(), Location: loc, Cause: err}
	}

	root, err := parseYAML(raw, loc)
	if err != nil {
		return nil, err
	}
	if err := r.resolveIncludes(ctx, root, loc, []string{loc}); err != nil {
		return nil, err
	}
	return &Document{Location: loc, Header: header, Root: root}, nil
}

// ParseDocument builds a Document from in-memory bytes. Includes are resolved
// relative to location, which may be empty when the document has none.
func ParseDocument(ctx context.Context, data []byte, location string, settings Settings) (*Document, error) {
	header := firstLine(data)
	if _, err := ParseHeader(header); err != nil {
		return nil, &SpecError{Code: VersionError, Message: err.Error(), Location: location, Cause: err}
	}
	root, err := parseYAML(data, location)
	if err != nil {
		return nil, err
	}
	r := &reader{settings: settings, client: &http.Client{Timeout: settings.HTTPTimeout}, allowFiles: true}
	if err := r.resolveIncludes(ctx, root, location, []string{location}); err != nil {
		return nil, err
	}
	return &Document{Location: location, Header: header, Root: root}, nil
}

type reader struct {
	settings   Settings
	client     *http.Client
	allowFiles bool
}

func (r *reader) classify(locator string) (string, bool, error) {
	u, uerr := url.Parse(locator)
	if uerr == nil && u.Scheme != "" && u.Host != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return locator, true, nil
		case "file":
			return "", false, &SpecError{Code: InputError, Message: "raml: file:// URLs are blocked, pass a filesystem path", Location: locator}
		default:
			return "", false, &SpecError{Code: InputError, Message: fmt.Sprintf("raml: unsupported URL scheme %q (only http/https allowed)", u.Scheme), Location: locator}
		}
	}
	abs, err := filepath.Abs(locator)
	if err != nil {
		return "", false, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: locator, Cause: err}
	}
	return abs, false, nil
}

func (r *reader) read(ctx context.Context, loc string) ([]byte, error) {
	if isHTTP(loc) {
		raw, err := fetchWithRetry(ctx, r.client, loc, r.settings)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", loc, err), Location: loc, Cause: err}
		}
		return raw, nil
	}
	if !r.allowFiles {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("raml: blocked file include %s", loc), Location: loc}
	}
	raw, err := os.ReadFile(loc)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", loc, err), Location: loc, Cause: err}
	}
	return raw, nil
}

func (r *reader) resolveIncludes(ctx context.Context, node *yaml.Node, base string, chain []string) error {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!include" {
		return r.include(ctx, node, base, chain)
	}
	for _, child := range node.Content {
		if err := r.resolveIncludes(ctx, child, base, chain); err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) include(ctx context.Context, node *yaml.Node, base string, chain []string) error {
	target := resolveRelative(base, strings.TrimSpace(node.Value))
	if len(chain) > r.settings.MaxIncludeDepth && r.settings.MaxIncludeDepth > 0 {
		return &SpecError{Code: ParseError, Message: fmt.Sprintf("raml: include depth exceeds %d", r.settings.MaxIncludeDepth), Location: target}
	}
	for _, seen := range chain {
		if seen == target {
			return &SpecError{Code: ParseError, Message: fmt.Sprintf("raml: include cycle: %s -> %s", strings.Join(chain, " -> "), target), Location: target}
		}
	}
	raw, err := r.read(ctx, target)
	if err != nil {
		return err
	}

	switch strings.ToLower(path.Ext(target)) {
	case ".raml", ".yaml", ".yml":
		parsed, err := parseYAML(raw, target)
		if err != nil {
			return err
		}
		if err := r.resolveIncludes(ctx, parsed, target, append(chain, target)); err != nil {
			return err
		}
		*node = *parsed
	default:
		*node = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(raw), Line: node.Line, Column: node.Column}
	}
	return nil
}

func parseYAML(raw []byte, loc string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse %s: %v", loc, err), Location: loc, Cause: err}
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0], nil
	}
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	return &doc, nil
}

func resolveRelative(base, ref string) string {
	if isHTTP(ref) || filepath.IsAbs(ref) {
		return ref
	}
	if isHTTP(base) {
		bu, err := url.Parse(base)
		if err != nil {
			return ref
		}
		ru, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return bu.ResolveReference(ru).String()
	}
	if base == "" {
		abs, err := filepath.Abs(ref)
		if err != nil {
			return ref
		}
		return abs
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(ref))
}

func isHTTP(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func firstLine(raw []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	if sc.Scan() {
		return strings.TrimPrefix(strings.TrimSpace(sc.Text()), "\ufeff")
	}
	return ""
}

func fetchWithRetry(ctx context.Context, client *http.Client, rawURL string, settings Settings) ([]byte, error) {
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

func fetchOnce(ctx context.Context, client *http.Client, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
