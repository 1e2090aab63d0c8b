package rules

import "testing"

func TestPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method, path, want string
	}{
		{"get", "", "GET /{$}"},
		{"get", "/", "GET /{$}"},
		{"get", "/v1/", "GET /v1/{$}"},
		{"post", "/api/items", "POST /api/items"},
		{"put", "/items/{item-id}", "PUT /items/{item_id}"},
		{"delete", "/items/{id}/", "DELETE /items/{id}/{$}"},
	}
	for _, tt := range tests {
		if got := pattern(tt.method, tt.path); got != tt.want {
			t.Errorf("pattern(%q, %q) = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}
