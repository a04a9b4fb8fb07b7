package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(map[string][]string{
		"host":   {"*"},
		"helper": {"board:*", "library:view"},
	})
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"host", "library:write", true},
		{"helper", "board:reset", true},
		{"helper", "library:view", true},
		{"helper", "library:write", false},
		{"helper", "board", false},
		{"helper", "boardroom:open", false},
		{"nobody", "board:reset", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestDefaultPolicyCoversHostRoutes(t *testing.T) {
	c := NewChecker(nil)
	for _, perm := range []string{"question:answer", "board:reset", "quiz:generate", "library:manage", "library:view", "library:open", "events:view"} {
		if !c.Has("host", perm) {
			t.Errorf("host lacks %q", perm)
		}
	}
	if c.Has("player", "board:reset") {
		t.Error("unknown roles must have no permissions")
	}
}

func TestRequire(t *testing.T) {
	h := Require("library:write")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for role, want := range map[string]int{
		"host":   http.StatusNoContent,
		"player": http.StatusForbidden,
		"":       http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("role %q: status = %d, want %d", role, w.Code, want)
		}
	}
}
