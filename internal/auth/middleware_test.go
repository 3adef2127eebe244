package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// echoIdentity is a terminal handler that records whether an identity
// reached it.
func echoIdentity(t *testing.T, got *Identity, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Error("handler ran without identity in context")
		}
		*got = id
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	ts := newTestTokenService(t)
	want := Identity{UserID: "user-1", Email: "one@example.com"}
	token, _ := ts.Generate(want)

	var got Identity
	var called bool
	h := RequireAuth(ts)(echoIdentity(t, &got, &called))

	req := httptest.NewRequest(http.MethodGet, "/api/songs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("handler was not called for a valid token")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got != want {
		t.Errorf("identity = %+v, want %+v", got, want)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	ts := newTestTokenService(t)
	valid, _ := ts.Generate(Identity{UserID: "user-1"})
	expired, _ := ts.GenerateWithDuration(Identity{UserID: "user-1"}, -time.Minute)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + valid},
		{"bare token without scheme", valid},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			h := RequireAuth(ts)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/songs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if called {
				t.Fatal("handler ran despite invalid credentials")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
