package mw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/jmylchreest/leadchat-api/internal/auth"
)

const testSecret = "mw-test-secret"

func signToken(t *testing.T, id auth.Identity) string {
	t.Helper()
	token, err := auth.NewVerifier(testSecret, "").Sign(id, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	return token
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def", "abc.def"},
		{"bearer abc.def", "abc.def"},
		{"  Bearer   abc  ", "abc"},
		{"abc.def", "abc.def"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := BearerToken(req); got != tt.want {
				t.Errorf("BearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	v := auth.NewVerifier(testSecret, "")
	valid := signToken(t, auth.Identity{Subject: "user_1", Email: "a@b.co"})

	tests := []struct {
		name    string
		header  string
		wantSub string
	}{
		{"no header", "", ""},
		{"valid token", "Bearer " + valid, "user_1"},
		{"invalid token stays anonymous", "Bearer garbage", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *auth.Identity
			handler := OptionalAuth(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = auth.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/chat", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			sub := ""
			if got != nil {
				sub = got.Subject
			}
			if sub != tt.wantSub {
				t.Errorf("identity subject = %q, want %q", sub, tt.wantSub)
			}
		})
	}
}

func TestOptionalAuth_Disabled(t *testing.T) {
	called := false
	handler := OptionalAuth(auth.NewVerifier("", ""), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if auth.FromContext(r.Context()) != nil {
			t.Error("no identity expected without a secret")
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Authorization", "Bearer something")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("handler not called")
	}
}

// ========================================
// HumaAuth Tests
// ========================================

type whoamiOutput struct {
	Body struct {
		Subject string `json:"subject"`
	}
}

func newAuthAPI(t *testing.T) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	api.UseMiddleware(HumaAuth(api, auth.NewVerifier(testSecret, "")))

	handler := func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		out := &whoamiOutput{}
		if id := auth.FromContext(ctx); id != nil {
			out.Body.Subject = id.Subject
		}
		return out, nil
	}
	Get(api, "/public", Public, Doc{ID: "public"}, handler)
	Get(api, "/member", Member, Doc{ID: "member"}, handler)
	Get(api, "/admin", Admin, Doc{ID: "admin"}, handler)
	Get(api, "/probe", Probe, Doc{ID: "probe"}, handler)
	return api
}

func TestHumaAuth(t *testing.T) {
	api := newAuthAPI(t)
	member := "Authorization: Bearer " + signToken(t, auth.Identity{Subject: "member"})
	admin := "Authorization: Bearer " + signToken(t, auth.Identity{Subject: "boss", Admin: true})

	tests := []struct {
		name   string
		path   string
		header []any
		want   int
	}{
		{"public anonymous", "/public", nil, http.StatusOK},
		{"protected anonymous", "/member", nil, http.StatusUnauthorized},
		{"protected invalid", "/member", []any{"Authorization: Bearer nope"}, http.StatusUnauthorized},
		{"protected member", "/member", []any{member}, http.StatusOK},
		{"admin as member", "/admin", []any{member}, http.StatusForbidden},
		{"admin as admin", "/admin", []any{admin}, http.StatusOK},
		{"probe anonymous", "/probe", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.Get(tt.path, tt.header...)
			if resp.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", resp.Code, tt.want, resp.Body.String())
			}
		})
	}
}

func TestOperationAccess(t *testing.T) {
	tests := []struct {
		access     Access
		wantAuth   bool
		wantAdmin  bool
		wantHidden bool
	}{
		{Public, false, false, false},
		{Member, true, false, false},
		{Admin, true, true, false},
		{Probe, false, false, true},
	}

	for _, tt := range tests {
		op := operation(http.MethodGet, "/x", tt.access, Doc{Summary: "x", Tags: []string{"T"}})
		if got := operationRequiresAuth(&op); got != tt.wantAuth {
			t.Errorf("access %d: requires auth = %v, want %v", tt.access, got, tt.wantAuth)
		}
		if got := requiresAdmin(&op); got != tt.wantAdmin {
			t.Errorf("access %d: requires admin = %v, want %v", tt.access, got, tt.wantAdmin)
		}
		if op.Hidden != tt.wantHidden {
			t.Errorf("access %d: hidden = %v, want %v", tt.access, op.Hidden, tt.wantHidden)
		}
		if op.Summary != "x" || len(op.Tags) != 1 {
			t.Errorf("access %d: doc not applied: %+v", tt.access, op)
		}
	}
}
