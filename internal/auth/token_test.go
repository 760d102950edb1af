package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", "https://id.example.com/")
	token, err := v.Sign(Identity{Subject: "user_1", Email: "a@b.co", Name: "Ada", Admin: true}, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.Subject != "user_1" || id.Email != "a@b.co" || id.Name != "Ada" || !id.Admin {
		t.Errorf("Verify() = %+v", id)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("test-secret", "")

	expired, _ := v.Sign(Identity{Subject: "u"}, -time.Hour)
	otherKey, _ := NewVerifier("other-secret", "").Sign(Identity{Subject: "u"}, time.Hour)
	noSubject, _ := v.Sign(Identity{}, time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, ErrTokenExpired},
		{"wrong key", otherKey, ErrInvalidToken},
		{"alg none", noneToken, ErrInvalidToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"no subject", noSubject, ErrMissingClaims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifier_IssuerMismatch(t *testing.T) {
	token, _ := NewVerifier("s", "https://a.example.com").Sign(Identity{Subject: "u"}, time.Hour)
	if _, err := NewVerifier("s", "https://b.example.com").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifier_Disabled(t *testing.T) {
	v := NewVerifier("", "")
	if v.Enabled() {
		t.Error("Enabled() = true without a secret")
	}
	if _, err := v.Verify("x"); !errors.Is(err, ErrNoSecret) {
		t.Errorf("Verify() error = %v, want ErrNoSecret", err)
	}
}

func TestIdentityContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("FromContext() on empty context should be nil")
	}
	id := &Identity{Subject: "u"}
	if got := FromContext(WithIdentity(context.Background(), id)); got != id {
		t.Errorf("FromContext() = %v, want %v", got, id)
	}
}
