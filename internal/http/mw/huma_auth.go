package mw

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/leadchat-api/internal/auth"
)

// SecurityScheme is the name of the security scheme used in OpenAPI.
const SecurityScheme = "bearerAuth"

// OperationMetadataKey is the key for storing additional operation requirements.
type OperationMetadataKey string

// MetaKeyRequireAdmin marks operations restricted to admin identities.
const MetaKeyRequireAdmin OperationMetadataKey = "requireAdmin"

// HumaAuth returns a Huma middleware that enforces operation security.
// Operations without bearerAuth pass through untouched.
func HumaAuth(api huma.API, v *auth.Verifier) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op == nil || !operationRequiresAuth(op) {
			next(ctx)
			return
		}

		id := auth.FromContext(ctx.Context())
		if id == nil {
			token := parseBearer(ctx.Header("Authorization"))
			if token == "" {
				huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing authorization header")
				return
			}
			verified, err := v.Verify(token)
			if err != nil {
				slog.DebugContext(ctx.Context(), "auth validation failed", "error", err)
				huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid token")
				return
			}
			id = verified
		}

		if requiresAdmin(op) && !id.Admin {
			huma.WriteErr(api, ctx, http.StatusForbidden, "admin access required")
			return
		}

		next(huma.WithContext(ctx, auth.WithIdentity(ctx.Context(), id)))
	}
}

// operationRequiresAuth checks if the operation has bearerAuth in its security requirements.
func operationRequiresAuth(op *huma.Operation) bool {
	for _, secReq := range op.Security {
		if _, ok := secReq[SecurityScheme]; ok {
			return true
		}
	}
	return false
}

func requiresAdmin(op *huma.Operation) bool {
	if op.Metadata == nil {
		return false
	}
	b, _ := op.Metadata[string(MetaKeyRequireAdmin)].(bool)
	return b
}
