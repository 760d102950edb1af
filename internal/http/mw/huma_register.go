package mw

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Access is the audience an operation is registered for.
type Access int

const (
	// Public operations are documented and need no token.
	Public Access = iota
	// Member operations need any valid bearer token.
	Member
	// Admin operations need a token carrying the admin claim.
	Admin
	// Probe operations need no token and are left out of the OpenAPI document.
	Probe
)

// Doc is the OpenAPI description of an operation.
type Doc struct {
	ID          string
	Summary     string
	Description string
	Tags        []string
}

var bearerSecurity = []map[string][]string{{SecurityScheme: {}}}

func operation(method, path string, access Access, doc Doc) huma.Operation {
	op := huma.Operation{
		Method:      method,
		Path:        path,
		OperationID: doc.ID,
		Summary:     doc.Summary,
		Description: doc.Description,
		Tags:        doc.Tags,
	}
	switch access {
	case Member:
		op.Security = bearerSecurity
	case Admin:
		op.Security = bearerSecurity
		op.Metadata = map[string]any{string(MetaKeyRequireAdmin): true}
	case Probe:
		op.Hidden = true
	}
	return op
}

// Get registers a GET operation for the given audience.
func Get[I, O any](api huma.API, path string, access Access, doc Doc, handler func(context.Context, *I) (*O, error)) {
	huma.Register(api, operation(http.MethodGet, path, access, doc), handler)
}

// Post registers a POST operation for the given audience.
func Post[I, O any](api huma.API, path string, access Access, doc Doc, handler func(context.Context, *I) (*O, error)) {
	huma.Register(api, operation(http.MethodPost, path, access, doc), handler)
}
