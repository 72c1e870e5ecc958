package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/transport"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// RequestValidator checks request parameters and bodies against an OpenAPI
// document before they reach a handler. Requests for paths the document does
// not describe pass through untouched.
type RequestValidator struct {
	*transport.BaseHandler
	router   routers.Router
	basePath string
}

// NewRequestValidator loads an OpenAPI 3 document and matches routes below
// basePath, e.g. "/api/v1". Servers listed in the document are ignored.
func NewRequestValidator(document []byte, basePath string, logger *slog.Logger) (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	doc.Servers = nil

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return &RequestValidator{
		BaseHandler: transport.NewBaseHandler(logger),
		router:      router,
		basePath:    strings.TrimSuffix(basePath, "/"),
	}, nil
}

func (v *RequestValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := v.Validate(r.Context(), r); err != nil {
			v.HandleServiceError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Validate returns a validation AppError when r does not satisfy the
// operation it maps to. The request body is restored after reading. Secured
// operations called without a bearer token are left to the gate, so such
// callers get 401 before any schema diagnostics.
func (v *RequestValidator) Validate(ctx context.Context, r *http.Request) error {
	if !strings.HasPrefix(r.URL.Path, v.basePath+"/") {
		return nil
	}

	lookup := r.Clone(ctx)
	lookup.URL.Path = strings.TrimPrefix(r.URL.Path, v.basePath)
	lookup.URL.RawPath = ""

	route, pathParams, err := v.router.FindRoute(lookup)
	if err != nil {
		// unknown paths and methods are chi's to answer
		return nil
	}
	if requiresAuth(route) && v.ExtractTokenFromHeader(r) == "" {
		return nil
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}
	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		v.Logger.WarnContext(ctx, "request rejected by openapi validation",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		return internal.NewValidationError(describe(err), internal.ErrCodeValidationFailed)
	}
	return nil
}

// requiresAuth reports whether the operation has a security requirement of
// its own or inherits the document's.
func requiresAuth(route *routers.Route) bool {
	if sec := route.Operation.Security; sec != nil {
		return len(*sec) > 0
	}
	return route.Spec != nil && len(route.Spec.Security) > 0
}

// describe trims kin-openapi's verbose errors to something a client can act on.
func describe(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			field := strings.Join(schemaErr.JSONPointer(), ".")
			if reqErr.Parameter != nil {
				field = reqErr.Parameter.Name
			}
			if field != "" {
				return fmt.Sprintf("%s: %s", field, schemaErr.Reason)
			}
			return schemaErr.Reason
		}
		reason := reqErr.Reason
		if reason == "" && reqErr.Err != nil {
			reason = reqErr.Err.Error()
		}
		if reqErr.Parameter != nil {
			return fmt.Sprintf("%s: %s", reqErr.Parameter.Name, reason)
		}
		if reason != "" {
			return reason
		}
	}
	return "request does not match the API description"
}
