package gql

import (
	"context"
	"fmt"
	"net/http"
)

// Stage is one step of the outgoing request pipeline. Stages run in
// registration order and may only rewrite headers.
type Stage func(ctx context.Context, header http.Header) error

// TokenSource supplies the current bearer credential. An empty token
// with a nil error means nobody is signed in; the Authorization header
// is omitted in that case.
type TokenSource func(ctx context.Context) (string, error)

// BearerStage attaches the Authorization header from the session's
// token source.
func BearerStage(source TokenSource) Stage {
	return func(ctx context.Context, header http.Header) error {
		token, err := source(ctx)
		if err != nil {
			return fmt.Errorf("fetching bearer token: %w", err)
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// TraceStage attaches the X-Console-Url header carrying the current
// route path, for server-side request diagnostics.
func TraceStage(route func() string) Stage {
	return func(ctx context.Context, header http.Header) error {
		header.Set("X-Console-Url", route())
		return nil
	}
}

// FlagStage attaches the X-MONDOO-FEATURE-FLAGS header with the merged
// feature-flag summary. The header is omitted when no flags are set.
func FlagStage(flagHeader func() string) Stage {
	return func(ctx context.Context, header http.Header) error {
		if v := flagHeader(); v != "" {
			header.Set("X-MONDOO-FEATURE-FLAGS", v)
		}
		return nil
	}
}
