// Package gql is the GraphQL session layer. A Client owns one request
// pipeline per authenticated session: ordered header stages (bearer
// credential, route trace, feature-flag summary) followed by dispatch
// to the configured regional endpoint, plus a normalized entity cache
// with the console's type and pagination policies.
//
// The cache is shared for the lifetime of the session and discarded
// wholesale on session change, never selectively invalidated.
package gql
