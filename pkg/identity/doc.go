// Package identity wraps the external identity provider. It is the only
// package permitted to talk to the provider; everything above it works with
// the Client interface and the fixed error-message taxonomy.
//
// Three backends implement Client: the hosted identity platform REST API,
// a generic OpenID Connect backend, and an all-mock development backend.
// The backend is selected once at construction from configuration, never
// per call.
package identity
