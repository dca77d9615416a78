// Package scope resolves the authorization context for the current
// route. Given the organization and space path segments (each
// optional), it derives canonical resource names, queries each scope's
// descriptive fields together with the viewer's permitted IAM actions,
// and answers permission checks against the most specific scope
// present.
package scope
