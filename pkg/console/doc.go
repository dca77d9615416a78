// Package console provides typed data operations over the GraphQL
// session layer: vulnerabilities, advisories, checks, assets,
// exceptions, and space management. List operations are cursor
// paginated; the Pages iterator drains a listing page by page.
package console
