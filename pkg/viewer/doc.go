// Package viewer loads the signed-in principal's console profile: the
// viewer record, the organizations they belong to, their first space,
// and their per-user settings. The shared entity types (Organization,
// Space) used across the console live here.
package viewer
