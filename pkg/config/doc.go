// Package config loads console configuration from environment variables and
// manages the merged feature-flag set and regional endpoint selection.
package config
