// Package cli provides the console command-line interface.
//
// # Overview
//
// This package implements the `console-cli` tool for operators to sign in,
// inspect their profile, and browse security findings for a space from the
// terminal.
//
// # Commands
//
// login: Sign in with email and password (prompts for an MFA code when the
// account has one enrolled); the refresh handle is persisted so later
// invocations resume the session
//
//	console-cli login \
//		--email dev@example.com \
//		--password secret
//
// logout: Sign out and discard the stored session
//
//	console-cli logout
//
// whoami: Show the signed-in profile and its organizations
//
//	console-cli whoami
//
// vulns: List vulnerabilities for a space
//
//	console-cli vulns --space my-space --limit 25
//
// advisories: List advisories for a space
//
//	console-cli advisories --space my-space --all
//
// assets: List assets for a space
//
//	console-cli assets --space my-space
//
// exceptions: List, create, or delete finding exceptions
//
//	console-cli exceptions --space my-space
//
//	console-cli exceptions \
//		--space my-space \
//		--create \
//		--finding //findings/cve-2024-1 \
//		--justification "accepted risk until Q4"
//
// flags: Print the effective feature-flag set
//
//	console-cli flags
//
// # Configuration
//
// All settings come from CONSOLE_* environment variables, most notably:
//
//	export CONSOLE_AUTH_PROVIDER="rest"
//	export CONSOLE_IDENTITY_API_KEY="..."
//	export CONSOLE_REGION="us"
//	export CONSOLE_FEATURE_FLAGS="new-ui=enabled"
//
// # Related Packages
//
//   - pkg/auth: Session state machine driving sign-in
//   - pkg/console: Space listings and exceptions
//   - pkg/scope: Permission checks for the selected space
package cli
