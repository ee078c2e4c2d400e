// Package sanitizer normalizes user supplied text before validation.
//
// All functions are idempotent: applying them twice gives the same result as applying
// them once. Invalid input is returned in its normalized form and left for the
// validator to reject.
//
// Normalization includes:
//   - Guest names: collapse whitespace, drop control and zero-width characters
//   - Emails: drop zero-width characters, trim, lowercase
//   - Identifiers: trim, drop control characters
package sanitizer
