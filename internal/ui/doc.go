// Package ui provides terminal styling shared by mecfleet's CLI output.
//
// # Color Scheme
//
// Colors are defined as ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Successful operations
//	ColorError     (red)    - Failures and errors
//	ColorWarning   (yellow) - Warnings and skipped devices
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, indented command output
//	ColorSecondary (blue)   - Section headers
//
// Use DisableColors() to switch to monochrome output (for --no-color or piped output).
//
// # Tables
//
// RenderSimpleTable renders a static bubbles table for listings such as
// "mecfleet devices"; RenderCheckTable renders grouped pass/warn/fail rows
// for "mecfleet doctor".
package ui
