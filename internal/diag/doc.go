// Package diag defines the diagnostic model shared by all tool adapters.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     reported by external Python linters (ruff, pylint, flake8, mypy).
//   - Offer light-weight utilities (Bag) that let adapters collect diagnostics
//     without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the CLI can apply.
//
// # Scope
//
// Package diag does not perform any formatting, IO, subprocess handling, or
// interactive behaviour. Rendering lives in internal/diagfmt; application of
// fixes lives in internal/fix; tool invocation and output parsing live in
// internal/linters and internal/runner.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – the rule identifier exactly as the tool reported it ("F401").
//   - Source – the tool that produced the finding ("ruff", "mypy", ...).
//   - Range – linter-reported positions. Lines are 1-based. The start column
//     is normalised to 0-based by the adapters; the end column is copied from
//     the tool unmodified. The asymmetry matches editor range conventions and
//     is a contract, not a bug.
//   - Tags – presentation hints; TagUnnecessary marks unused-symbol findings
//     that editors render faded out.
//   - Fixes – optional Fix records with byte-precise edits over the document
//     the tool was fed.
//
// Keep the data model deterministic: diagnostics are sorted and deduplicated
// by value, and tests compare them structurally.
package diag
