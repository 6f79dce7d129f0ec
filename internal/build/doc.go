// Package build provides the canonical site build pipeline. All execution
// paths (one-shot CLI build, watch mode, scheduled rebuilds) route through
// Service.Run.
//
// Stages run in a fixed order: resolve, reset, templates, copy, documents,
// render. Templates are fully loaded before any document is rendered, and
// the failure policy is decided here and nowhere else.
package build
