// Package app provides the application service layer.
//
// Orchestrates the sign-up use case: validate, dedup via the phone registry, broadcast.
// Sits between HTTP handlers and the core components. Depends on domain interfaces, not
// concrete implementations.
package app
