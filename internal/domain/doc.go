// Package domain defines the core types and contracts of the sign-up wall.
//
// Concept-oriented files (submission.go, registry.go, pubsub.go, errors.go) hold shared
// types and the interfaces the app layer depends on. No implementation code lives here.
package domain
