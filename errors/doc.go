// Package errors provides the structured error taxonomy of the engine.
// Every engine failure is an *AppError carrying a machine-readable code so
// callers can branch on the kind of failure with Is or CodeOf.
package errors
