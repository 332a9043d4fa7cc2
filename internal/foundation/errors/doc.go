// Package errors provides the classified error type used across docsite.
//
// A ClassifiedError carries a category (config, render, filesystem, ...), a
// severity and a retry hint next to the message and the wrapped cause. The
// CLI adapter turns categories into process exit codes.
//
// Example usage:
//
//	err := errors.FileSystemError("write page").
//		WithContext("path", out).
//		WithCause(writeErr).
//		Build()
package errors
