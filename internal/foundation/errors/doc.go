// Package errors provides the classified error type shared by the scanner,
// the renderer and the CLI.
//
// A ClassifiedError carries a category (config, scan, convert, ...), a
// severity and structured context such as the file and comment line it
// concerns. The CLI adapter maps categories to exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryScan, "unterminated comment").
//		WithLocation("lib/shapes.js", 12).
//		Build()
package errors
