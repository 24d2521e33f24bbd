// Package comment finds comment blocks in source text and normalizes them.
//
// Scanning is line oriented and single pass. A line that starts with the
// block opener begins a block comment that runs until the closer; lines that
// start with the line marker form a run that any other line, blank ones
// included, terminates. Blocks are returned raw by Scanner and normalized by
// Block.Reflow, which removes the delimiters and the indentation the lines
// share:
//
//	/**
//	 * foo
//	 * bar
//	 */
//
// reflows to the lines "foo" and "bar".
package comment
