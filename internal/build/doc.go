// Package build runs a generation: it resolves the inputs, scans and renders
// every source file in parallel, writes one page per documented file plus
// index.rst, and reports what happened.
//
// All entry points (generate, watch) route through Generator.Run.
package build
