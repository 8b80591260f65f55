// Package workspace stages build output in a sibling directory and
// promotes it over the final output directory in one rename, so a failed
// or cancelled build never leaves a half-written site behind.
//
// With Keep set the previous output is copied into the staging directory
// first; otherwise the promoted directory holds only what the build wrote.
package workspace
