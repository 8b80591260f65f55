// Package bundler runs esbuild over the application entry and turns its
// in-memory output into fingerprinted script and style files.
//
// Bundling and naming are separate steps. Bundle produces contents that
// may still reference the sprite sheet through assets.SpritePlaceholder;
// Finalize substitutes the sheet URL and only then computes the content
// hashes used in file names.
package bundler
