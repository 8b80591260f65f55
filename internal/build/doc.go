// Package build runs a complete site build: page discovery, script
// bundling, page rendering, asset emission and publishing.
//
// All entry points (the CLI build command and the dev server) go through
// Service.Run. A build runs a fixed list of stages in order against a
// staging directory; the staging directory replaces the output directory
// only when every stage succeeded.
package build
