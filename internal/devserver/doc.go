// Package devserver serves the development build, rebuilds on source
// changes and tells connected browsers to reload over server-sent events.
package devserver
