// Package errors provides the classified error primitives used across sitepack.
//
// Every failure that reaches the CLI is a ClassifiedError carrying a category,
// a severity and structured context. The build is a single offline pass, so
// classified errors default to RetryNever and nothing in sitepack retries.
//
// Example usage:
//
//	err := errors.ConfigError("pages must be a list of page names").
//		WithContext("field", "pages").
//		WithContext("file", "pages.yaml").
//		Build()
package errors
