// Package pages discovers page folders and turns the selected page names
// into render descriptors.
//
// Selection and entry generation are pure: the directory listing is read
// once through an afero.Fs and passed in as data, so the same inputs always
// produce the same sequence. Neither step removes duplicates; Validate is
// the opt-in eager check that reports duplicates and missing templates
// before any bundling starts.
package pages
