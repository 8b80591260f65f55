package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

var hashToken = regexp.MustCompile(`\[(contenthash|hash)(?::(\d+))?\]`)

// ExpandName fills an output name template.
//
//	[name]            base name without extension
//	[ext]             extension without the dot
//	[path]            directory of relPath with a trailing slash, or empty
//	[contenthash:N]   first N hex digits of the content hash ([hash] is an alias)
//
// relPath is the asset path relative to the rule's context directory and
// always uses forward slashes in the result.
func ExpandName(template, relPath string, content []byte) string {
	relPath = filepath.ToSlash(relPath)
	base := relPath[strings.LastIndex(relPath, "/")+1:]
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	dir := ""
	if i := strings.LastIndex(relPath, "/"); i >= 0 {
		dir = relPath[:i+1]
	}

	out := strings.NewReplacer(
		"[name]", name,
		"[ext]", strings.TrimPrefix(ext, "."),
		"[path]", dir,
	).Replace(template)

	if !hashToken.MatchString(out) {
		return out
	}
	sum := ContentHash(content)
	return hashToken.ReplaceAllStringFunc(out, func(tok string) string {
		m := hashToken.FindStringSubmatch(tok)
		if m[2] == "" {
			return sum
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n <= 0 || n > len(sum) {
			return sum
		}
		return sum[:n]
	})
}

// JoinURL joins a public path and an output-relative name.
func JoinURL(publicPath, name string) string {
	if publicPath == "" {
		publicPath = "/"
	}
	return strings.TrimSuffix(publicPath, "/") + "/" + strings.TrimPrefix(name, "/")
}
