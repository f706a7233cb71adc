package formula

import (
	"regexp"
	"strings"
)

// referencePattern is the single reference-extraction rule. The lexer's
// {identifier} token follows the same rule, and the dependency graph builds
// its edges from ExtractReferences, so validation and ordering always agree
// on what a formula refers to.
//
// Extraction is textual: braces inside string literals count too, which
// errs on the side of an extra dependency edge.
var referencePattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Reference is one {identifier} occurrence. Pos is the byte offset of '{'.
type Reference struct {
	ID  string
	Pos int
}

// ExtractReferences returns every distinct reference in src, in order of
// first occurrence.
func ExtractReferences(src string) []Reference {
	matches := referencePattern.FindAllStringSubmatchIndex(src, -1)
	refs := make([]Reference, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		id := strings.TrimSpace(src[m[2]:m[3]])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, Reference{ID: id, Pos: m[0]})
	}
	return refs
}

// ReferenceIDs returns the distinct referenced ids of src in first-seen order.
func ReferenceIDs(src string) []string {
	refs := ExtractReferences(src)
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}
