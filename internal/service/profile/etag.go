package profile

import "strings"

// ETag returns the weak entity tag for a profile, W/"<uuid>".
func ETag(id string) string {
	return `W/"` + id + `"`
}

// MatchesETag reports whether an If-None-Match header value selects the
// profile id. Comparison is weak: W/ prefixes and quotes are ignored, so the
// legacy unquoted form W/<uuid> also matches. "*" is not honoured.
func MatchesETag(header, id string) bool {
	if header == "" || id == "" {
		return false
	}
	for part := range strings.SplitSeq(header, ",") {
		tag := strings.TrimPrefix(strings.TrimSpace(part), "W/")
		tag = strings.Trim(tag, `"`)
		if tag == id {
			return true
		}
	}
	return false
}
