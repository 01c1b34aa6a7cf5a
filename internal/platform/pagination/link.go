package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildLinkHeader returns next and prev links for an offset page. next is
// emitted when the page was full, since more records may follow. Other query
// parameters are preserved.
func BuildLinkHeader(baseURL string, query url.Values, p Params, pageLen int) string {
	var links []string
	if pageLen >= p.Limit {
		links = append(links, link(baseURL, query, p.Offset+p.Limit, p.Limit, "next"))
	}
	if p.Offset > 0 {
		links = append(links, link(baseURL, query, max(p.Offset-p.Limit, 0), p.Limit, "prev"))
	}
	return strings.Join(links, ", ")
}

func link(baseURL string, query url.Values, offset, limit int, rel string) string {
	q := cloneValues(query)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return fmt.Sprintf("<%s?%s>; rel=%q", baseURL, q.Encode(), rel)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
