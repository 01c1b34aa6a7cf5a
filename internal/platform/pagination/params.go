// Package pagination carries offset/limit query parameters and builds
// RFC 8288 Link headers for them.
package pagination

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params embeds into huma input structs for offset pagination.
type Params struct {
	Offset int `query:"offset" doc:"Number of records to skip"  default:"0"  minimum:"0"`
	Limit  int `query:"limit"  doc:"Maximum records to return" default:"10" minimum:"1" maximum:"100"`
}

// Normalized returns p with a negative offset cleared and the limit clamped
// to [1, MaxLimit], using DefaultLimit when unset.
func (p Params) Normalized() Params {
	if p.Offset < 0 {
		p.Offset = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}
