package profile

import (
	"context"
	"time"
)

// Backend is the persistence port every canonical store implements.
//
// Absent records are reported through return values, never as errors.
// Store failures are returned as *BackendError. Update and Delete may
// return ErrNotFound when the record disappeared after the caller checked it.
type Backend interface {
	Exists(ctx context.Context, id string) (bool, error)
	HasConflict(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]Profile, error)
	Get(ctx context.Context, id string) (*Profile, bool, error)
	Create(ctx context.Context, p *Profile) (*Profile, error)
	Update(ctx context.Context, id string, params UpdateParams) error
	Delete(ctx context.Context, id string) error
}

// CacheStatus reports how a read was served.
type CacheStatus int

const (
	CacheNone CacheStatus = iota // no read cache configured
	CacheHit
	CacheMiss
)

// String returns the X-Cache header value, or "" when no cache is configured.
func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "HIT"
	case CacheMiss:
		return "MISS"
	default:
		return ""
	}
}

// ReadResult is the outcome of a single-record read.
type ReadResult struct {
	Profile     *Profile
	Found       bool
	NotModified bool // the caller's entity tag is still current
	Cache       CacheStatus
	TTL         time.Duration // remaining cache lifetime, zero when unknown
}

// Reader serves single-record reads, optionally honouring If-None-Match.
type Reader interface {
	Read(ctx context.Context, id, ifNoneMatch string) (ReadResult, error)
}

// ReaderFor returns b itself when it serves reads (a cache decorator) and a
// plain pass-through reader otherwise.
func ReaderFor(b Backend) Reader {
	if r, ok := b.(Reader); ok {
		return r
	}
	return directReader{b}
}

type directReader struct {
	backend Backend
}

func (d directReader) Read(ctx context.Context, id, _ string) (ReadResult, error) {
	p, found, err := d.backend.Get(ctx, id)
	if err != nil {
		return ReadResult{}, err
	}
	return ReadResult{Profile: p, Found: found, Cache: CacheNone}, nil
}
