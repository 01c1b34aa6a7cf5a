package profile

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/janisto/ols-profile-service/internal/platform/auth"
	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
	"github.com/janisto/ols-profile-service/internal/platform/timeutil"
)

const resourceType = "profile"

// Service defines profile operations.
//
// Implementations must normalize input data:
//   - Email: trim whitespace, casing kept as sent
//   - Birthdate: YYYY-MM-DD
//   - Timestamps: UTC, millisecond precision
type Service interface {
	List(ctx context.Context, offset, limit int) ([]Profile, error)
	Get(ctx context.Context, id, ifNoneMatch string) (ReadResult, error)
	Create(ctx context.Context, params CreateParams) (*Profile, error)
	Update(ctx context.Context, id string, params UpdateParams) (*Profile, error)
	Delete(ctx context.Context, id string) error
}

// DefaultService orchestrates the Backend port. It does not know whether
// reads are cached; a cache decorator is picked up through ReaderFor.
type DefaultService struct {
	backend Backend
	reader  Reader
	now     func() time.Time
	newID   func() string
}

// Option configures a DefaultService.
type Option func(*DefaultService)

// WithClock overrides the time source used for createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *DefaultService) { s.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *DefaultService) { s.newID = newID }
}

// NewService creates a service over the given backend.
func NewService(backend Backend, opts ...Option) *DefaultService {
	s := &DefaultService{
		backend: backend,
		reader:  ReaderFor(backend),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns up to limit profiles starting at offset.
func (s *DefaultService) List(ctx context.Context, offset, limit int) ([]Profile, error) {
	if offset < 0 || limit < 1 {
		return nil, invalidInput("offset must be >= 0 and limit >= 1")
	}
	return s.backend.List(ctx, offset, limit)
}

// Get reads a profile. When ifNoneMatch still matches a cached entry the
// result is NotModified and carries no profile.
func (s *DefaultService) Get(ctx context.Context, id, ifNoneMatch string) (ReadResult, error) {
	res, err := s.reader.Read(ctx, id, ifNoneMatch)
	if err != nil {
		return ReadResult{}, err
	}
	if !res.Found {
		return ReadResult{}, ErrNotFound
	}
	return res, nil
}

// Create stores a new profile after checking that its email is unused.
func (s *DefaultService) Create(ctx context.Context, params CreateParams) (*Profile, error) {
	created, err := s.create(ctx, params)
	id := ""
	if created != nil {
		id = created.UUID
	}
	s.audit(ctx, "create", id, err)
	return created, err
}

func (s *DefaultService) create(ctx context.Context, params CreateParams) (*Profile, error) {
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, invalidInput("email is required")
	}
	birthdate, err := timeutil.NormalizeDate(params.Birthdate)
	if err != nil {
		return nil, invalidInput("birthdate %q is not a date", params.Birthdate)
	}

	conflict, err := s.backend.HasConflict(ctx, email)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrConflict
	}

	now := timeutil.Millis(s.now())
	return s.backend.Create(ctx, &Profile{
		UUID:      s.newID(),
		Email:     email,
		Firstname: params.Firstname,
		Lastname:  params.Lastname,
		Birthdate: birthdate,
		Gender:    params.Gender,
		Addresses: params.Addresses,
		Image:     params.Image,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update applies the provided fields and returns the stored result.
// Email uniqueness is only enforced at creation.
func (s *DefaultService) Update(ctx context.Context, id string, params UpdateParams) (*Profile, error) {
	updated, err := s.update(ctx, id, params)
	s.audit(ctx, "update", id, err)
	return updated, err
}

func (s *DefaultService) update(ctx context.Context, id string, params UpdateParams) (*Profile, error) {
	exists, err := s.backend.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	if params.Email != nil {
		email := normalizeEmail(*params.Email)
		if email == "" {
			return nil, invalidInput("email must not be empty")
		}
		params.Email = &email
	}
	if params.Birthdate != nil {
		birthdate, err := timeutil.NormalizeDate(*params.Birthdate)
		if err != nil {
			return nil, invalidInput("birthdate %q is not a date", *params.Birthdate)
		}
		params.Birthdate = &birthdate
	}
	params.UpdatedAt = timeutil.Millis(s.now())

	if err := s.backend.Update(ctx, id, params); err != nil {
		return nil, err
	}

	p, found, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return p, nil
}

// Delete removes a profile.
func (s *DefaultService) Delete(ctx context.Context, id string) error {
	err := s.delete(ctx, id)
	s.audit(ctx, "delete", id, err)
	return err
}

func (s *DefaultService) delete(ctx context.Context, id string) error {
	exists, err := s.backend.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return s.backend.Delete(ctx, id)
}

func (s *DefaultService) audit(ctx context.Context, action, id string, err error) {
	ev := applog.AuditEvent{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   id,
		Result:       applog.AuditSuccess,
	}
	if user := auth.UserFromContext(ctx); user != nil {
		ev.Actor = user.UID
	}
	if err != nil {
		ev.Result = applog.AuditFailure
		ev.Details = map[string]any{"error": categorizeError(err)}
	}
	applog.LogAudit(ctx, ev)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// Compile-time interface check
var _ Service = (*DefaultService)(nil)
