package profile

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockBackend implements Backend in memory for unit tests. List returns
// records in insertion order.
type MockBackend struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	order    []string
	errs     map[string]error
	calls    map[string]int
}

// NewMockBackend creates an empty mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		profiles: make(map[string]*Profile),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

// FailOn makes every later call to op ("Exists", "Get", ...) return err.
// A nil err clears the failure.
func (m *MockBackend) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// Calls returns how many times op was invoked.
func (m *MockBackend) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Put stores p directly, bypassing every check.
func (m *MockBackend) Put(p *Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(p)
}

// Remove deletes id directly, e.g. to simulate a concurrent delete.
func (m *MockBackend) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(id)
}

// Clear removes all profiles and resets call counts and failures.
func (m *MockBackend) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = make(map[string]*Profile)
	m.order = nil
	m.errs = make(map[string]error)
	m.calls = make(map[string]int)
}

func (m *MockBackend) enter(op string) error {
	m.calls[op]++
	if err := m.errs[op]; err != nil {
		return backendError("mock "+op, err)
	}
	return nil
}

func (m *MockBackend) put(p *Profile) {
	if _, ok := m.profiles[p.UUID]; !ok {
		m.order = append(m.order, p.UUID)
	}
	m.profiles[p.UUID] = cloneProfile(p)
}

func (m *MockBackend) remove(id string) {
	if _, ok := m.profiles[id]; !ok {
		return
	}
	delete(m.profiles, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *MockBackend) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Exists"); err != nil {
		return false, err
	}
	_, ok := m.profiles[id]
	return ok, nil
}

func (m *MockBackend) HasConflict(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("HasConflict"); err != nil {
		return false, err
	}
	for _, p := range m.profiles {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBackend) List(_ context.Context, offset, limit int) ([]Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("List"); err != nil {
		return nil, err
	}
	out := make([]Profile, 0, limit)
	for i := offset; i < len(m.order) && len(out) < limit; i++ {
		out = append(out, *cloneProfile(m.profiles[m.order[i]]))
	}
	return out, nil
}

func (m *MockBackend) Get(_ context.Context, id string) (*Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Get"); err != nil {
		return nil, false, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, false, nil
	}
	return cloneProfile(p), true, nil
}

func (m *MockBackend) Create(_ context.Context, p *Profile) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Create"); err != nil {
		return nil, err
	}
	if _, ok := m.profiles[p.UUID]; ok {
		return nil, backendError(msgCreate, errors.New("duplicate uuid"))
	}
	m.put(p)
	return cloneProfile(p), nil
}

func (m *MockBackend) Update(_ context.Context, id string, params UpdateParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Update"); err != nil {
		return err
	}
	p, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	applyUpdate(p, params)
	return nil
}

func (m *MockBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Delete"); err != nil {
		return err
	}
	m.remove(id)
	return nil
}

func applyUpdate(p *Profile, params UpdateParams) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Email, params.Email)
	set(&p.Firstname, params.Firstname)
	set(&p.Lastname, params.Lastname)
	set(&p.Birthdate, params.Birthdate)
	set(&p.Gender, params.Gender)
	if params.Addresses != nil {
		p.Addresses = cloneAddresses(*params.Addresses)
	}
	if params.Image != nil {
		img := *params.Image
		p.Image = &img
	}
	if !params.UpdatedAt.IsZero() {
		p.UpdatedAt = params.UpdatedAt
	}
}

func cloneProfile(p *Profile) *Profile {
	c := *p
	c.Addresses = cloneAddresses(p.Addresses)
	if p.Image != nil {
		img := *p.Image
		c.Image = &img
	}
	return &c
}

func cloneAddresses(in []Address) []Address {
	if len(in) == 0 {
		return nil
	}
	out := make([]Address, len(in))
	for i, a := range in {
		out[i] = a
		if a.PostalCode != nil {
			code := *a.PostalCode
			out[i].PostalCode = &code
		}
	}
	return out
}

// MockCache implements Cache in memory with a controllable clock.
type MockCache struct {
	mu      sync.Mutex
	entries map[string]mockEntry
	errs    map[string]error
	calls   map[string]int
	now     func() time.Time
}

type mockEntry struct {
	value   []byte
	expires time.Time
}

// NewMockCache creates an empty cache. A nil now uses time.Now.
func NewMockCache(now func() time.Time) *MockCache {
	if now == nil {
		now = time.Now
	}
	return &MockCache{
		entries: make(map[string]mockEntry),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
		now:     now,
	}
}

// FailOn makes every later call to op ("SetEX", "Get", "Del", "TTL") return err.
func (c *MockCache) FailOn(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.errs, op)
		return
	}
	c.errs[op] = err
}

// Calls returns how many times op was invoked.
func (c *MockCache) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Raw stores value under key without encoding.
func (c *MockCache) Raw(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = mockEntry{value: value, expires: c.now().Add(ttl)}
}

// Has reports whether key holds a live entry.
func (c *MockCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live(key)
	return ok
}

func (c *MockCache) live(key string) (mockEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return mockEntry{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return mockEntry{}, false
	}
	return e, true
}

func (c *MockCache) enter(op string) error {
	c.calls[op]++
	return c.errs[op]
}

func (c *MockCache) SetEX(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("SetEX"); err != nil {
		return err
	}
	c.entries[key] = mockEntry{value: append([]byte(nil), value...), expires: c.now().Add(ttl)}
	return nil
}

func (c *MockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("Get"); err != nil {
		return nil, false, err
	}
	e, ok := c.live(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (c *MockCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("Del"); err != nil {
		return err
	}
	delete(c.entries, key)
	return nil
}

func (c *MockCache) TTL(_ context.Context, key string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("TTL"); err != nil {
		return 0, err
	}
	e, ok := c.live(key)
	if !ok {
		return 0, nil
	}
	return e.expires.Sub(c.now()), nil
}

// Compile-time interface checks
var (
	_ Backend = (*MockBackend)(nil)
	_ Cache   = (*MockCache)(nil)
)
