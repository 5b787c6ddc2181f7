package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
)

// ErrDuplicate is returned by fakes for unique-key collisions.
var ErrDuplicate = errors.New("duplicate key")

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// UserStore is an in-memory UserStore.
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[uuid.UUID]models.User{}}
}

// Seed stores a user as-is and returns it.
func (s *UserStore) Seed(name, email string, role models.Role) *models.User {
	u := models.User{Name: name, Email: email, Role: role}
	u.Prepare()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return &u
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	user.Prepare()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(user)
}

// CreateWithRole decides the role and inserts under the store lock.
func (s *UserStore) CreateWithRole(_ context.Context, user *models.User, choose repositories.RoleChooser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, err := choose(len(s.users) == 0)
	if err != nil {
		return err
	}
	user.Role = role
	user.Prepare()
	return s.insert(user)
}

func (s *UserStore) insert(user *models.User) error {
	for _, u := range s.users {
		if u.Email == user.Email && u.DeletedAt == nil {
			return ErrDuplicate
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email && u.DeletedAt == nil {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *UserStore) List(_ context.Context, f repositories.UserFilter) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.DeletedAt != nil || (f.Role != "" && string(u.Role) != f.Role) || (f.Status != "" && u.Status != f.Status) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (s *UserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrStaleState
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLoginAt = &at
		s.users[id] = u
	}
	return nil
}

func (s *UserStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrStaleState
	}
	now := time.Now()
	u.DeletedAt = &now
	u.Status = models.UserStatusDisabled
	u.Email = u.Email + ".deleted." + id.String()
	s.users[id] = u
	return nil
}

func (s *UserStore) CountActiveByRole(_ context.Context, role models.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.Role == role && u.IsActive() {
			n++
		}
	}
	return n, nil
}

func (s *UserStore) ListIDsByRole(_ context.Context, role models.Role) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, u := range s.users {
		if u.Role == role && u.IsActive() {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// SessionStore is an in-memory SessionStore.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]models.Session{}}
}

func (s *SessionStore) Create(_ context.Context, session *models.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	s.mu.Lock()
	s.sessions[session.RefreshToken] = *session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) FindByToken(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *SessionStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		sess.IsRevoked = true
		s.sessions[token] = sess
	}
	return nil
}

func (s *SessionStore) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			sess.IsRevoked = true
			s.sessions[token] = sess
		}
	}
	return nil
}

func (s *SessionStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if sess.ExpiresAt.Before(cutoff) || (sess.IsRevoked && sess.CreatedAt.Before(cutoff)) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// ActiveFor counts the user's usable sessions.
func (s *SessionStore) ActiveFor(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.Usable(time.Now()) {
			n++
		}
	}
	return n
}

// Redis fakes the blacklist and cache halves of the Redis repository.
type Redis struct {
	mu    sync.Mutex
	keys  map[string][]byte
	ttls  map[string]time.Duration
	Gets  int
	Fails error
}

func NewRedis() *Redis {
	return &Redis{keys: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (r *Redis) Blacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys["blacklist:"+jti] = []byte("1")
	r.ttls["blacklist:"+jti] = ttl
	return nil
}

func (r *Redis) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys["blacklist:"+jti]
	return ok, nil
}

func (r *Redis) CacheGet(_ context.Context, key string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Gets++
	if r.Fails != nil {
		return nil, false, r.Fails
	}
	v, ok := r.keys["cache:"+key]
	return v, ok, nil
}

func (r *Redis) CacheSet(_ context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys["cache:"+key] = value
	r.ttls["cache:"+key] = ttl
	return nil
}

func (r *Redis) CacheDelete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, "cache:"+key)
	return nil
}

func (r *Redis) TTL(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttls[key]
}

// DoctorStore derives doctors from a UserStore plus stored profiles.
type DoctorStore struct {
	mu       sync.Mutex
	users    *UserStore
	profiles map[uuid.UUID]models.DoctorProfile
}

func NewDoctorStore(users *UserStore) *DoctorStore {
	return &DoctorStore{users: users, profiles: map[uuid.UUID]models.DoctorProfile{}}
}

func (s *DoctorStore) doctor(u models.User) models.Doctor {
	d := models.Doctor{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Status: u.Status}
	if p, ok := s.profiles[u.ID]; ok {
		d.Profile = &p
	}
	return d
}

func (s *DoctorStore) List(ctx context.Context, specialization string) ([]models.Doctor, error) {
	users, _, _ := s.users.List(ctx, repositories.UserFilter{Role: string(models.RoleDoctor), Status: models.UserStatusActive})
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Doctor{}
	for _, u := range users {
		d := s.doctor(u)
		if specialization != "" && (d.Profile == nil ||
			!strings.Contains(strings.ToLower(d.Profile.Specialization), strings.ToLower(specialization))) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *DoctorStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	u, _ := s.users.FindByID(ctx, id)
	if u == nil || u.Role != models.RoleDoctor {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.doctor(*u)
	return &d, nil
}

func (s *DoctorStore) UpsertProfile(_ context.Context, profile *models.DoctorProfile) error {
	profile.UpdatedAt = time.Now()
	s.mu.Lock()
	s.profiles[profile.UserID] = *profile
	s.mu.Unlock()
	return nil
}

// ElderStore is an in-memory ElderStore. Doctor visibility goes through Assignments.
type ElderStore struct {
	mu          sync.Mutex
	elders      map[uuid.UUID]models.Elder
	Assignments *AssignmentStore
}

func NewElderStore(assignments *AssignmentStore) *ElderStore {
	return &ElderStore{elders: map[uuid.UUID]models.Elder{}, Assignments: assignments}
}

func (s *ElderStore) Seed(familyID uuid.UUID, name string, dob time.Time) *models.Elder {
	e := models.Elder{FamilyID: familyID, FullName: name, DateOfBirth: dob, Gender: "female"}
	e.Prepare()
	e.CreatedAt = time.Now()
	s.mu.Lock()
	s.elders[e.ID] = e
	s.mu.Unlock()
	return &e
}

func (s *ElderStore) Create(_ context.Context, elder *models.Elder) error {
	elder.Prepare()
	elder.CreatedAt = time.Now()
	elder.UpdatedAt = elder.CreatedAt
	s.mu.Lock()
	s.elders[elder.ID] = *elder
	s.mu.Unlock()
	return nil
}

func (s *ElderStore) FindByID(_ context.Context, id uuid.UUID) (*models.Elder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elders[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *ElderStore) filter(keep func(models.Elder) bool) []models.Elder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Elder{}
	for _, e := range s.elders {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

func (s *ElderStore) List(ctx context.Context, f repositories.ElderFilter) ([]models.Elder, int64, error) {
	all := s.filter(func(e models.Elder) bool {
		if f.FamilyID != nil && e.FamilyID != *f.FamilyID {
			return false
		}
		if f.DoctorID != nil {
			ok, _ := s.Assignments.IsActive(ctx, e.FamilyID, *f.DoctorID)
			return ok
		}
		return true
	})
	return page(all, f.Limit, f.Offset), int64(len(all)), nil
}

func (s *ElderStore) CountByFamily(_ context.Context, familyID uuid.UUID) (int, error) {
	return len(s.filter(func(e models.Elder) bool { return e.FamilyID == familyID })), nil
}

func (s *ElderStore) Update(_ context.Context, elder *models.Elder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elders[elder.ID]; !ok {
		return repositories.ErrStaleState
	}
	elder.UpdatedAt = time.Now()
	s.elders[elder.ID] = *elder
	return nil
}

func (s *ElderStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.elders, id)
	s.mu.Unlock()
	return nil
}

// AssignmentStore is an in-memory AssignmentStore.
type AssignmentStore struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]models.Assignment
}

func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{assignments: map[uuid.UUID]models.Assignment{}}
}

// Assign records an active assignment between family and doctor.
func (s *AssignmentStore) Assign(familyID, doctorID uuid.UUID) *models.Assignment {
	a := &models.Assignment{FamilyID: familyID, DoctorID: doctorID}
	_ = s.Create(context.Background(), a)
	return a
}

func (s *AssignmentStore) Create(_ context.Context, a *models.Assignment) error {
	a.Prepare()
	a.CreatedAt = time.Now()
	s.mu.Lock()
	s.assignments[a.ID] = *a
	s.mu.Unlock()
	return nil
}

func (s *AssignmentStore) FindByID(_ context.Context, id uuid.UUID) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *AssignmentStore) List(_ context.Context, f repositories.AssignmentFilter) ([]models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Assignment{}
	for _, a := range s.assignments {
		if (f.FamilyID != nil && a.FamilyID != *f.FamilyID) ||
			(f.DoctorID != nil && a.DoctorID != *f.DoctorID) ||
			(f.Status != "" && a.Status != f.Status) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *AssignmentStore) IsActive(_ context.Context, familyID, doctorID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.FamilyID == familyID && a.DoctorID == doctorID && a.Status == models.AssignmentActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *AssignmentStore) ActiveDoctorIDs(_ context.Context, familyID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, a := range s.assignments {
		if a.FamilyID == familyID && a.Status == models.AssignmentActive {
			ids = append(ids, a.DoctorID)
		}
	}
	return ids, nil
}

func (s *AssignmentStore) End(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok || a.Status != models.AssignmentActive {
		return repositories.ErrStaleState
	}
	a.Status = models.AssignmentEnded
	a.EndedAt = &at
	s.assignments[id] = a
	return nil
}
