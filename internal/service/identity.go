package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/repository"
)

// Durable keys owned by the identity store.
const (
	SessionKey         = "user"
	RegisteredUsersKey = "registeredUsers"
)

// IdentityStore owns the registered-users collection and the session user
// of one device. Every operation runs to completion under the store's
// mutex, and each mutation is persisted before the call returns.
type IdentityStore struct {
	mu      sync.Mutex
	kv      domain.KeyValueStore
	logger  *slog.Logger
	now     func() time.Time
	session *domain.UserRecord
}

// IdentityOption configures an IdentityStore.
type IdentityOption func(*IdentityStore)

// WithClock overrides the time source used for ids and dates.
func WithClock(now func() time.Time) IdentityOption {
	return func(s *IdentityStore) { s.now = now }
}

// WithLogger sets the logger used for recoverable problems.
func WithLogger(logger *slog.Logger) IdentityOption {
	return func(s *IdentityStore) { s.logger = logger }
}

// NewIdentityStore creates a logged-out store over kv. Call Init to restore
// a persisted session.
func NewIdentityStore(kv domain.KeyValueStore, opts ...IdentityOption) *IdentityStore {
	s := &IdentityStore{
		kv:     kv,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init restores the session from durable storage. A missing or unreadable
// session record leaves the store logged out; only storage failures are
// returned.
func (s *IdentityStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil

	data, err := s.kv.Get(ctx, SessionKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var user *domain.UserRecord
	if err := json.Unmarshal(data, &user); err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
		return nil
	}
	if user == nil {
		return nil
	}

	normalizeUser(user)
	s.session = user
	return nil
}

// Close releases the store. Writes are synchronous so there is nothing to
// flush.
func (s *IdentityStore) Close() error {
	return nil
}

// Current returns a copy of the session user.
func (s *IdentityStore) Current() (*domain.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, false
	}
	return s.session.Clone(), true
}

// IsAuthenticated reports whether a session user is present.
func (s *IdentityStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Signup registers a new account and logs it in. The password is accepted
// but never stored or checked.
func (s *IdentityStore) Signup(ctx context.Context, username, email, password string) (*domain.UserRecord, error) {
	var created *domain.UserRecord

	err := s.applyAndPersist(ctx, func(tx *identityTx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		if slices.ContainsFunc(users, func(u domain.UserRecord) bool { return u.Email == email }) {
			return domain.ErrDuplicateEmail
		}

		now := s.now()
		today := now.Format(domain.DateLayout)
		user := &domain.UserRecord{
			ID:               nextUserID(now, users),
			Username:         username,
			Email:            email,
			MemberSince:      today,
			LastLogin:        today,
			PhotoURL:         domain.DefaultPhotoURL,
			CompletedLessons: []int64{},
		}

		if err := tx.PutUser(user); err != nil {
			return err
		}
		tx.SetSession(user)
		created = user.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Login starts a session for the account registered under email. Any
// password is accepted.
func (s *IdentityStore) Login(ctx context.Context, email, password string) (*domain.UserRecord, error) {
	var loggedIn *domain.UserRecord

	err := s.applyAndPersist(ctx, func(tx *identityTx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		i := slices.IndexFunc(users, func(u domain.UserRecord) bool { return u.Email == email })
		if i < 0 {
			return domain.ErrInvalidCredentials
		}

		user := users[i].Clone()
		user.LastLogin = s.now().Format(domain.DateLayout)
		normalizeUser(user)

		if err := tx.PutUser(user); err != nil {
			return err
		}
		tx.SetSession(user)
		loggedIn = user.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loggedIn, nil
}

// Logout clears the session. Logging out twice is harmless.
func (s *IdentityStore) Logout(ctx context.Context) error {
	return s.applyAndPersist(ctx, func(tx *identityTx) error {
		tx.ClearSession()
		return nil
	})
}

// UpdateProfilePhoto replaces the session user's photo. It does nothing
// when logged out.
func (s *IdentityStore) UpdateProfilePhoto(ctx context.Context, photoURL string) error {
	return s.applyAndPersist(ctx, func(tx *identityTx) error {
		user := tx.Session()
		if user == nil {
			return nil
		}
		user.PhotoURL = photoURL

		if err := tx.PutUser(user); err != nil {
			return err
		}
		tx.SetSession(user)
		return nil
	})
}

// MarkLessonCompleted records courseID as completed for the session user.
// It does nothing when logged out or when the lesson is already recorded.
func (s *IdentityStore) MarkLessonCompleted(ctx context.Context, courseID int64) error {
	return s.applyAndPersist(ctx, func(tx *identityTx) error {
		user := tx.Session()
		if user == nil || user.HasCompleted(courseID) {
			return nil
		}
		user.CompletedLessons = append(user.CompletedLessons, courseID)

		if err := tx.PutUser(user); err != nil {
			return err
		}
		tx.SetSession(user)
		return nil
	})
}

// applyAndPersist runs mutate against working copies of the session and
// the registered-users collection, then persists whatever it changed. The
// in-memory session is replaced only after the writes succeed. Stores that
// implement domain.BatchWriter receive both writes as one batch; otherwise
// the session is written first.
func (s *IdentityStore) applyAndPersist(ctx context.Context, mutate func(tx *identityTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &identityTx{ctx: ctx, kv: s.kv, session: s.session.Clone()}
	if err := mutate(tx); err != nil {
		return err
	}

	writes, err := tx.writes()
	if err != nil {
		return err
	}
	if len(writes) == 0 {
		return nil
	}

	if bw, ok := s.kv.(domain.BatchWriter); ok {
		err = bw.WriteBatch(ctx, writes)
	} else {
		err = repository.WriteSequential(ctx, s.kv, writes)
	}
	if err != nil {
		return fmt.Errorf("persist identity state: %w", err)
	}

	s.session = tx.session
	return nil
}

// identityTx collects the changes of a single mutation.
type identityTx struct {
	ctx     context.Context
	kv      domain.KeyValueStore
	session *domain.UserRecord

	users          []domain.UserRecord
	usersLoaded    bool
	usersChanged   bool
	sessionChanged bool
}

// Session returns the working copy of the session user, or nil.
func (tx *identityTx) Session() *domain.UserRecord {
	return tx.session
}

func (tx *identityTx) SetSession(user *domain.UserRecord) {
	tx.session = user.Clone()
	tx.sessionChanged = true
}

func (tx *identityTx) ClearSession() {
	tx.session = nil
	tx.sessionChanged = true
}

// Users loads the registered-users collection on first use.
func (tx *identityTx) Users() ([]domain.UserRecord, error) {
	if tx.usersLoaded {
		return tx.users, nil
	}
	users, err := loadUsers(tx.ctx, tx.kv)
	if err != nil {
		return nil, err
	}
	tx.users = users
	tx.usersLoaded = true
	return tx.users, nil
}

// PutUser replaces the entry with the same id, or appends it when the
// collection has no such entry.
func (tx *identityTx) PutUser(user *domain.UserRecord) error {
	users, err := tx.Users()
	if err != nil {
		return err
	}
	entry := *user.Clone()
	if i := slices.IndexFunc(users, func(u domain.UserRecord) bool { return u.ID == user.ID }); i >= 0 {
		users[i] = entry
	} else {
		users = append(users, entry)
	}
	tx.users = users
	tx.usersChanged = true
	return nil
}

func (tx *identityTx) writes() ([]domain.KVWrite, error) {
	var writes []domain.KVWrite

	if tx.sessionChanged {
		if tx.session == nil {
			writes = append(writes, domain.KVWrite{Key: SessionKey, Delete: true})
		} else {
			data, err := json.Marshal(tx.session)
			if err != nil {
				return nil, fmt.Errorf("encode session: %w", err)
			}
			writes = append(writes, domain.KVWrite{Key: SessionKey, Value: data})
		}
	}

	if tx.usersChanged {
		data, err := json.Marshal(tx.users)
		if err != nil {
			return nil, fmt.Errorf("encode registered users: %w", err)
		}
		writes = append(writes, domain.KVWrite{Key: RegisteredUsersKey, Value: data})
	}

	return writes, nil
}

// loadUsers reads the registered-users collection. An absent key is an
// empty collection; an undecodable one is reported as corrupt so it is
// never silently overwritten.
func loadUsers(ctx context.Context, kv domain.KeyValueStore) ([]domain.UserRecord, error) {
	data, err := kv.Get(ctx, RegisteredUsersKey)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.UserRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registered users: %w", err)
	}

	var users []domain.UserRecord
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: registered users: %v", domain.ErrCorruptData, err)
	}
	for i := range users {
		normalizeUser(&users[i])
	}
	if users == nil {
		users = []domain.UserRecord{}
	}
	return users, nil
}

// normalizeUser fills fields that older persisted records may lack and
// drops duplicate lesson ids.
func normalizeUser(u *domain.UserRecord) {
	if u.PhotoURL == "" {
		u.PhotoURL = domain.DefaultPhotoURL
	}
	if u.CompletedLessons == nil {
		u.CompletedLessons = []int64{}
		return
	}
	seen := make(map[int64]struct{}, len(u.CompletedLessons))
	u.CompletedLessons = slices.DeleteFunc(u.CompletedLessons, func(id int64) bool {
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		return false
	})
}

// nextUserID derives an id from the creation time in milliseconds, moved
// past any existing id it would collide with.
func nextUserID(now time.Time, users []domain.UserRecord) int64 {
	id := now.UnixMilli()
	for _, u := range users {
		if u.ID >= id {
			id = u.ID + 1
		}
	}
	return id
}
