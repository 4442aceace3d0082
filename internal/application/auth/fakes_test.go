package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gym-api/internal/application/otp"
	"github.com/gym-api/internal/domain"
	"github.com/gym-api/internal/pkg/clock"
	"github.com/stretchr/testify/mock"
)

// --- in-memory stores ---

type memUsers struct {
	byID map[string]*domain.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	if _, ok := m.byID[u.UserID]; ok {
		return fmt.Errorf("user already exists: %w", domain.ErrConflict)
	}
	cp := *u
	cp.Email = strings.ToLower(cp.Email)
	m.byID[u.UserID] = &cp
	return nil
}

func (m *memUsers) Get(_ context.Context, userID string) (*domain.User, error) {
	u, ok := m.byID[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
}

func (m *memUsers) GetByPhoneNumber(_ context.Context, phone string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.PhoneNumber != nil && *u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
}

func (m *memUsers) Update(_ context.Context, userID string, updates map[string]interface{}) error {
	u, ok := m.byID[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	for k, v := range updates {
		switch k {
		case "email":
			u.Email = strings.ToLower(v.(string))
		case "password_hash":
			u.PasswordHash = v.(string)
		case "is_verified":
			u.IsVerified = v.(bool)
		}
	}
	return nil
}

type memCodes struct {
	codes map[string]domain.OneTimeCode
	// deleteErr, when set, fails every Delete.
	deleteErr error
}

func newMemCodes() *memCodes { return &memCodes{codes: map[string]domain.OneTimeCode{}} }

func codeKey(userID string, p domain.OTPPurpose) string { return userID + "#" + string(p) }

func (m *memCodes) Put(_ context.Context, c *domain.OneTimeCode) error {
	m.codes[codeKey(c.UserID, c.Purpose)] = *c
	return nil
}

func (m *memCodes) Get(_ context.Context, userID string, p domain.OTPPurpose) (*domain.OneTimeCode, error) {
	c, ok := m.codes[codeKey(userID, p)]
	if !ok {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	return &c, nil
}

func (m *memCodes) Delete(_ context.Context, userID string, p domain.OTPPurpose) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	k := codeKey(userID, p)
	if _, ok := m.codes[k]; !ok {
		return fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	delete(m.codes, k)
	return nil
}

// memPending mirrors the transactional replace of the DynamoDB repo.
type memPending[T any] struct {
	rows   map[string]*T
	userOf func(*T) string
	// conflicts makes the next n Replace calls lose a concurrent write.
	conflicts int
	replaces  int
}

func newMemPending[T any](userOf func(*T) string) *memPending[T] {
	return &memPending[T]{rows: map[string]*T{}, userOf: userOf}
}

func (m *memPending[T]) GetByOTP(_ context.Context, otp string) (*T, error) {
	rec, ok := m.rows[otp]
	if !ok {
		return nil, fmt.Errorf("pending record not found: %w", domain.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (m *memPending[T]) Replace(_ context.Context, userID, otp string, rec *T) error {
	m.replaces++
	if m.conflicts > 0 {
		m.conflicts--
		return fmt.Errorf("concurrent modification: %w", domain.ErrConflict)
	}
	if cur, ok := m.rows[otp]; ok && m.userOf(cur) != userID {
		return fmt.Errorf("pending record conflict: %w", domain.ErrConflict)
	}
	for k, r := range m.rows {
		if m.userOf(r) == userID {
			delete(m.rows, k)
		}
	}
	cp := *rec
	m.rows[otp] = &cp
	return nil
}

func (m *memPending[T]) Delete(_ context.Context, otp string) error {
	if _, ok := m.rows[otp]; !ok {
		return fmt.Errorf("pending record not found: %w", domain.ErrNotFound)
	}
	delete(m.rows, otp)
	return nil
}

func (m *memPending[T]) forUser(userID string) []*T {
	var out []*T
	for _, r := range m.rows {
		if m.userOf(r) == userID {
			out = append(out, r)
		}
	}
	return out
}

// --- collaborators ---

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Verify(encoded, p string) bool { return encoded == "hashed:"+p }

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

type sentMessage struct {
	To, Subject, Body string
	SMS               bool
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Notify(_ context.Context, to, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{To: to, Subject: subject, Body: body})
}

func (n *recordingNotifier) NotifySMS(_ context.Context, phone, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{To: phone, Body: body, SMS: true})
}

func (n *recordingNotifier) last() sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

// --- harness ---

type harness struct {
	svc      Service
	users    *memUsers
	codes    *memCodes
	changes  *memPending[domain.PendingEmailChange]
	resets   *memPending[domain.PendingPasswordReset]
	signer   *mockSigner
	notifier *recordingNotifier
	clock    *clock.Fixed
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// sequentialCodes yields 100001, 100002, ... so every issued code is distinct.
func sequentialCodes() func(int) (string, error) {
	n := 100000
	return func(int) (string, error) {
		n++
		return fmt.Sprintf("%06d", n), nil
	}
}

func newHarness() *harness {
	h := &harness{
		users:    newMemUsers(),
		codes:    newMemCodes(),
		changes:  newMemPending(func(p *domain.PendingEmailChange) string { return p.UserID }),
		resets:   newMemPending(func(p *domain.PendingPasswordReset) string { return p.UserID }),
		signer:   &mockSigner{},
		notifier: &recordingNotifier{},
		clock:    &clock.Fixed{T: t0},
	}
	h.svc = NewService(ServiceDeps{
		Users:          h.users,
		OTP:            otp.NewService(otp.ServiceDeps{Repo: h.codes, Clock: h.clock, Generate: sequentialCodes()}),
		EmailChanges:   h.changes,
		PasswordResets: h.resets,
		Hasher:         plainHasher{},
		Signer:         h.signer,
		Notifier:       h.notifier,
		Clock:          h.clock,
		PendingTTL:     15 * time.Minute,
	})
	return h
}

func (h *harness) seedUser(id, email string, verified bool) *domain.User {
	u := &domain.User{
		UserID:       id,
		Email:        email,
		PasswordHash: "hashed:password123",
		UserType:     domain.RoleUser,
		IsVerified:   verified,
	}
	h.users.byID[id] = u
	return u
}

func (h *harness) code(userID string, p domain.OTPPurpose) string {
	return h.codes.codes[codeKey(userID, p)].Code
}
