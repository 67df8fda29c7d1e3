package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoagora/autoagora-backend/internal/models"
)

// UserStore is the persistence boundary for accounts.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash, phone string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// SetPhone replaces the phone number and resets the verified flag.
	SetPhone(ctx context.Context, id uuid.UUID, phone string) error
	MarkPhoneVerified(ctx context.Context, id uuid.UUID) error
	// UpgradeToPremium flips the plan tier; called on payment confirmation.
	UpgradeToPremium(ctx context.Context, id uuid.UUID) error
	// IncrementFreeListingsUsed bumps the informational lifetime counter.
	IncrementFreeListingsUsed(ctx context.Context, id uuid.UUID) error
}

// PostgresUserStore persists users in the users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const userColumns = `id, username, password_hash, phone, phone_verified, plan_tier, free_listings_used, created_at, is_active`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &phone, &u.PhoneVerified,
		&u.PlanTier, &u.FreeListingsUsed, &u.CreatedAt, &u.IsActive)
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	return &u, nil
}

func (s *PostgresUserStore) Create(ctx context.Context, username, passwordHash, phone string) (*models.User, error) {
	u := &models.User{
		ID:           uuid.New(),
		Username:     strings.ToLower(username),
		PasswordHash: passwordHash,
		Phone:        phone,
		PlanTier:     models.PlanFree,
		CreatedAt:    time.Now(),
		IsActive:     true,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, phone, phone_verified, plan_tier, free_listings_used, created_at, is_active)
		VALUES ($1, $2, $3, $4, FALSE, 'free', 0, $5, TRUE)
	`, u.ID, u.Username, u.PasswordHash, nullable(u.Phone), u.CreatedAt)
	if err != nil {
		return nil, &TransientError{Op: "user insert", Err: err}
	}
	return u, nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active = TRUE`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &TransientError{Op: "user get", Err: err}
	}
	return u, nil
}

func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE LOWER(username) = $1 AND is_active = TRUE
	`, strings.ToLower(username))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &TransientError{Op: "user get by username", Err: err}
	}
	return u, nil
}

func (s *PostgresUserStore) SetPhone(ctx context.Context, id uuid.UUID, phone string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET phone = $1, phone_verified = FALSE WHERE id = $2
	`, phone, id)
	if err != nil {
		return &TransientError{Op: "user set phone", Err: err}
	}
	return requireRow(res)
}

func (s *PostgresUserStore) MarkPhoneVerified(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET phone_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return &TransientError{Op: "user mark phone verified", Err: err}
	}
	return requireRow(res)
}

func (s *PostgresUserStore) UpgradeToPremium(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET plan_tier = 'premium' WHERE id = $1`, id)
	if err != nil {
		return &TransientError{Op: "user upgrade", Err: err}
	}
	return requireRow(res)
}

func (s *PostgresUserStore) IncrementFreeListingsUsed(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET free_listings_used = free_listings_used + 1 WHERE id = $1
	`, id)
	if err != nil {
		return &TransientError{Op: "user free counter", Err: err}
	}
	return requireRow(res)
}

// MemoryUserStore is the in-memory counterpart used in tests.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, username, passwordHash, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:           uuid.New(),
		Username:     strings.ToLower(username),
		PasswordHash: passwordHash,
		Phone:        phone,
		PlanTier:     models.PlanFree,
		CreatedAt:    time.Now(),
		IsActive:     true,
	}
	s.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.IsActive && strings.EqualFold(u.Username, username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) SetPhone(ctx context.Context, id uuid.UUID, phone string) error {
	return s.update(id, func(u *models.User) {
		u.Phone = phone
		u.PhoneVerified = false
	})
}

func (s *MemoryUserStore) MarkPhoneVerified(ctx context.Context, id uuid.UUID) error {
	return s.update(id, func(u *models.User) { u.PhoneVerified = true })
}

func (s *MemoryUserStore) UpgradeToPremium(ctx context.Context, id uuid.UUID) error {
	return s.update(id, func(u *models.User) { u.PlanTier = models.PlanPremium })
}

func (s *MemoryUserStore) IncrementFreeListingsUsed(ctx context.Context, id uuid.UUID) error {
	return s.update(id, func(u *models.User) { u.FreeListingsUsed++ })
}

func (s *MemoryUserStore) update(id uuid.UUID, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	return nil
}
