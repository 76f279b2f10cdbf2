package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/locallibrary/locallibrary-server/internal/domain"
	"github.com/locallibrary/locallibrary-server/internal/id"
	"github.com/locallibrary/locallibrary-server/internal/store"
)

var userColumns = []any{
	"id", "created_at", "updated_at", "username", "password_hash", "first_name", "last_name",
	"email", "is_staff", "is_superuser", "is_active", "last_login_at",
}

type userRow struct {
	ID           string         `db:"id"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    string         `db:"updated_at"`
	Username     string         `db:"username"`
	PasswordHash string         `db:"password_hash"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	Email        string         `db:"email"`
	IsStaff      bool           `db:"is_staff"`
	IsSuperuser  bool           `db:"is_superuser"`
	IsActive     bool           `db:"is_active"`
	LastLoginAt  sql.NullString `db:"last_login_at"`
}

func (r *userRow) toDomain() (*domain.User, error) {
	u := &domain.User{
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		IsStaff:      r.IsStaff,
		IsSuperuser:  r.IsSuperuser,
		IsActive:     r.IsActive,
	}
	u.ID = r.ID

	var err error
	if u.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	if u.LastLoginAt, err = parseNullableTime(r.LastLoginAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a user together with its permissions.
// Returns store.ErrAlreadyExists if the username is taken.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := s.stampNew(&u.Record, func() (string, error) { return id.Generate(id.PrefixUser) }); err != nil {
		return err
	}

	var lastLogin any
	if u.LastLoginAt != nil {
		lastLogin = formatTime(*u.LastLoginAt)
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.exec(ctx, tx, s.dialect.Insert("users").Rows(goqu.Record{
			"id":            u.ID,
			"created_at":    formatTime(u.CreatedAt),
			"updated_at":    formatTime(u.UpdatedAt),
			"username":      u.Username,
			"password_hash": u.PasswordHash,
			"first_name":    u.FirstName,
			"last_name":     u.LastName,
			"email":         u.Email,
			"is_staff":      u.IsStaff,
			"is_superuser":  u.IsSuperuser,
			"is_active":     u.IsActive,
			"last_login_at": lastLogin,
		}).Prepared(true))
		if err != nil {
			return err
		}

		for _, p := range u.Permissions {
			if err := s.grant(ctx, tx, u.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
	return writeErr(err)
}

func (s *Store) grant(ctx context.Context, q queryer, userID string, p domain.Permission) error {
	_, err := s.exec(ctx, q, s.dialect.Insert("user_permissions").
		Rows(goqu.Record{"user_id": userID, "permission": string(p)}).
		OnConflict(goqu.DoNothing()).
		Prepared(true))
	return err
}

func (s *Store) getUserWhere(ctx context.Context, where goqu.Expression) (*domain.User, error) {
	var row userRow
	if err := s.selectOne(ctx, s.db, &row, s.dialect.From("users").Select(userColumns...).Where(where)); err != nil {
		return nil, err
	}

	u, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("scan user %s: %w", row.ID, err)
	}

	var perms []string
	ds := s.dialect.From("user_permissions").
		Select("permission").
		Where(goqu.C("user_id").Eq(u.ID)).
		Order(goqu.C("permission").Asc())
	if err := s.selectAll(ctx, s.db, &perms, ds); err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	for _, p := range perms {
		u.Permissions = append(u.Permissions, domain.Permission(p))
	}
	return u, nil
}

// GetUser retrieves a user with permissions by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.getUserWhere(ctx, goqu.C("id").Eq(userID))
}

// GetUserByUsername retrieves a user with permissions by exact username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserWhere(ctx, goqu.C("username").Eq(username))
}

// GrantPermission adds a permission to a user. Granting twice is a no-op.
func (s *Store) GrantPermission(ctx context.Context, userID string, perm domain.Permission) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return writeErr(s.grant(ctx, s.db, userID, perm))
}

// TouchLogin records a successful login.
func (s *Store) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	n, err := s.exec(ctx, s.db, s.dialect.Update("users").
		Set(goqu.Record{"last_login_at": formatTime(at), "updated_at": formatTime(s.now())}).
		Where(goqu.C("id").Eq(userID)).
		Prepared(true))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
