package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"runbox/internal/common/db"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// User is the account row backing trust verification and usage accounting.
type User struct {
	ID                  int64     `db:"id"`
	Username            string    `db:"username"`
	Email               string    `db:"email"`
	PasswordHash        string    `db:"password_hash"`
	PythonFunctions     int64     `db:"python_functions"`
	JavascriptFunctions int64     `db:"javascript_functions"`
	Cost                float64   `db:"cost"`
	CreatedAt           time.Time `db:"created_at"`
}

const userFields = "id, username, email, password_hash, python_functions, javascript_functions, cost, created_at"

type UserRepository interface {
	Create(ctx context.Context, user *User) (int64, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// AddUsage atomically charges cost and bumps the per-language run
	// counter, returning the cumulative cost after the charge.
	AddUsage(ctx context.Context, userID int64, language string, cost float64) (float64, error)
	WithSession(session sqlx.Session) UserRepository
}

type MySQLUserRepository struct {
	conn sqlx.SqlConn
}

func NewUserRepository(conn sqlx.SqlConn) UserRepository {
	return &MySQLUserRepository{conn: conn}
}

func (r *MySQLUserRepository) WithSession(session sqlx.Session) UserRepository {
	if session == nil {
		return r
	}
	return &MySQLUserRepository{conn: sqlx.NewSqlConnFromSession(session)}
}

func (r *MySQLUserRepository) Create(ctx context.Context, user *User) (int64, error) {
	if user == nil {
		return 0, errors.New("user is nil")
	}
	query := "INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)"
	result, err := r.conn.ExecCtx(ctx, query, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		if key, ok := db.UniqueViolation(err); ok {
			normalizedKey := strings.ToLower(strings.TrimSpace(key))
			switch {
			case strings.Contains(normalizedKey, "username"):
				return 0, ErrUsernameExists
			case strings.Contains(normalizedKey, "email"):
				return 0, ErrEmailExists
			default:
				return 0, ErrDuplicate
			}
		}
		return 0, err
	}
	return result.LastInsertId()
}

func (r *MySQLUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var user User
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = ? LIMIT 1", userFields)
	err := r.conn.QueryRowCtx(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sqlx.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MySQLUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	query := fmt.Sprintf("SELECT %s FROM users WHERE username = ? LIMIT 1", userFields)
	err := r.conn.QueryRowCtx(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sqlx.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MySQLUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.conn.QueryRowCtx(ctx, &count, "SELECT COUNT(*) FROM users WHERE username = ?", username)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MySQLUserRepository) AddUsage(ctx context.Context, userID int64, language string, cost float64) (float64, error) {
	var counterColumn string
	switch language {
	case "python":
		counterColumn = "python_functions"
	case "javascript":
		counterColumn = "javascript_functions"
	default:
		return 0, fmt.Errorf("unknown language: %s", language)
	}

	query := fmt.Sprintf("UPDATE users SET cost = cost + ?, %s = %s + 1 WHERE id = ?", counterColumn, counterColumn)
	result, err := r.conn.ExecCtx(ctx, query, cost, userID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrUserNotFound
	}

	var total float64
	if err := r.conn.QueryRowCtx(ctx, &total, "SELECT cost FROM users WHERE id = ?", userID); err != nil {
		return 0, err
	}
	return total, nil
}
