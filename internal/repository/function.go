package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// Function is a named, saved snippet. Each run refreshes its code and
// bumps run_count.
type Function struct {
	ID           int64        `db:"id"`
	UserID       int64        `db:"user_id"`
	Language     string       `db:"language"`
	Name         string       `db:"name"`
	Code         string       `db:"code"`
	Dependencies string       `db:"dependencies"`
	RunCount     int64        `db:"run_count"`
	CreatedAt    time.Time    `db:"created_at"`
	LastRunAt    sql.NullTime `db:"last_run_at"`
}

const functionFields = "id, user_id, language, name, code, dependencies, run_count, created_at, last_run_at"

type FunctionRepository interface {
	// UpsertRun inserts the function or refreshes an existing one, and
	// increments run_count in the same statement. Returns the row after
	// the bump.
	UpsertRun(ctx context.Context, fn *Function) (*Function, error)
	GetByName(ctx context.Context, userID int64, language, name string) (*Function, error)
	ListByUser(ctx context.Context, userID int64) ([]*Function, error)
	ListByUserAndLanguage(ctx context.Context, userID int64, language string) ([]*Function, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	WithSession(session sqlx.Session) FunctionRepository
}

type MySQLFunctionRepository struct {
	conn sqlx.SqlConn
}

func NewFunctionRepository(conn sqlx.SqlConn) FunctionRepository {
	return &MySQLFunctionRepository{conn: conn}
}

func (r *MySQLFunctionRepository) WithSession(session sqlx.Session) FunctionRepository {
	if session == nil {
		return r
	}
	return &MySQLFunctionRepository{conn: sqlx.NewSqlConnFromSession(session)}
}

func (r *MySQLFunctionRepository) UpsertRun(ctx context.Context, fn *Function) (*Function, error) {
	if fn == nil {
		return nil, errors.New("function is nil")
	}
	query := `INSERT INTO functions (user_id, language, name, code, dependencies, run_count, last_run_at)
		VALUES (?, ?, ?, ?, ?, 1, NOW())
		ON DUPLICATE KEY UPDATE
			code = VALUES(code),
			dependencies = VALUES(dependencies),
			run_count = run_count + 1,
			last_run_at = NOW()`
	_, err := r.conn.ExecCtx(ctx, query, fn.UserID, fn.Language, fn.Name, fn.Code, fn.Dependencies)
	if err != nil {
		return nil, err
	}
	return r.GetByName(ctx, fn.UserID, fn.Language, fn.Name)
}

func (r *MySQLFunctionRepository) GetByName(ctx context.Context, userID int64, language, name string) (*Function, error) {
	var fn Function
	query := fmt.Sprintf("SELECT %s FROM functions WHERE user_id = ? AND language = ? AND name = ? LIMIT 1", functionFields)
	err := r.conn.QueryRowCtx(ctx, &fn, query, userID, language, name)
	if err != nil {
		if errors.Is(err, sqlx.ErrNotFound) {
			return nil, ErrFunctionNotFound
		}
		return nil, err
	}
	return &fn, nil
}

func (r *MySQLFunctionRepository) ListByUser(ctx context.Context, userID int64) ([]*Function, error) {
	var fns []*Function
	query := fmt.Sprintf("SELECT %s FROM functions WHERE user_id = ? ORDER BY last_run_at DESC", functionFields)
	err := r.conn.QueryRowsCtx(ctx, &fns, query, userID)
	if err != nil {
		return nil, err
	}
	return fns, nil
}

func (r *MySQLFunctionRepository) ListByUserAndLanguage(ctx context.Context, userID int64, language string) ([]*Function, error) {
	var fns []*Function
	query := fmt.Sprintf("SELECT %s FROM functions WHERE user_id = ? AND language = ? ORDER BY last_run_at DESC", functionFields)
	err := r.conn.QueryRowsCtx(ctx, &fns, query, userID, language)
	if err != nil {
		return nil, err
	}
	return fns, nil
}

func (r *MySQLFunctionRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.conn.QueryRowCtx(ctx, &count, "SELECT COUNT(*) FROM functions WHERE user_id = ?", userID)
	if err != nil {
		return 0, err
	}
	return count, nil
}
