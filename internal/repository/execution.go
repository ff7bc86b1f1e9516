package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// Execution is one recorded run, billed or not.
type Execution struct {
	ID          int64         `db:"id"`
	ExecutionID string        `db:"execution_id"`
	UserID      int64         `db:"user_id"`
	FunctionID  sql.NullInt64 `db:"function_id"`
	Language    string        `db:"language"`
	Status      string        `db:"status"`
	ExitCode    int64         `db:"exit_code"`
	DurationMs  int64         `db:"duration_ms"`
	Stdout      string        `db:"stdout"`
	Stderr      string        `db:"stderr"`
	Cost        float64       `db:"cost"`
	CreatedAt   time.Time     `db:"created_at"`
}

const executionFields = "id, execution_id, user_id, function_id, language, status, exit_code, duration_ms, stdout, stderr, cost, created_at"

type ExecutionRepository interface {
	Create(ctx context.Context, exec *Execution) (int64, error)
	GetByExecutionID(ctx context.Context, executionID string) (*Execution, error)
	ListByFunction(ctx context.Context, functionID int64, limit int) ([]*Execution, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Execution, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	WithSession(session sqlx.Session) ExecutionRepository
}

type MySQLExecutionRepository struct {
	conn sqlx.SqlConn
}

func NewExecutionRepository(conn sqlx.SqlConn) ExecutionRepository {
	return &MySQLExecutionRepository{conn: conn}
}

func (r *MySQLExecutionRepository) WithSession(session sqlx.Session) ExecutionRepository {
	if session == nil {
		return r
	}
	return &MySQLExecutionRepository{conn: sqlx.NewSqlConnFromSession(session)}
}

func (r *MySQLExecutionRepository) Create(ctx context.Context, exec *Execution) (int64, error) {
	if exec == nil {
		return 0, errors.New("execution is nil")
	}
	query := `INSERT INTO executions (execution_id, user_id, function_id, language, status, exit_code, duration_ms, stdout, stderr, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.conn.ExecCtx(ctx, query,
		exec.ExecutionID, exec.UserID, exec.FunctionID, exec.Language, exec.Status,
		exec.ExitCode, exec.DurationMs, exec.Stdout, exec.Stderr, exec.Cost)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *MySQLExecutionRepository) GetByExecutionID(ctx context.Context, executionID string) (*Execution, error) {
	var exec Execution
	query := fmt.Sprintf("SELECT %s FROM executions WHERE execution_id = ? LIMIT 1", executionFields)
	err := r.conn.QueryRowCtx(ctx, &exec, query, executionID)
	if err != nil {
		if errors.Is(err, sqlx.ErrNotFound) {
			return nil, ErrExecutionNotFound
		}
		return nil, err
	}
	return &exec, nil
}

func (r *MySQLExecutionRepository) ListByFunction(ctx context.Context, functionID int64, limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 20
	}
	var execs []*Execution
	query := fmt.Sprintf("SELECT %s FROM executions WHERE function_id = ? ORDER BY created_at DESC LIMIT ?", executionFields)
	err := r.conn.QueryRowsCtx(ctx, &execs, query, functionID, limit)
	if err != nil {
		return nil, err
	}
	return execs, nil
}

func (r *MySQLExecutionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 20
	}
	var execs []*Execution
	query := fmt.Sprintf("SELECT %s FROM executions WHERE user_id = ? ORDER BY created_at DESC LIMIT ?", executionFields)
	err := r.conn.QueryRowsCtx(ctx, &execs, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return execs, nil
}

func (r *MySQLExecutionRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.conn.QueryRowCtx(ctx, &count, "SELECT COUNT(*) FROM executions WHERE user_id = ?", userID)
	if err != nil {
		return 0, err
	}
	return count, nil
}
