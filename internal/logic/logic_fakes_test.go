package logic

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"runbox/internal/config"
	"runbox/internal/repository"
	"runbox/internal/sandbox/pool"
	"runbox/internal/sandbox/profile"
	sandboxresult "runbox/internal/sandbox/result"
	"runbox/internal/sandbox/runner"
	"runbox/internal/svc"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// testPassword is the password every user seeded with add() holds.
const testPassword = "s3curePass"

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

// fakeClock is an adjustable time source shared by a test case.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeUserRepo struct {
	nextID    int64
	byName    map[string]*repository.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, byName: make(map[string]*repository.User)}
}

func (r *fakeUserRepo) add(username string) *repository.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	u := &repository.User{
		ID:           r.nextID,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
	}
	r.nextID++
	r.byName[username] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *repository.User) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	if _, ok := r.byName[user.Username]; ok {
		return 0, repository.ErrUsernameExists
	}
	for _, u := range r.byName {
		if u.Email == user.Email {
			return 0, repository.ErrEmailExists
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.byName[user.Username] = user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*repository.User, error) {
	for _, u := range r.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	u, ok := r.byName[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := r.byName[username]
	return ok, nil
}

func (r *fakeUserRepo) AddUsage(ctx context.Context, userID int64, language string, cost float64) (float64, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	switch language {
	case "python":
		u.PythonFunctions++
	case "javascript":
		u.JavascriptFunctions++
	default:
		return 0, fmt.Errorf("unknown language: %s", language)
	}
	u.Cost += cost
	return u.Cost, nil
}

func (r *fakeUserRepo) WithSession(session sqlx.Session) repository.UserRepository {
	return r
}

type fakeFunctionRepo struct {
	nextID int64
	fns    []*repository.Function
}

func newFakeFunctionRepo() *fakeFunctionRepo {
	return &fakeFunctionRepo{nextID: 1}
}

func (r *fakeFunctionRepo) find(userID int64, language, name string) *repository.Function {
	for _, fn := range r.fns {
		if fn.UserID == userID && fn.Language == language && fn.Name == name {
			return fn
		}
	}
	return nil
}

func (r *fakeFunctionRepo) UpsertRun(ctx context.Context, fn *repository.Function) (*repository.Function, error) {
	if existing := r.find(fn.UserID, fn.Language, fn.Name); existing != nil {
		existing.Code = fn.Code
		existing.Dependencies = fn.Dependencies
		existing.RunCount++
		return existing, nil
	}
	stored := *fn
	stored.ID = r.nextID
	r.nextID++
	stored.RunCount = 1
	r.fns = append(r.fns, &stored)
	return &stored, nil
}

func (r *fakeFunctionRepo) GetByName(ctx context.Context, userID int64, language, name string) (*repository.Function, error) {
	if fn := r.find(userID, language, name); fn != nil {
		return fn, nil
	}
	return nil, repository.ErrFunctionNotFound
}

func (r *fakeFunctionRepo) ListByUser(ctx context.Context, userID int64) ([]*repository.Function, error) {
	var out []*repository.Function
	for _, fn := range r.fns {
		if fn.UserID == userID {
			out = append(out, fn)
		}
	}
	return out, nil
}

func (r *fakeFunctionRepo) ListByUserAndLanguage(ctx context.Context, userID int64, language string) ([]*repository.Function, error) {
	var out []*repository.Function
	for _, fn := range r.fns {
		if fn.UserID == userID && fn.Language == language {
			out = append(out, fn)
		}
	}
	return out, nil
}

func (r *fakeFunctionRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for _, fn := range r.fns {
		if fn.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFunctionRepo) WithSession(session sqlx.Session) repository.FunctionRepository {
	return r
}

type fakeExecutionRepo struct {
	nextID int64
	execs  []*repository.Execution
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{nextID: 1}
}

func (r *fakeExecutionRepo) Create(ctx context.Context, exec *repository.Execution) (int64, error) {
	stored := *exec
	stored.ID = r.nextID
	r.nextID++
	r.execs = append(r.execs, &stored)
	return stored.ID, nil
}

func (r *fakeExecutionRepo) GetByExecutionID(ctx context.Context, executionID string) (*repository.Execution, error) {
	for _, e := range r.execs {
		if e.ExecutionID == executionID {
			return e, nil
		}
	}
	return nil, repository.ErrExecutionNotFound
}

func (r *fakeExecutionRepo) ListByFunction(ctx context.Context, functionID int64, limit int) ([]*repository.Execution, error) {
	var out []*repository.Execution
	for _, e := range r.execs {
		if e.FunctionID.Valid && e.FunctionID.Int64 == functionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExecutionRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*repository.Execution, error) {
	var out []*repository.Execution
	for _, e := range r.execs {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExecutionRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for _, e := range r.execs {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeExecutionRepo) WithSession(session sqlx.Session) repository.ExecutionRepository {
	return r
}

type fakeOTPRepo struct {
	challenges map[int64]repository.OTPChallenge
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{challenges: make(map[int64]repository.OTPChallenge)}
}

func (r *fakeOTPRepo) Issue(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	r.challenges[userID] = repository.OTPChallenge{Code: strings.ToUpper(code), ExpiresAt: expiresAt}
	return nil
}

func (r *fakeOTPRepo) Consume(ctx context.Context, userID int64, code string, now time.Time) (repository.OTPConsumeResult, error) {
	ch, ok := r.challenges[userID]
	if !ok {
		return repository.OTPConsumeNone, nil
	}
	if now.After(ch.ExpiresAt) {
		delete(r.challenges, userID)
		return repository.OTPConsumeExpired, nil
	}
	if strings.ToUpper(strings.TrimSpace(code)) != ch.Code {
		return repository.OTPConsumeMismatch, nil
	}
	delete(r.challenges, userID)
	return repository.OTPConsumeOK, nil
}

func (r *fakeOTPRepo) Get(ctx context.Context, userID int64) (*repository.OTPChallenge, error) {
	ch, ok := r.challenges[userID]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

type fakeSessionRepo struct {
	windows map[int64]repository.SessionWindow
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{windows: make(map[int64]repository.SessionWindow)}
}

func (r *fakeSessionRepo) Open(ctx context.Context, userID int64, window repository.SessionWindow) error {
	r.windows[userID] = window
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, userID int64) (*repository.SessionWindow, error) {
	w, ok := r.windows[userID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *fakeSessionRepo) Clear(ctx context.Context, userID int64) error {
	delete(r.windows, userID)
	return nil
}

type fakeDeliverer struct {
	delivered []string
	err       error
}

func (d *fakeDeliverer) Deliver(ctx context.Context, username, email, code string) error {
	if d.err != nil {
		return d.err
	}
	d.delivered = append(d.delivered, code)
	return nil
}

// fakeRunner plays back a script of outcomes and errors.
type fakeRunner struct {
	outcomes []sandboxresult.Outcome
	errs     []error
	calls    int
}

func (r *fakeRunner) Run(ctx context.Context, req runner.RunRequest) (sandboxresult.Outcome, error) {
	i := r.calls
	r.calls++
	var err error
	if i < len(r.errs) {
		err = r.errs[i]
	}
	if err != nil {
		return sandboxresult.Outcome{}, err
	}
	if i < len(r.outcomes) {
		out := r.outcomes[i]
		out.ExecutionID = req.ExecutionID
		return out, nil
	}
	return sandboxresult.Outcome{ExecutionID: req.ExecutionID, Status: sandboxresult.StatusOK}, nil
}

// fakeConn satisfies sqlx.SqlConn for transaction scoping only. Any
// other method panics via the embedded nil interface.
type fakeConn struct {
	sqlx.SqlConn
	txErr error
}

func (c fakeConn) TransactCtx(ctx context.Context, fn func(ctx context.Context, session sqlx.Session) error) error {
	if c.txErr != nil {
		return c.txErr
	}
	return fn(ctx, nil)
}

type testEnv struct {
	svcCtx    *svc.ServiceContext
	clock     *fakeClock
	users     *fakeUserRepo
	functions *fakeFunctionRepo
	execs     *fakeExecutionRepo
	otps      *fakeOTPRepo
	sessions  *fakeSessionRepo
	deliverer *fakeDeliverer
	runner    *fakeRunner
}

func newTestEnv() *testEnv {
	env := &testEnv{
		clock:     newFakeClock(),
		users:     newFakeUserRepo(),
		functions: newFakeFunctionRepo(),
		execs:     newFakeExecutionRepo(),
		otps:      newFakeOTPRepo(),
		sessions:  newFakeSessionRepo(),
		deliverer: &fakeDeliverer{},
		runner:    &fakeRunner{},
	}

	cfg := config.Config{}
	cfg.Verification.CodeTTL = 5 * time.Minute
	cfg.Verification.WindowTTL = 30 * time.Minute
	cfg.Billing.CostPerRun = 0.01
	cfg.MaxCodeBytes = 64 << 10

	env.svcCtx = &svc.ServiceContext{
		Config:        cfg,
		Conn:          fakeConn{},
		UserRepo:      env.users,
		FunctionRepo:  env.functions,
		ExecutionRepo: env.execs,
		OTPRepo:       env.otps,
		SessionRepo:   env.sessions,
		Languages:     profile.DefaultRegistry(),
		Runner:        env.runner,
		Pool:          pool.New(2),
		Deliverer:     env.deliverer,
		Now:           env.clock.Now,
	}
	return env
}

// verify runs the full challenge flow for the user so run tests start
// from an open trust window.
func (env *testEnv) openWindow(userID int64) {
	now := env.clock.Now()
	env.sessions.windows[userID] = repository.SessionWindow{
		VerifiedAt: now,
		ExpiresAt:  now.Add(env.svcCtx.Config.Verification.WindowTTL),
	}
}
