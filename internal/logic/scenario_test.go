package logic

import (
	"context"
	"testing"
	"time"

	sandboxresult "runbox/internal/sandbox/result"
	"runbox/internal/types"
	pkgerrors "runbox/pkg/errors"
)

// Full walkthrough: register, request a code, verify, run a snippet,
// then inspect usage and the trust window winding down.
func TestVerifyThenRunFlow(t *testing.T) {
	env := newTestEnv()
	env.svcCtx.Config.Verification.EchoCode = true
	env.runner.outcomes = []sandboxresult.Outcome{
		{Status: sandboxresult.StatusOK, Stdout: "4\n", DurationMs: 15},
	}

	accounts := NewAccountManager(env.svcCtx)
	verification := NewVerificationManager(env.svcCtx)
	executions := NewExecutionManager(env.svcCtx)
	ctx := context.Background()

	if _, err := accounts.Register(ctx, &types.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "s3curePass",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Running before verifying is rejected outright.
	if _, err := executions.Run(ctx, &types.RunRequest{
		Username: "alice", Language: "python", Code: "print(2+2)",
	}); !pkgerrors.Is(err, pkgerrors.NotVerified) {
		t.Fatalf("expected NotVerified before the challenge, got %v", err)
	}

	issued, err := verification.RequestCode(ctx, "alice", "s3curePass")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	if _, err := verification.Verify(ctx, "alice", issued.Code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	resp, err := executions.Run(ctx, &types.RunRequest{
		Username: "alice", Language: "python", Code: "print(2+2)", Name: "adder",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Stdout != "4\n" {
		t.Fatalf("expected stdout %q, got %q", "4\n", resp.Stdout)
	}
	if resp.Cost != 0.01 {
		t.Fatalf("expected cost 0.01, got %v", resp.Cost)
	}
	if resp.TotalCost != 0.01 {
		t.Fatalf("expected total cost 0.01, got %v", resp.TotalCost)
	}
	if resp.Function == nil || resp.Function.RunCount != 1 {
		t.Fatalf("expected saved function with run count 1, got %+v", resp.Function)
	}

	usage, err := accounts.Usage(ctx, "alice")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if usage.TotalRuns != 1 || usage.PythonRuns != 1 || usage.TotalCost != 0.01 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
	if usage.TotalFunctions != 1 || usage.TotalExecutions != 1 {
		t.Fatalf("unexpected totals: %+v", usage)
	}

	// The window dies 30 minutes in; runs are rejected again without a
	// fresh challenge, and nothing new is billed.
	env.clock.Advance(31 * time.Minute)
	if _, err := executions.Run(ctx, &types.RunRequest{
		Username: "alice", Language: "python", Code: "print(1)",
	}); !pkgerrors.Is(err, pkgerrors.WindowExpired) {
		t.Fatalf("expected WindowExpired after the window lapses, got %v", err)
	}
	after, err := accounts.Usage(ctx, "alice")
	if err != nil {
		t.Fatalf("usage after expiry: %v", err)
	}
	if after.TotalCost != 0.01 {
		t.Fatalf("rejected run must not change the ledger, got %v", after.TotalCost)
	}

	status, err := verification.Status(ctx, "alice")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Verified {
		t.Fatalf("status should report the lapsed window")
	}
}
