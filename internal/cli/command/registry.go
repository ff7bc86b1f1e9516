// Package command defines the CLI commands against the runbox API.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"runbox/internal/cli/httpclient"
)

// Deps carries what a command needs to execute.
type Deps struct {
	Client   *httpclient.Client
	Username func() string
}

// Command is one invocable CLI verb.
type Command struct {
	Name  string
	Usage string
	Help  string
	Run   func(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error)
}

// Registry returns all commands keyed by name.
func Registry() map[string]Command {
	commands := []Command{
		{
			Name:  "register",
			Usage: "register <username> <email> <password>",
			Help:  "Create a new account",
			Run:   runRegister,
		},
		{
			Name:  "request-code",
			Usage: "request-code <password>",
			Help:  "Ask for a verification code for the current user",
			Run:   runRequestCode,
		},
		{
			Name:  "verify",
			Usage: "verify <code>",
			Help:  "Redeem a verification code and open a trust window",
			Run:   runVerify,
		},
		{
			Name:  "status",
			Usage: "status",
			Help:  "Show the current trust window",
			Run:   runStatus,
		},
		{
			Name:  "run",
			Usage: "run <language> <file> [name]",
			Help:  "Execute a source file, optionally saving it as a named function",
			Run:   runExecute,
		},
		{
			Name:  "usage",
			Usage: "usage",
			Help:  "Show accumulated cost and run counters",
			Run:   runUsage,
		},
		{
			Name:  "functions",
			Usage: "functions [language]",
			Help:  "List saved functions",
			Run:   runFunctions,
		},
		{
			Name:  "function",
			Usage: "function <language> <name>",
			Help:  "Show one function with recent executions",
			Run:   runFunctionDetail,
		},
	}
	out := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		out[cmd.Name] = cmd
	}
	return out
}

func runRegister(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error) {
	if len(args) != 3 {
		return httpclient.ResponseInfo{}, fmt.Errorf("usage: register <username> <email> <password>")
	}
	body, _ := json.Marshal(map[string]string{
		"username": args[0],
		"email":    args[1],
		"password": args[2],
	})
	return deps.Client.Do(ctx, "POST", "/api/v1/register", body)
}

func runRequestCode(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error) {
	if len(args) != 1 {
		return httpclient.ResponseInfo{}, fmt.Errorf("usage: request-code <password>")
	}
	username, err := requireUsername(deps)
	if err != nil {
		return httpclient.ResponseInfo{}, err
	}
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": args[0],
	})
	return deps.Client.Do(ctx, "POST", "/api/v1/verify/request", body)
}

func runVerify(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error) {
	if len(args) != 1 {
		return httpclient.ResponseInfo{}, fmt.Errorf("usage: verify <code>")
	}
	username, err := requireUsername(deps)
	if err != nil {
		return httpclient.ResponseInfo{}, err
	}
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"code":     args[0],
	})
	return deps.Client.Do(ctx, "POST", "/api/v1/verify", body)
}

func runStatus(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error) {
	username, err := requireUsername(deps)
	if err != nil {
		return httpclient.ResponseInfo{}, err
	}
	return deps.Client.Do(ctx, "GET", "/api/v1/verify/status?username="+url.QueryEscape(username), nil)
}

func runExecute(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error) {
	if len(args) < 2 || len(args) > 3 {
		return httpclient.ResponseInfo{}, fmt.Errorf("usage: run <language> <file> [name]")
	}
	username, err := requireUsername(deps)
	if err != nil {
		return httpclient.ResponseInfo{}, err
	}
	code, err := os.ReadFile(args[1])
	if err != nil {
		return httpclient.ResponseInfo{}, fmt.Errorf("read source file failed: %w", err)
	}
	payload := map[string]string{
		"username": username,
		"language": strings.ToLower(args[0]),
		"code":     string(code),
	}
	if len(args) == 3 {
		payload["name"] = args[2]
	}
	body, _ := json.Marshal(payload)
	return deps.Client.Do(ctx, "POST", "/api/v1/execute", body)
}

func runUsage(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error) {
	username, err := requireUsername(deps)
	if err != nil {
		return httpclient.ResponseInfo{}, err
	}
	return deps.Client.Do(ctx, "GET", "/api/v1/usage?username="+url.QueryEscape(username), nil)
}

func runFunctions(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error) {
	username, err := requireUsername(deps)
	if err != nil {
		return httpclient.ResponseInfo{}, err
	}
	path := "/api/v1/functions?username=" + url.QueryEscape(username)
	if len(args) == 1 {
		path += "&language=" + url.QueryEscape(strings.ToLower(args[0]))
	}
	return deps.Client.Do(ctx, "GET", path, nil)
}

func runFunctionDetail(ctx context.Context, deps Deps, args []string) (httpclient.ResponseInfo, error) {
	if len(args) != 2 {
		return httpclient.ResponseInfo{}, fmt.Errorf("usage: function <language> <name>")
	}
	username, err := requireUsername(deps)
	if err != nil {
		return httpclient.ResponseInfo{}, err
	}
	path := fmt.Sprintf("/api/v1/functions/%s/%s?username=%s",
		url.PathEscape(strings.ToLower(args[0])), url.PathEscape(args[1]), url.QueryEscape(username))
	return deps.Client.Do(ctx, "GET", path, nil)
}

func requireUsername(deps Deps) (string, error) {
	if deps.Username == nil {
		return "", fmt.Errorf("no user selected, use: set user <username>")
	}
	username := strings.TrimSpace(deps.Username())
	if username == "" {
		return "", fmt.Errorf("no user selected, use: set user <username>")
	}
	return username, nil
}
