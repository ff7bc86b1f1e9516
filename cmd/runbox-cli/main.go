package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"runbox/internal/cli/command"
	"runbox/internal/cli/httpclient"
	"runbox/internal/cli/repl"
	"runbox/internal/cli/state"
)

const defaultBaseURL = "http://127.0.0.1:8080"

func main() {
	baseURL := flag.String("base", "", "API base URL")
	username := flag.String("user", "", "Username to act as")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Parse()

	statePath := defaultStatePath()
	st, err := state.Load(statePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load state failed: %v\n", err)
		st = state.ClientState{}
	}
	if *baseURL != "" {
		st.BaseURL = *baseURL
	}
	if st.BaseURL == "" {
		st.BaseURL = defaultBaseURL
	}
	if *username != "" {
		st.Username = *username
	}

	client := httpclient.New(st.BaseURL, *timeout)
	session := repl.New(client, command.Registry(), st, statePath)
	if err := session.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".runbox", "state.json")
}
