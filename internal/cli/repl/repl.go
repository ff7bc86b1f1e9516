// Package repl implements the interactive client loop.
package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"runbox/internal/cli/command"
	"runbox/internal/cli/httpclient"
	"runbox/internal/cli/state"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

// Session holds REPL state.
type Session struct {
	client    *httpclient.Client
	commands  map[string]command.Command
	state     state.ClientState
	statePath string
}

func New(client *httpclient.Client, commands map[string]command.Command, st state.ClientState, statePath string) *Session {
	return &Session{
		client:    client,
		commands:  commands,
		state:     st,
		statePath: statePath,
	}
}

func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "runbox> ",
		HistoryFile:     "/tmp/runbox_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init failed: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println("bye")
				return nil
			}
			return fmt.Errorf("read input failed: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := s.handleSystemCommand(line); quit {
			return nil
		}
		if s.isSystemCommand(line) {
			continue
		}
		if err := s.handleCommand(ctx, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (s *Session) isSystemCommand(line string) bool {
	return line == "help" || strings.HasPrefix(line, "set ") || strings.HasPrefix(line, "show ")
}

func (s *Session) handleSystemCommand(line string) bool {
	switch {
	case line == "exit" || line == "quit":
		fmt.Println("bye")
		return true
	case line == "help":
		s.printHelp()
	case strings.HasPrefix(line, "set "):
		s.handleSet(strings.TrimSpace(strings.TrimPrefix(line, "set ")))
	case strings.HasPrefix(line, "show "):
		s.handleShow(strings.TrimSpace(strings.TrimPrefix(line, "show ")))
	}
	return false
}

func (s *Session) handleSet(args string) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		fmt.Println("usage: set base|user|timeout <value>")
		return
	}
	switch parts[0] {
	case "base":
		s.client.SetBaseURL(parts[1])
		s.state.BaseURL = parts[1]
		s.persist()
		fmt.Printf("base set to %s\n", parts[1])
	case "user":
		s.state.Username = parts[1]
		s.persist()
		fmt.Printf("user set to %s\n", parts[1])
	case "timeout":
		d, err := time.ParseDuration(parts[1])
		if err != nil {
			fmt.Printf("invalid duration: %v\n", err)
			return
		}
		s.client.SetTimeout(d)
		fmt.Printf("timeout set to %s\n", d)
	default:
		fmt.Println("usage: set base|user|timeout <value>")
	}
}

func (s *Session) handleShow(args string) {
	switch args {
	case "base":
		fmt.Println(s.client.BaseURL())
	case "user":
		fmt.Println(s.state.Username)
	default:
		fmt.Println("usage: show base|user")
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	fields, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := s.commands[fields[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}

	deps := command.Deps{
		Client:   s.client,
		Username: func() string { return s.state.Username },
	}
	info, err := cmd.Run(ctx, deps, fields[1:])
	if err != nil {
		return err
	}
	s.printResponse(info)
	return nil
}

func (s *Session) printResponse(info httpclient.ResponseInfo) {
	fmt.Printf("HTTP %d (%s)\n", info.StatusCode, info.Duration.Round(time.Millisecond))
	if len(info.Body) == 0 {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, info.Body, "", "  "); err != nil {
		fmt.Println(string(info.Body))
		return
	}
	fmt.Println(pretty.String())
}

func (s *Session) printHelp() {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := s.commands[name]
		fmt.Printf("  %-40s %s\n", cmd.Usage, cmd.Help)
	}
	fmt.Println("  set base|user|timeout <value>            Change client settings")
	fmt.Println("  show base|user                           Show client settings")
	fmt.Println("  exit                                     Quit")
}

func (s *Session) persist() {
	if s.statePath == "" {
		return
	}
	if err := state.Save(s.statePath, s.state); err != nil {
		fmt.Printf("save state failed: %v\n", err)
	}
}
