package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ClientState stores the CLI's sticky settings between sessions.
type ClientState struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
}

func Load(path string) (ClientState, error) {
	var st ClientState
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("read client state failed: %w", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse client state failed: %w", err)
	}
	return st, nil
}

func Save(path string, st ClientState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create client state dir failed: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal client state failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write client state failed: %w", err)
	}
	return nil
}
