package calendar

import (
	"encoding/json"
	"os"

	"golang.org/x/oauth2"
)

// loadToken reads a cached OAuth token from path. A missing or unreadable
// file is an error; callers fall back to the interactive flow.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// saveToken persists a token for the next run. Last writer wins; concurrent
// runs from the same machine race on this file with no locking.
func saveToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
