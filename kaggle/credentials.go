// Package kaggle downloads and extracts Kaggle dataset archives using
// operator-provisioned API credentials.
package kaggle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AuthError reports missing or rejected Kaggle credentials. There is no
// automated remedy; the operator has to provision a valid API token.
type AuthError struct {
	Reason string
	// Status is the HTTP status code when the API rejected the request,
	// zero when credentials could not be resolved locally.
	Status int
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("kaggle auth rejected (HTTP %d): %s", e.Status, e.Reason)
	}
	return "kaggle credentials: " + e.Reason
}

// Credentials is a Kaggle API username/key pair.
type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// LoadCredentials resolves credentials from the KAGGLE_USERNAME and
// KAGGLE_KEY environment variables, falling back to ~/.kaggle/kaggle.json.
// A missing or unreadable token yields an *AuthError.
func LoadCredentials() (Credentials, error) {
	username := os.Getenv("KAGGLE_USERNAME")
	key := os.Getenv("KAGGLE_KEY")
	if username != "" && key != "" {
		return Credentials{Username: username, Key: key}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Credentials{}, &AuthError{Reason: "no environment credentials and no home directory: " + err.Error()}
	}
	path := filepath.Join(home, ".kaggle", "kaggle.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, &AuthError{Reason: "set KAGGLE_USERNAME/KAGGLE_KEY or create " + path}
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, &AuthError{Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}
	if creds.Username == "" || creds.Key == "" {
		return Credentials{}, &AuthError{Reason: path + " is missing username or key"}
	}
	return creds, nil
}
