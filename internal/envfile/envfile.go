// Package envfile reads and rewrites a local KEY=VALUE credentials file
// (dotenv format) and mirrors its pairs into the process environment.
//
// The file is the durable side of the credential store: the access token
// obtained during authentication is written back here so it survives
// restarts. Updates rewrite the matching key line in place and preserve
// comments and blank lines; the whole file is replaced atomically.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Store is a line-oriented KEY=VALUE file on disk.
// It assumes a single writer process; concurrent writers are not supported.
type Store struct {
	path string
}

// New creates a Store for the given file path. The file does not need to
// exist yet; Set will create it.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load parses the env file and sets every pair as a process environment
// variable, overwriting existing values. A missing file is not an error.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading env file %s: %w", s.path, err)
	}

	pairs, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return fmt.Errorf("parsing env file %s: %w", s.path, err)
	}

	for key, value := range pairs {
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}

// Get returns the value stored in the file for key. The process
// environment is not consulted.
func (s *Store) Get(key string) (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	pairs, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return "", false
	}
	value, ok := pairs[key]
	return value, ok
}

// Set rewrites the first line whose key matches, or appends a new line if
// the key is absent. All other lines, including comments and blank lines,
// are carried over verbatim. The file is replaced atomically (temp file +
// rename) with 0600 permissions.
func (s *Store) Set(key, value string) error {
	var lines []string
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		content := strings.TrimRight(string(data), "\n")
		if content != "" {
			lines = strings.Split(content, "\n")
		}
	case os.IsNotExist(err):
		// new file
	default:
		return fmt.Errorf("reading env file %s: %w", s.path, err)
	}

	entry := key + "=" + value
	found := false
	for i, line := range lines {
		if strings.HasPrefix(line, key+"=") {
			lines[i] = entry
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, entry)
	}

	return s.write(strings.Join(lines, "\n") + "\n")
}

// write replaces the file atomically using a temp file in the same
// directory, so a crash mid-write never leaves a truncated store.
func (s *Store) write(content string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.WriteString(content); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return err
	}

	// Credentials file, keep it owner-only.
	return os.Chmod(s.path, 0600)
}
