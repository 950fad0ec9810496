package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// SetEntry writes or replaces KEY in the .env file at path.
// Comments, ordering and unrelated lines are preserved; a new key is appended.
func SetEntry(path, key, value string) error {
	var lines []string
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read dotenv: %w", err)
	}

	entry, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	replaced := false
	for i, line := range lines {
		if lineKey(line) == key {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, entry)
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		return fmt.Errorf("write dotenv: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0o600)
}

// lineKey returns the variable a single .env line assigns, or "".
func lineKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	parsed, err := godotenv.Unmarshal(trimmed)
	if err != nil || len(parsed) != 1 {
		return ""
	}
	for k := range parsed {
		return k
	}
	return ""
}
