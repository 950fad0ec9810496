package secrets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/vinavi-labs/vinavi/internal/config"
)

const (
	encPrefix = "ENC[age:"
	encSuffix = "]"
)

// KeyPath returns the default age key file path: $VINAVI_PATH/.age-key.
func KeyPath() string {
	return filepath.Join(config.VinaviPath(), ".age-key")
}

// GenerateIdentity creates an X25519 key pair at path (mode 0600).
// An existing file is left untouched.
func GenerateIdentity(path string) (*age.X25519Identity, error) {
	if _, err := os.Stat(path); err == nil {
		return LoadIdentity(path)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generate age identity: %w", err)
	}

	content := fmt.Sprintf("# created by vinavi\n# public key: %s\n%s\n",
		identity.Recipient().String(), identity.String())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return nil, fmt.Errorf("write age key: %w", err)
	}
	return identity, nil
}

// LoadIdentity reads the first X25519 identity from path.
func LoadIdentity(path string) (*age.X25519Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open age key: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse age identities: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", path)
	}

	id, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("unexpected identity type in %s", path)
	}
	return id, nil
}

// Encrypt seals plaintext for recipient and returns an ENC[age:...] blob.
func Encrypt(plaintext string, recipient age.Recipient) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", fmt.Errorf("age encrypt init: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("age encrypt write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("age encrypt close: %w", err)
	}
	return encPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + encSuffix, nil
}

// Decrypt opens an ENC[age:...] blob.
func Decrypt(blob string, identity age.Identity) (string, error) {
	if !IsEncrypted(blob) {
		return "", errors.New("not an encrypted blob")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(blob[len(encPrefix) : len(blob)-len(encSuffix)])
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read decrypted: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether s is an ENC[age:...] blob.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, encPrefix) && strings.HasSuffix(s, encSuffix)
}

// DecryptEnv replaces every encrypted environment variable with its
// plaintext. A missing key file is not an error when nothing is encrypted.
// It returns the names of the variables it decrypted.
func DecryptEnv(keyPath string) ([]string, error) {
	var pending []string
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && IsEncrypted(v) {
			pending = append(pending, k)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	if _, err := os.Stat(keyPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%d encrypted variables but no age key at %s", len(pending), keyPath)
	}
	identity, err := LoadIdentity(keyPath)
	if err != nil {
		return nil, err
	}

	for _, k := range pending {
		plain, err := Decrypt(os.Getenv(k), identity)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", k, err)
		}
		if err := os.Setenv(k, plain); err != nil {
			return nil, fmt.Errorf("set %s: %w", k, err)
		}
		slog.Debug("decrypted env var", "key", k)
	}
	return pending, nil
}
