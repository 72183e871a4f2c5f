package service

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"github.com/vmc-todo/backend/internal/config"
	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters mirror the reference deployment
// (Node crypto.scrypt defaults) so stored digests stay comparable.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
)

// PasswordHasher derives comparable digests with a single server-wide
// salt taken from configuration. The global salt is a known weakness
// inherited from the reference behavior.
type PasswordHasher struct {
	salt []byte
}

func NewPasswordHasher(cfg config.AuthConfig) (*PasswordHasher, error) {
	if cfg.ScryptSalt == "" {
		return nil, fmt.Errorf("%w: SCRYPT_SALT is required", ErrMisconfigured)
	}
	return &PasswordHasher{salt: []byte(cfg.ScryptSalt)}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	key, err := scrypt.Key([]byte(password), h.salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("scrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func (h *PasswordHasher) Verify(password, digest string) bool {
	derived, err := h.Hash(password)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(derived), []byte(digest)) == 1
}
