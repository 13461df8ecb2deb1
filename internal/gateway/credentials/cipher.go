package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// keySalt is the application-scoped salt for deriving the pass-key
// encryption key from the configured master secret.
var keySalt = []byte("wealthgate/credentials/v1")

const pbkdf2Iterations = 4096

// passKeyCipher seals and opens stored pass-keys with AES-256-GCM under a
// key derived from the master secret.
type passKeyCipher struct {
	key []byte
}

func newPassKeyCipher(masterSecret string) *passKeyCipher {
	return &passKeyCipher{
		key: pbkdf2.Key([]byte(masterSecret), keySalt, pbkdf2Iterations, 32, sha256.New),
	}
}

func (c *passKeyCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func (c *passKeyCipher) encrypt(plaintext string) (ciphertext, nonce []byte, err error) {
	aead, err := c.aead()
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return aead.Seal(nil, nonce, []byte(plaintext), nil), nonce, nil
}

func (c *passKeyCipher) decrypt(ciphertext, nonce []byte) (string, error) {
	aead, err := c.aead()
	if err != nil {
		return "", err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("pass-key ciphertext did not authenticate: %w", err)
	}
	return string(plaintext), nil
}
