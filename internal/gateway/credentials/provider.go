// Package credentials resolves and decrypts an advisor's gateway onboarding
// secrets. Pure lookup; no protocol knowledge lives here.
package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/finvera/wealthgate/pkg/errors"
	"github.com/finvera/wealthgate/pkg/models"
)

// Credentials is the decrypted secret set needed to address the gateway on
// an advisor's behalf. Never persisted in plaintext.
type Credentials struct {
	MemberID string
	UserID   string
	ARN      string
	EUIN     string
	PassKey  string
}

// Provider resolves advisor credentials. Resolved entries are cached
// in-process; the cache is read-mostly and safe for concurrent use.
type Provider struct {
	logger *zap.Logger
	db     *gorm.DB
	cipher *passKeyCipher

	mu    sync.RWMutex
	cache map[uuid.UUID]*Credentials
}

// NewProvider creates a credential provider. masterSecret is the secret the
// stored pass-keys are encrypted under.
func NewProvider(logger *zap.Logger, db *gorm.DB, masterSecret string) *Provider {
	return &Provider{
		logger: logger,
		db:     db,
		cipher: newPassKeyCipher(masterSecret),
		cache:  make(map[uuid.UUID]*Credentials),
	}
}

// Resolve returns the advisor's gateway credentials, or NotFound if the
// advisor has no onboarding record. Decryption failures are fatal and are
// reported without the underlying key material.
func (p *Provider) Resolve(ctx context.Context, advisorID uuid.UUID) (*Credentials, error) {
	p.mu.RLock()
	cached, ok := p.cache[advisorID]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var rec models.AdvisorCredential
	err := p.db.WithContext(ctx).Where("advisor_id = ?", advisorID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound.Explain("advisor %s has no gateway onboarding record", advisorID)
		}
		return nil, fmt.Errorf("failed to load advisor credential: %w", err)
	}

	passKey, err := p.cipher.decrypt(rec.EncryptedPassKey, rec.PassKeyNonce)
	if err != nil {
		// Deliberately exclude ciphertext and key material from the log.
		p.logger.Error("credential decryption failed", zap.String("advisor_id", advisorID.String()))
		return nil, fmt.Errorf("failed to decrypt pass-key for advisor %s: %w", advisorID, err)
	}

	creds := &Credentials{
		MemberID: rec.MemberID,
		UserID:   rec.UserID,
		ARN:      rec.ARN,
		EUIN:     rec.EUIN,
		PassKey:  passKey,
	}

	p.mu.Lock()
	p.cache[advisorID] = creds
	p.mu.Unlock()

	return creds, nil
}

// Invalidate drops a cached entry, forcing the next Resolve to re-read and
// re-decrypt. Used when an advisor's onboarding record is rotated.
func (p *Provider) Invalidate(advisorID uuid.UUID) {
	p.mu.Lock()
	delete(p.cache, advisorID)
	p.mu.Unlock()
}

// EncryptPassKey seals a plaintext pass-key for storage. Exposed for the
// onboarding path and for seeding test fixtures.
func (p *Provider) EncryptPassKey(passKey string) (ciphertext, nonce []byte, err error) {
	return p.cipher.encrypt(passKey)
}
