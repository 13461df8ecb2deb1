package credentials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/finvera/wealthgate/pkg/errors"
	"github.com/finvera/wealthgate/pkg/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AdvisorCredential{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM advisor_credentials")
	})
	return db
}

func seedCredential(t *testing.T, db *gorm.DB, p *Provider, advisorID uuid.UUID, passKey string) {
	t.Helper()
	ciphertext, nonce, err := p.EncryptPassKey(passKey)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.AdvisorCredential{
		ID:               uuid.New(),
		AdvisorID:        advisorID,
		MemberID:         "MEM001",
		UserID:           "USR42",
		ARN:              "ARN-1234",
		EUIN:             "E99999",
		EncryptedPassKey: ciphertext,
		PassKeyNonce:     nonce,
	}).Error)
}

func TestProviderResolve(t *testing.T) {
	db := newTestDB(t)
	provider := NewProvider(zap.NewNop(), db, "test-master-secret")
	advisorID := uuid.New()
	seedCredential(t, db, provider, advisorID, "s3cret-pass-key")

	t.Run("DecryptsPassKey", func(t *testing.T) {
		creds, err := provider.Resolve(context.Background(), advisorID)
		require.NoError(t, err)

		assert.Equal(t, "MEM001", creds.MemberID)
		assert.Equal(t, "USR42", creds.UserID)
		assert.Equal(t, "ARN-1234", creds.ARN)
		assert.Equal(t, "E99999", creds.EUIN)
		assert.Equal(t, "s3cret-pass-key", creds.PassKey)
	})

	t.Run("CachesResolvedEntry", func(t *testing.T) {
		first, err := provider.Resolve(context.Background(), advisorID)
		require.NoError(t, err)
		second, err := provider.Resolve(context.Background(), advisorID)
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("UnknownAdvisorIsNotFound", func(t *testing.T) {
		_, err := provider.Resolve(context.Background(), uuid.New())
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.NotFound))
	})

	t.Run("WrongMasterSecretFailsClosed", func(t *testing.T) {
		other := NewProvider(zap.NewNop(), db, "a-different-secret")
		_, err := other.Resolve(context.Background(), advisorID)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "s3cret-pass-key")
	})
}

func TestCipherRoundTrip(t *testing.T) {
	c := newPassKeyCipher("master")

	ciphertext, nonce, err := c.encrypt("pass-key-1")
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "pass-key-1")

	plain, err := c.decrypt(ciphertext, nonce)
	require.NoError(t, err)
	assert.Equal(t, "pass-key-1", plain)

	t.Run("TamperedCiphertextRejected", func(t *testing.T) {
		tampered := append([]byte{}, ciphertext...)
		tampered[0] ^= 0xff
		_, err := c.decrypt(tampered, nonce)
		assert.Error(t, err)
	})
}
