package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)

	token, expiresAt, err := signer.Sign("ranking-c1.csv")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	name, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ranking-c1.csv", name)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)

	token, _, err := signer.Sign("ranking-c1.csv")
	require.NoError(t, err)

	_, err = signer.Verify(token + "x")
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	other := NewDownloadSigner("different", time.Hour)

	token, _, err := signer.Sign("ranking-c1.csv")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	signer.ttl = -time.Minute

	token, _, err := signer.Sign("ranking-c1.csv")
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.Error(t, err)
}
