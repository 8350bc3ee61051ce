package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests run with the interactive profile; the production default is too slow
// for the unit test loop.
var testParams = func() PBKDF2Params {
	p, err := PBKDF2Profile(KDFProfileInteractive)
	if err != nil {
		panic(err)
	}
	return p
}()

func TestDerive_FreshSaltPerCall(t *testing.T) {
	d1, err := Derive("correct-horse-battery-staple123", WithParams(testParams))
	require.NoError(t, err)
	defer d1.Destroy()

	d2, err := Derive("correct-horse-battery-staple123", WithParams(testParams))
	require.NoError(t, err)
	defer d2.Destroy()

	assert.NotEqual(t, d1.Salt, d2.Salt)
	assert.NotEqual(t, d1.Key, d2.Key)
	assert.Len(t, d1.Key, 32)
	assert.Len(t, d1.IV, 16)
	assert.Len(t, d1.Salt, 16)
}

func TestDerive_RederiveWithPersistedSalt(t *testing.T) {
	d1, err := Derive("correct-horse-battery-staple123", WithParams(testParams))
	require.NoError(t, err)
	defer d1.Destroy()

	d2, err := Derive("correct-horse-battery-staple123", WithParams(testParams), WithSalt(d1.Salt))
	require.NoError(t, err)
	defer d2.Destroy()

	assert.Equal(t, d1.Key, d2.Key)
	assert.Equal(t, d1.IV, d2.IV)
}

func TestDerive_DifferentPasswords(t *testing.T) {
	d1, err := Derive("password-one", WithParams(testParams))
	require.NoError(t, err)
	defer d1.Destroy()

	d2, err := Derive("password-two", WithParams(testParams), WithSalt(d1.Salt))
	require.NoError(t, err)
	defer d2.Destroy()

	assert.NotEqual(t, d1.Key, d2.Key)
}

func TestDerive_RejectsWeakParams(t *testing.T) {
	_, err := Derive("password", WithParams(PBKDF2Params{Iterations: 1, KeyLen: 48}))
	assert.Error(t, err)
}

func TestDerivedKey_Destroy(t *testing.T) {
	d, err := Derive("password", WithParams(testParams))
	require.NoError(t, err)

	d.Destroy()
	assert.Nil(t, d.Key)
	assert.Nil(t, d.IV)
}
