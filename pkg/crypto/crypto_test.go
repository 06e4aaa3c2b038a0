package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "0123456789abcdef0123456789abcdef"

func TestNewEncryptor_KeyLength(t *testing.T) {
	_, err := NewEncryptor("short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 32 bytes")
}

func TestSealOpen(t *testing.T) {
	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	a, err := enc.Seal([]byte("hello"))
	require.NoError(t, err)
	b, err := enc.Seal([]byte("hello"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce must differ per seal")

	plain, err := enc.Open(a)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))
}

func TestOpen_WrongKey(t *testing.T) {
	enc, err := NewEncryptor(key)
	require.NoError(t, err)
	other, err := NewEncryptor("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)

	sealed, err := enc.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.Error(t, err)

	_, err = enc.Open("!!not-base64!!")
	assert.Error(t, err)
}

func TestSealJSON(t *testing.T) {
	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	type doc struct {
		ServiceID string `json:"serviceId"`
	}
	sealed, err := enc.SealJSON(doc{ServiceID: "svc_1"})
	require.NoError(t, err)

	var out doc
	require.NoError(t, enc.OpenJSON(sealed, &out))
	assert.Equal(t, "svc_1", out.ServiceID)
}

func TestOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		assert.NotEqual(t, byte('0'), otp[0])
	}

	digest := HashOTP("123456")
	assert.Len(t, digest, 64)
	assert.True(t, CheckOTP("123456", digest))
	assert.False(t, CheckOTP("654321", digest))
	assert.False(t, CheckOTP("123456", ""))
}
