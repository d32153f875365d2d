package hikcentral

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	body := []byte(`{"personId":"E1"}`)

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("key" + "nonce-1" + "1700000000000" + string(body)))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign("secret", "key", "nonce-1", "1700000000000", body))
}

func TestVerify(t *testing.T) {
	body := []byte(`{}`)
	sig := Sign("secret", "key", "n", "1", body)

	assert.True(t, Verify("secret", "key", "n", "1", body, sig))
	assert.False(t, Verify("other", "key", "n", "1", body, sig))
	assert.False(t, Verify("secret", "key", "n2", "1", body, sig))
	assert.False(t, Verify("secret", "key", "n", "1", []byte(`{"a":1}`), sig))
}

func TestGenderCode(t *testing.T) {
	tests := map[string]string{
		"male":   "1",
		"M":      "1",
		"1":      "1",
		"female": "2",
		"f":      "2",
		"":       "0",
		"other":  "0",
	}
	for in, want := range tests {
		assert.Equal(t, want, genderCode(in), in)
	}
}
