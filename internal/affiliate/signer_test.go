package affiliate

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	payload := []byte(`{"query":"q"}`)

	sum := sha256.Sum256([]byte("123" + "1700000000" + `{"query":"q"}` + "s3cret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), Sign("123", "s3cret", 1700000000, payload))

	assert.NotEqual(t, Sign("123", "s3cret", 1700000000, payload), Sign("123", "s3cret", 1700000001, payload))
}

func TestAuthorizationHeader(t *testing.T) {
	payload := []byte(`{}`)
	header := AuthorizationHeader("app", "key", 42, payload)

	assert.Equal(t, "SHA256 Credential=app,Timestamp=42,Signature="+Sign("app", "key", 42, payload), header)
}
