package affiliate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Sign returns the hex sha256 of appID + timestamp + payload + secret.
func Sign(appID, secret string, timestamp int64, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(appID))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write(payload)
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}

// AuthorizationHeader builds the value of the Authorization header for a signed call.
func AuthorizationHeader(appID, secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("SHA256 Credential=%s,Timestamp=%d,Signature=%s",
		appID, timestamp, Sign(appID, secret, timestamp, payload))
}
