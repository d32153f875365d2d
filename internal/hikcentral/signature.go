package hikcentral

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignedHeaders lists the headers folded into the string to sign
const SignedHeaders = "X-Ca-Key,X-Ca-Nonce,X-Ca-Timestamp"

const (
	HeaderKey              = "X-Ca-Key"
	HeaderNonce            = "X-Ca-Nonce"
	HeaderTimestamp        = "X-Ca-Timestamp"
	HeaderSignature        = "X-Ca-Signature"
	HeaderSignatureHeaders = "X-Ca-Signature-Headers"
)

// Sign returns base64(HMAC-SHA256(secret, appKey+nonce+timestamp+body))
func Sign(secret, appKey, nonce, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(appKey))
	mac.Write([]byte(nonce))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func Verify(secret, appKey, nonce, timestamp string, body []byte, signature string) bool {
	expected := Sign(secret, appKey, nonce, timestamp, body)
	return hmac.Equal([]byte(signature), []byte(expected))
}
