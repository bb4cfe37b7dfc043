package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign вычисляет hex-подпись HMAC-SHA256 над конкатенацией `orderID|paymentID` - контракт
// колбэка платежного шлюза.
func Sign(orderID, paymentID string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature сверяет подпись колбэка с пересчитанной. Сравнение через hmac.Equal,
// константное по времени.
func VerifySignature(orderID, paymentID, signature string, secret []byte) bool {
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
