package trigger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/callmelater/operion-callmelater/pkg/models"
)

var (
	ErrMissingSignature = errors.New("Missing signature header")
	ErrInvalidSignature = errors.New("Invalid signature")
)

// Sign returns the x-callmelater-signature value for body: "sha256=" followed
// by the hex HMAC-SHA256 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return models.SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against body. The comparison covers the
// whole header value, prefix included, so "SHA256=..." does not match.
func VerifySignature(secret string, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	if !hmac.Equal([]byte(signature), []byte(Sign(secret, body))) {
		return ErrInvalidSignature
	}

	return nil
}
