package service

import (
	"crypto/rand"
	"encoding/base64"
)

// generateToken returns a 256-bit random secret token, base64 encoded. It is
// returned to the creator once and required to authorize deletion.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
