package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateTaskReference generates a human-readable task reference in the
// format TK-XXXX-XXXX, shared with helpers over the phone or chat.
func GenerateTaskReference() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	code := strings.ToUpper(hex.EncodeToString(bytes))
	return fmt.Sprintf("TK-%s-%s", code[0:4], code[4:8]), nil
}
