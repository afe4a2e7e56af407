package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dharitri/backend/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	passwordScheme  = "argon2id"
	passwordSaltLen = 16
	passwordKeyLen  = 32
)

func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, passwordKeyLen)
}

// HashPassword returns "argon2id$<salt hex>$<key hex>" with a fresh salt.
// It panics if the system random source fails.
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(passwordSaltLen)
	key := deriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)

	return fmt.Sprintf("%s$%s$%s", passwordScheme, hex.EncodeToString(salt), hex.EncodeToString(key))
}

// VerifyPassword reports whether password matches encoded. Malformed
// encodings never match.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != passwordScheme {
		return false
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) != passwordKeyLen {
		return false
	}

	got := deriveKey([]byte(password), salt)
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(got, want) == 1
}
