package smsotp

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const saltLength = 16

// codeDerivationInfo binds the derived keystream to this purpose.
var codeDerivationInfo = []byte("sms-otp-authorization-code")

// GenerateAuthorizationCode derives a short numeric authorization code from
// the canonical transaction items (amount, currency, account) keyed with a
// freshly generated random salt. The salt is returned for audit storage; it
// is not needed to verify the code, which is compared literally against the
// stored value.
func GenerateAuthorizationCode(items []string, digits int) (string, []byte, error) {
	if digits < 1 || digits > 18 {
		return "", nil, fmt.Errorf("unsupported code length: %d digits", digits)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	secret := []byte(strings.Join(items, "&"))
	reader := hkdf.New(sha512.New, secret, salt, codeDerivationInfo)

	var raw [8]byte
	if _, err := io.ReadFull(reader, raw[:]); err != nil {
		return "", nil, fmt.Errorf("failed to derive authorization code: %w", err)
	}

	modulo := uint64(1)
	for i := 0; i < digits; i++ {
		modulo *= 10
	}
	code := binary.BigEndian.Uint64(raw[:]) % modulo

	return fmt.Sprintf("%0*d", digits, code), salt, nil
}
