package shortener

import (
	"fmt"
	"strings"

	"github.com/jaevor/go-nanoid"
)

// Alphabet is the 62-symbol set short codes are drawn from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	MinCodeLength     = 3
	MaxCodeLength     = 15
	DefaultCodeLength = 7
)

// CodeGenerator generates short codes. Uniqueness is not guaranteed.
type CodeGenerator func() string

// NewCodeGenerator returns a generator drawing length symbols uniformly from Alphabet.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return nil, fmt.Errorf("code length %d out of range [%d, %d]", length, MinCodeLength, MaxCodeLength)
	}

	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, err
	}

	return gen, nil
}

// reserved holds path segments served by the API itself. A custom code
// equal to one of them would never be reachable.
var reserved = map[string]struct{}{
	"links":   {},
	"health":  {},
	"docs":    {},
	"schemas": {},
	"openapi": {},
}

// ValidateCustomCode applies ValidateCode and rejects reserved words.
func ValidateCustomCode(code string) error {
	if err := ValidateCode(code); err != nil {
		return err
	}

	if _, ok := reserved[strings.ToLower(code)]; ok {
		return ErrInvalidCode
	}

	return nil
}

// ValidateCode checks a short code against the length and charset rule
// shared by custom codes and inbound resolution requests.
func ValidateCode(code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return ErrInvalidCode
	}

	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return ErrInvalidCode
		}
	}

	return nil
}
