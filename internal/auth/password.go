package auth

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

// PasswordPolicy bounds the passwords accepted at registration. The
// minimum counts characters so "señal1" is six long; the maximum counts
// bytes because bcrypt ignores everything past 72.
type PasswordPolicy struct {
	MinChars int
	MaxBytes int
}

// DefaultPasswordPolicy is the rule the mobile registration form applies.
var DefaultPasswordPolicy = PasswordPolicy{MinChars: 6, MaxBytes: 72}

// Check reports ErrPasswordTooShort or ErrPasswordTooLong.
func (p PasswordPolicy) Check(password string) error {
	if utf8.RuneCountInString(password) < p.MinChars {
		return ErrPasswordTooShort
	}
	if len(password) > p.MaxBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Hasher turns passwords into bcrypt hashes at a fixed cost.
type Hasher struct {
	cost   int
	policy PasswordPolicy
}

// NewHasher falls back to bcrypt.DefaultCost when cost is out of range.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost, policy: DefaultPasswordPolicy}
}

// Hash applies the policy and returns the encoded hash.
func (h Hasher) Hash(password string) (string, error) {
	if err := h.policy.Check(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify returns ErrInvalidPassword when password does not match hash.
// Accounts without a hash, such as the guest, never match.
func (h Hasher) Verify(hash, password string) error {
	if hash == "" {
		return ErrInvalidPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}
