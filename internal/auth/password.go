// Password hashing and the registration password policy.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, salts automatically, and embeds the salt
// and cost in its output, so the stored hash is self-contained. Never
// store plaintext or a fast hash (MD5/SHA-256) — those fall to GPU
// cracking in minutes.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 250ms on a
// modern server — negligible per login, brutal for an attacker.
const defaultCost = 12

// specialChars is the set the password policy accepts as "special". Same
// set the registration form documents.
const specialChars = `!@#$%^&*(),.?":{}|<>`

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct rather than free functions so the cost can be lowered in
// tests — cost 4 keeps the test suite fast without changing the logic
// under test.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a reduced
// bcrypt cost. Do not use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password. The output string embeds version,
// cost, and salt; store it as-is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject explicitly.
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored hash. Returns nil on
// match. bcrypt compares in constant time, so this is safe against timing
// attacks.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// ValidatePolicy checks the registration password policy: at least 6
// characters, with at least one lowercase letter, one uppercase letter,
// and one special character.
//
// The policy is expressed as explicit scans rather than a lookahead regex
// — Go's regexp (RE2) has no lookaheads, and the scans read better anyway.
// Returns a list of human-readable complaints, empty when the password is
// acceptable.
func ValidatePolicy(password string) []string {
	var problems []string

	if len(password) < 6 {
		problems = append(problems, "Password must be at least 6 characters")
	}

	var hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	hasSpecial := strings.ContainsAny(password, specialChars)

	if !hasLower || !hasUpper || !hasSpecial {
		problems = append(problems,
			"Password must contain at least one uppercase letter, one lowercase letter, and one special character")
	}

	return problems
}
