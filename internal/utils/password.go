package utils

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength applies to both client and referrer passwords.
const MinPasswordLength = 6

// HashPassword returns a bcrypt hash. Costs outside bcrypt's accepted range
// fall back to bcrypt.DefaultCost so a bad BCRYPT_COST cannot break signups.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored bcrypt hash with a plain password. An
// empty hash never matches.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
