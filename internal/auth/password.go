package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// ValidateNewPassword enforces the password rotation policy.
func ValidateNewPassword(current, next string, minLength int) error {
	if len(next) < minLength {
		return apperrors.NewPolicyViolation(fmt.Sprintf("password must be at least %d characters", minLength))
	}
	if next == current {
		return apperrors.NewPolicyViolation("new password must differ from current password")
	}
	return nil
}
