package service

import (
	"regexp"
	"strings"

	"github.com/iliyamo/atom-referral-tracker/internal/utils"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	upiPattern   = regexp.MustCompile(`^[\w.\-]+@[\w]+$`)
	codePattern  = regexp.MustCompile(`^ATOM\d{4}$`)
)

func checkEmail(email string) error {
	if email == "" {
		return Validation("email is required")
	}
	if !emailPattern.MatchString(email) {
		return Validation("invalid email format")
	}
	return nil
}

func checkPhone(phone string) error {
	if phone == "" {
		return Validation("phone is required")
	}
	if !phonePattern.MatchString(phone) {
		return Validation("invalid phone number, expected a 10-digit mobile number")
	}
	return nil
}

func checkPassword(pw string) error {
	if len(pw) < utils.MinPasswordLength {
		return Validation("password must be at least %d characters", utils.MinPasswordLength)
	}
	return nil
}

func checkUPI(upi string) error {
	if upi == "" {
		return Validation("upi id is required")
	}
	if !upiPattern.MatchString(upi) {
		return Validation("invalid upi id format")
	}
	return nil
}

func checkCode(code string) error {
	if code == "" {
		return Validation("referral code is required")
	}
	if !codePattern.MatchString(code) {
		return Validation("invalid referral code format")
	}
	return nil
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return Validation("%s is required", field)
	}
	return nil
}
