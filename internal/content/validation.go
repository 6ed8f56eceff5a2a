package content

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	RecordingTitleMin    = 8
	RecordingTitleMax    = 40
	RecordingDescMax     = 500
	RatingMin            = 1
	RatingMax            = 20
	DefaultRatingAverage = 10
	CommentTextMax       = 256
	QuestionTitleMin     = 20
	QuestionTitleMax     = 50
	QuestionTextMax      = 1000
	AnswerTextMax        = 1000
	UserNameMin          = 2
	UserNameMax          = 28
	PasswordMin          = 8
)

func validateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		if min == 1 {
			return NewValidationError(field, "%s is required", field)
		}
		return NewValidationError(field, "%s must be at least %d characters long", field, min)
	}
	if n > max {
		return NewValidationError(field, "%s must be at most %d characters long", field, max)
	}
	return nil
}

// validateOptionalText checks the bounds of a text that may be absent
func validateOptionalText(field, value string, max int) error {
	if value == "" {
		return nil
	}
	return validateLength(field, value, 1, max)
}

// requireTextOrVoice enforces that at least one of the two is present.
// Both present is allowed.
func requireTextOrVoice(textField string, hasText bool, voiceField string, hasVoice bool) error {
	if !hasText && !hasVoice {
		return NewValidationError(textField, "either %s or %s is required", textField, voiceField)
	}
	return nil
}

func validateRating(value int) error {
	if value < RatingMin || value > RatingMax {
		return NewValidationError("rating", "rating must be between %d and %d", RatingMin, RatingMax)
	}
	return nil
}

func validateRecordingTitle(title string) error {
	return validateLength("title", title, RecordingTitleMin, RecordingTitleMax)
}

func validateRecordingDescription(desc string) error {
	return validateLength("description", desc, 0, RecordingDescMax)
}

func validateQuestionTitle(title string) error {
	return validateLength("title", title, QuestionTitleMin, QuestionTitleMax)
}

func validateUserName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "name is required")
	}
	return validateLength("name", name, UserNameMin, UserNameMax)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return NewValidationError("email", "invalid email format")
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < PasswordMin {
		return NewValidationError("password", "password must be at least %d characters", PasswordMin)
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false

	for _, c := range pw {
		switch {
		case 'A' <= c && c <= 'Z':
			hasUpper = true
		case 'a' <= c && c <= 'z':
			hasLower = true
		case '0' <= c && c <= '9':
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*", c):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return NewValidationError("password", "password must contain an uppercase letter")
	}
	if !hasLower {
		return NewValidationError("password", "password must contain a lowercase letter")
	}
	if !hasDigit {
		return NewValidationError("password", "password must contain a number")
	}
	if !hasSpecial {
		return NewValidationError("password", "password must contain a special character")
	}

	return nil
}
