package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinJobTitleLength       = 3
	MaxJobTitleLength       = 200
	MinJobDescriptionLength = 10
	MaxJobDescriptionLength = 5000
	MinFullNameLength       = 2
	MaxFullNameLength       = 100
	MaxAddressLength        = 500
	MaxMessageLength        = 2000
	MinJobAmount            = 1.0
	MaxJobAmount            = 10000000.0
	MaxNumberOfPeople       = 100
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
var pincodeRegex = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("некорректный формат email")
	}
	return nil
}

// ValidatePhone проверяет формат телефона.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("некорректный формат телефона")
	}
	return nil
}

// ValidatePincode проверяет почтовый индекс.
func ValidatePincode(pincode string) error {
	if !pincodeRegex.MatchString(pincode) {
		return fmt.Errorf("некорректный почтовый индекс")
	}
	return nil
}

// ValidateAmount проверяет денежную сумму в допустимых пределах.
func ValidateAmount(fieldName string, amount, min, max float64) error {
	if amount < min {
		return fmt.Errorf("%s должна быть не менее %.2f", fieldName, min)
	}
	if max > 0 && amount > max {
		return fmt.Errorf("%s должна быть не более %.2f", fieldName, max)
	}
	return nil
}
