package validation

import "testing"

func TestValidateLength(t *testing.T) {
	if err := ValidateLength("поле", "аб", 3, 10); err == nil {
		t.Fatalf("короткая строка должна отклоняться")
	}
	if err := ValidateLength("поле", "абвгд", 3, 10); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if err := ValidateLength("поле", "абвгдежзикл", 3, 10); err == nil {
		t.Fatalf("длинная строка должна отклоняться")
	}

	// Длина считается в рунах, не в байтах.
	if err := ValidateLength("поле", "ещё", 3, 3); err != nil {
		t.Fatalf("кириллица должна считаться посимвольно: %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", "USER@Example.COM", "x.y+z@sub.domain.org"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Fatalf("email %q должен приниматься: %v", email, err)
		}
	}

	invalid := []string{"", "plain", "user@", "@example.com", "user@example"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Fatalf("email %q должен отклоняться", email)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	if err := ValidatePhone("+79991234567"); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if err := ValidatePhone("12345"); err == nil {
		t.Fatalf("короткий номер должен отклоняться")
	}
	if err := ValidatePhone("abc1234567890"); err == nil {
		t.Fatalf("буквы в номере должны отклоняться")
	}
}

func TestValidatePincode(t *testing.T) {
	if err := ValidatePincode("110001"); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	for _, pincode := range []string{"1100", "11000123", "11000a"} {
		if err := ValidatePincode(pincode); err == nil {
			t.Fatalf("индекс %q должен отклоняться", pincode)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount("сумма", 100, 1, 10000); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if err := ValidateAmount("сумма", 0.5, 1, 10000); err == nil {
		t.Fatalf("сумма ниже минимума должна отклоняться")
	}
	if err := ValidateAmount("сумма", 20000, 1, 10000); err == nil {
		t.Fatalf("сумма выше максимума должна отклоняться")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Password1"); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	for _, password := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		if err := ValidatePassword(password); err == nil {
			t.Fatalf("пароль %q должен отклоняться", password)
		}
	}
}
