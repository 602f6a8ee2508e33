// redact маскирует персональные данные профилей перед записью в логи.
// Полезный для отладки контекст (домен e-mail, последние цифры телефона) сохраняется.
package redact

import (
	"strings"
	"unicode"
)

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать ровно один '@', иначе возвращается "***";
//   - локальная часть заменяется на первые два символа (по рунам) + "***";
//   - если локальная часть не длиннее двух символов — "***@<domain>";
//   - доменная часть не меняется.
//
// Примеры:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Phone оставляет только две последние цифры номера: "(272) 790-0888" -> "***88".
// Если цифр меньше трёх — "***".
func Phone(s string) string {
	digits := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}

	if len(digits) < 3 {
		return "***"
	}

	return "***" + string(digits[len(digits)-2:])
}
