// tags реализует правку упорядоченного набора тегов профиля.
//
// Все функции возвращают новый слайс и никогда не модифицируют входной,
// чтобы вызывающий сам решал, когда сохранять результат.
package tags

import "strings"

// Add добавляет text в конец, если после TrimSpace он не пуст.
// Дубликаты допустимы: повторное добавление того же тега создаёт вторую запись.
func Add(tags []string, text string) []string {
	output := clone(tags)

	text = strings.TrimSpace(text)
	if text == "" {
		return output
	}

	return append(output, text)
}

// Remove удаляет первое точное совпадение text. Если совпадения нет — копия без изменений.
func Remove(tags []string, text string) []string {
	output := clone(tags)

	for i, t := range output {
		if t == text {
			return append(output[:i], output[i+1:]...)
		}
	}

	return output
}

// Rename заменяет первое точное совпадение oldText на newText (после TrimSpace),
// сохраняя позицию. Пустой newText или отсутствие oldText — no-op.
func Rename(tags []string, oldText, newText string) []string {
	output := clone(tags)

	newText = strings.TrimSpace(newText)
	if newText == "" {
		return output
	}

	for i, t := range output {
		if t == oldText {
			output[i] = newText
			break
		}
	}

	return output
}

// clone — копия с гарантированно не-nil результатом.
func clone(tags []string) []string {
	return append(make([]string, 0, len(tags)+1), tags...)
}
