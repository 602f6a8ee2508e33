// filter вычисляет видимое подмножество списка пользователей.
package filter

import (
	"strings"

	"github.com/pribylovaa/go-users-directory/internal/models"
)

// Visible возвращает пользователей, прошедших все условия criteria, в исходном порядке.
//
// Запись проходит, если одновременно:
//   - SearchText пуст или "first last" без учёта регистра содержит SearchText (подстрока);
//   - GenderFilter == "all" или точно (с учётом регистра) равен Gender;
//   - FavouritesOnly == false или Favourite == true.
//
// Входной слайс не модифицируется; результат всегда не nil.
func Visible(users []models.User, criteria models.Criteria) []models.User {
	needle := strings.ToLower(criteria.SearchText)

	output := make([]models.User, 0, len(users))
	for _, u := range users {
		if !matchName(u.Name, needle) {
			continue
		}

		if criteria.GenderFilter != models.GenderAll && criteria.GenderFilter != u.Gender {
			continue
		}

		if criteria.FavouritesOnly && !u.Favourite {
			continue
		}

		output = append(output, u)
	}

	return output
}

// matchName — needle уже в нижнем регистре.
func matchName(n models.Name, needle string) bool {
	if needle == "" {
		return true
	}

	return strings.Contains(strings.ToLower(n.FullName()), needle)
}
