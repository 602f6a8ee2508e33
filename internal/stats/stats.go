// stats агрегирует список пользователей в данные для столбчатых диаграмм.
//
// Порядок категорий во всех функциях — порядок первого появления при проходе
// по входному списку; он не зависит ни от алфавита, ни от итоговых счётчиков.
package stats

import (
	"fmt"

	"github.com/pribylovaa/go-users-directory/internal/models"
)

// Заголовки графиков.
const (
	TitleCountry  = "Users by Country"
	TitleGender   = "Users by Gender"
	TitleAgeRange = "Users by Age Range"
)

// AgeRangeWidth — ширина возрастного интервала в годах.
const AgeRangeWidth = 5

// ByCountry группирует пользователей по точному значению Location.Country.
func ByCountry(users []models.User) models.Series {
	return groupBy(users, func(u models.User) string { return u.Location.Country })
}

// ByGender группирует пользователей по точному значению Gender.
func ByGender(users []models.User) models.Series {
	return groupBy(users, func(u models.User) string { return u.Gender })
}

// ByAgeRange раскладывает пользователей по интервалам AgeRange(age).
func ByAgeRange(users []models.User) models.Series {
	return groupBy(users, func(u models.User) string { return AgeRange(u.Age) })
}

// AgeRange возвращает интервал вида "25-29", начало которого кратно AgeRangeWidth.
// 28 -> "25-29", 30 -> "30-34".
func AgeRange(age int) string {
	start := age - mod(age, AgeRangeWidth)

	return fmt.Sprintf("%d-%d", start, start+AgeRangeWidth-1)
}

// mod — остаток, неотрицательный и для отрицательных a.
func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}

	return r
}

func groupBy(users []models.User, keyOf func(models.User) string) models.Series {
	series := models.Series{Labels: []string{}, Counts: []int{}}
	index := make(map[string]int, len(users))

	for _, u := range users {
		key := keyOf(u)

		i, ok := index[key]
		if !ok {
			i = len(series.Labels)
			index[key] = i
			series.Labels = append(series.Labels, key)
			series.Counts = append(series.Counts, 0)
		}

		series.Counts[i]++
	}

	return series
}

// ChartData конвертирует Series в контракт графика с одним набором данных.
func ChartData(series models.Series, title string) models.ChartData {
	labels := append(make([]string, 0, series.Len()), series.Labels...)
	data := append(make([]int, 0, len(series.Counts)), series.Counts...)

	return models.ChartData{
		Labels:   labels,
		Datasets: []models.Dataset{{Label: title, Data: data}},
	}
}

// Compute собирает все три графика по списку пользователей.
func Compute(users []models.User) models.Stats {
	return models.Stats{
		Country:  ChartData(ByCountry(users), TitleCountry),
		Gender:   ChartData(ByGender(users), TitleGender),
		AgeRange: ChartData(ByAgeRange(users), TitleAgeRange),
	}
}
