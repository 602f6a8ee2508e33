package models

// Series — результат агрегации: Labels[i] соответствует Counts[i].
type Series struct {
	Labels []string
	Counts []int
}

// Len возвращает количество категорий.
func (s Series) Len() int {
	return len(s.Labels)
}

// Total возвращает сумму счётчиков.
func (s Series) Total() int {
	var n int
	for _, c := range s.Counts {
		n += c
	}

	return n
}

// Dataset — один набор значений графика.
type Dataset struct {
	Label string `json:"label,omitempty"`
	Data  []int  `json:"data"`
}

// ChartData — контракт данных для виджета столбчатой диаграммы.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Stats — три графика статистики по списку пользователей.
type Stats struct {
	Country  ChartData `json:"country"`
	Gender   ChartData `json:"gender"`
	AgeRange ChartData `json:"age_range"`
}
