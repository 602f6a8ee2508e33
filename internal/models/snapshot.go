package models

// GenderAll — значение фильтра пола, пропускающее всех.
const GenderAll = "all"

// Criteria — текущие условия фильтрации списка.
type Criteria struct {
	SearchText     string `json:"search_text"`
	GenderFilter   string `json:"gender_filter"`
	FavouritesOnly bool   `json:"favourites_only"`
}

// DefaultCriteria — условия по умолчанию: без поиска, все полы, все пользователи.
func DefaultCriteria() Criteria {
	return Criteria{GenderFilter: GenderAll}
}

// CriteriaUpdate — частичный апдейт условий фильтрации.
// Обновляются только поля с непустыми указателями.
type CriteriaUpdate struct {
	SearchText     *string `json:"search_text,omitempty"`
	GenderFilter   *string `json:"gender_filter,omitempty"`
	FavouritesOnly *bool   `json:"favourites_only,omitempty"`
}

// Empty сообщает, что апдейт ничего не меняет.
func (u CriteriaUpdate) Empty() bool {
	return u.SearchText == nil && u.GenderFilter == nil && u.FavouritesOnly == nil
}

// Snapshot — полное состояние сессии: условия фильтрации и список пользователей.
// Сохраняется и восстанавливается как набор независимых ключей.
type Snapshot struct {
	Criteria
	Users []User `json:"users"`
}

// DefaultSnapshot — состояние новой сессии.
func DefaultSnapshot() Snapshot {
	return Snapshot{Criteria: DefaultCriteria(), Users: []User{}}
}

// View — видимая часть списка для текущих условий.
type View struct {
	Criteria Criteria `json:"criteria"`
	Users    []User   `json:"users"`
	// Total — размер полного списка сессии.
	Total int `json:"total"`
}
