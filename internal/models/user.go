// models содержит доменные сущности directory-сервиса.
// Эти типы используются чистыми движками (filter/stats/tags), слоем сессий и транспортом.
package models

import "time"

// User — профиль пользователя из внешнего источника.
//
// Особенности:
//   - ID — непрозрачная строка (UUID источника), уникальна в пределах загруженного списка;
//   - после создания меняются только Favourite и Tags, остальные поля — снимок источника;
//   - Tags хранит порядок добавления, дубликаты допустимы.
type User struct {
	ID       string   `json:"id"`
	Name     Name     `json:"name"`
	Gender   string   `json:"gender"`
	Picture  Picture  `json:"picture"`
	Location Location `json:"location"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Age      int      `json:"age"`
	// BirthDate — дата рождения (dob.date источника), может отсутствовать.
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Favourite bool       `json:"favourite"`
	Tags      []string   `json:"tags"`
}

// Name — имя и фамилия.
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// FullName возвращает "First Last".
func (n Name) FullName() string {
	return n.First + " " + n.Last
}

// Picture — ссылки на аватар в двух размерах. Не валидируются.
type Picture struct {
	Thumbnail string `json:"thumbnail"`
	Large     string `json:"large"`
}

// Location — город, регион и страна.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Clone возвращает копию пользователя с собственным слайсом тегов.
func (u User) Clone() User {
	c := u
	c.Tags = append(make([]string, 0, len(u.Tags)), u.Tags...)

	if u.BirthDate != nil {
		bd := *u.BirthDate
		c.BirthDate = &bd
	}

	return c
}
