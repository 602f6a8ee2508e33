package randomuser

// Сырые структуры ответа randomuser.me. Указатели позволяют отличить
// отсутствующее поле от пустого значения: отсутствие обязательного поля
// считается ошибкой валидации всей выборки.

// response — корень ответа.
type response struct {
	Results []result `json:"results"`
}

// result — один профиль.
type result struct {
	Name     *rawName     `json:"name"`
	Gender   *string      `json:"gender"`
	Picture  *rawPicture  `json:"picture"`
	Login    *rawLogin    `json:"login"`
	Location *rawLocation `json:"location"`
	Email    *string      `json:"email"`
	Phone    *string      `json:"phone"`
	Dob      *rawDob      `json:"dob"`
}

type rawName struct {
	First *string `json:"first"`
	Last  *string `json:"last"`
}

type rawPicture struct {
	Thumbnail *string `json:"thumbnail"`
	Large     *string `json:"large"`
}

type rawLogin struct {
	UUID *string `json:"uuid"`
}

type rawLocation struct {
	City    *string `json:"city"`
	State   *string `json:"state"`
	Country *string `json:"country"`
}

// rawDob — Date необязателен, Age обязателен.
type rawDob struct {
	Date *string `json:"date"`
	Age  *int    `json:"age"`
}
