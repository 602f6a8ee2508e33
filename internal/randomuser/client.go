// randomuser — клиент внешнего API случайных профилей (randomuser.me-совместимого).
package randomuser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/pkg/log"
)

// DefaultURL — публичный endpoint randomuser.me.
const DefaultURL = "https://randomuser.me/api/"

// Client реализует service.Fetcher.
//
// Один вызов FetchUsers — ровно один HTTP-запрос, без внутренних ретраев.
// Таймауты задаются на стороне *http.Client.
type Client struct {
	client  *http.Client
	baseURL string
}

// New создаёт клиент. Пустой baseURL заменяется на DefaultURL.
func New(client *http.Client, baseURL string) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultURL
	}

	return &Client{client: client, baseURL: baseURL}
}

// FetchUsers запрашивает count профилей и маппит их в models.User.
//
// Ошибки:
//   - *FetchError — транспорт или не-2xx статус;
//   - *ValidationError — тело не декодируется, у записи нет обязательного поля
//     или login.uuid повторяется. Выборка отклоняется целиком.
func (c *Client) FetchUsers(ctx context.Context, count int) ([]models.User, error) {
	const op = "randomuser.FetchUsers"

	lg := log.From(ctx)

	endpoint, err := c.endpoint(count)
	if err != nil {
		return nil, fmt.Errorf("%s: endpoint: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: new_request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		lg.Warn("http_error",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, &FetchError{Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		lg.Warn("bad_status",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%s: %w", op, &FetchError{Status: resp.StatusCode})
	}

	var doc response
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, &ValidationError{Index: -1, Field: "body", Reason: err.Error()})
	}

	if doc.Results == nil {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Index: -1, Field: "results"})
	}

	users, err := mapResults(doc.Results)
	if err != nil {
		lg.Warn("validation_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Debug("users_fetched",
		slog.String("op", op),
		slog.Int("requested", count),
		slog.Int("received", len(users)),
	)

	return users, nil
}

// endpoint добавляет results=<count> к baseURL, сохраняя прочие параметры.
func (c *Client) endpoint(count int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("results", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// mapResults конвертирует сырые записи; первая же ошибка прерывает маппинг.
func mapResults(results []result) ([]models.User, error) {
	output := make([]models.User, 0, len(results))
	seen := make(map[string]int, len(results))

	for i, r := range results {
		u, err := mapResult(i, r)
		if err != nil {
			return nil, err
		}

		if first, ok := seen[u.ID]; ok {
			return nil, &ValidationError{
				Index:  i,
				Field:  "login.uuid",
				Reason: fmt.Sprintf("duplicate of record #%d", first),
			}
		}
		seen[u.ID] = i

		output = append(output, u)
	}

	return output, nil
}

func mapResult(i int, r result) (models.User, error) {
	missing := func(field string) error {
		return &ValidationError{Index: i, Field: field}
	}

	var u models.User

	switch {
	case r.Name == nil || r.Name.First == nil:
		return u, missing("name.first")
	case r.Name.Last == nil:
		return u, missing("name.last")
	case r.Gender == nil:
		return u, missing("gender")
	case r.Picture == nil || r.Picture.Thumbnail == nil:
		return u, missing("picture.thumbnail")
	case r.Picture.Large == nil:
		return u, missing("picture.large")
	case r.Login == nil || r.Login.UUID == nil || strings.TrimSpace(*r.Login.UUID) == "":
		return u, missing("login.uuid")
	case r.Location == nil || r.Location.City == nil:
		return u, missing("location.city")
	case r.Location.State == nil:
		return u, missing("location.state")
	case r.Location.Country == nil:
		return u, missing("location.country")
	case r.Email == nil:
		return u, missing("email")
	case r.Phone == nil:
		return u, missing("phone")
	case r.Dob == nil || r.Dob.Age == nil:
		return u, missing("dob.age")
	}

	u = models.User{
		ID:     *r.Login.UUID,
		Name:   models.Name{First: *r.Name.First, Last: *r.Name.Last},
		Gender: *r.Gender,
		Picture: models.Picture{
			Thumbnail: *r.Picture.Thumbnail,
			Large:     *r.Picture.Large,
		},
		Location: models.Location{
			City:    *r.Location.City,
			State:   *r.Location.State,
			Country: *r.Location.Country,
		},
		Email:     *r.Email,
		Phone:     *r.Phone,
		Age:       *r.Dob.Age,
		BirthDate: parseBirthDate(r.Dob.Date),
		Favourite: false,
		Tags:      []string{},
	}

	return u, nil
}

// parseBirthDate — dob.date необязателен, нераспознанный формат даёт nil.
func parseBirthDate(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339Nano, *raw)
	if err != nil {
		return nil
	}

	t = t.UTC()
	return &t
}
