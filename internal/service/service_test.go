package service

// Тесты сервисного слоя directory-сервиса.
//
//  Проверяем:
//  - LoadUsers: нормализацию count, замену списка, сохранение критериев, классификацию ошибок Fetcher;
//  - UpdateCriteria/State: частичный апдейт и пересчёт видимого списка;
//  - ToggleFavourite/теги: изменения одного пользователя, ErrNotFound, no-op без записи;
//  - Stats: scope visible/all;
//  - сериализацию параллельных изменений одной сессии;
//  - маппинг отказов хранилища в ErrUnavailable (MockSessions);
//  - неизменность сессии после неудачной записи критериев.
//
// Моки:
//   mockgen -source=./internal/storage/storage.go -destination=./mocks/storage.go -package=mocks
//   mockgen -source=./internal/service/service.go -destination=./mocks/fetcher.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-users-directory/internal/config"
	"github.com/pribylovaa/go-users-directory/internal/models"
	"github.com/pribylovaa/go-users-directory/internal/randomuser"
	"github.com/pribylovaa/go-users-directory/internal/session"
	"github.com/pribylovaa/go-users-directory/internal/storage"
	"github.com/pribylovaa/go-users-directory/internal/storage/memory"
	"github.com/pribylovaa/go-users-directory/mocks"
	"github.com/stretchr/testify/require"
)

const sid = "sid-1"

func testCfg() config.Config {
	return config.Config{
		Fetcher: config.FetcherConfig{DefaultCount: 20, MaxCount: 100, Timeout: time.Second},
	}
}

// newServiceWithMocks — сервис с моком Fetcher и memory-хранилищем сессий.
func newServiceWithMocks(t *testing.T) (*Service, *mocks.MockFetcher, *session.Store) {
	t.Helper()
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	store := session.NewStore(memory.New(time.Hour))
	return New(fetcher, store, testCfg(), nil), fetcher, store
}

func mkUser(id, first, last, gender, country string, age int, fav bool) models.User {
	return models.User{
		ID:        id,
		Name:      models.Name{First: first, Last: last},
		Gender:    gender,
		Location:  models.Location{Country: country},
		Email:     first + "@example.com",
		Age:       age,
		Favourite: fav,
		Tags:      []string{},
	}
}

func fixture() []models.User {
	return []models.User{
		mkUser("john", "John", "Doe", "male", "USA", 28, false),
		mkUser("jane", "Jane", "Doe", "female", "USA", 35, false),
		mkUser("ana", "Ana", "Silva", "female", "Brazil", 22, false),
	}
}

// seed кладёт список в сессию напрямую, минуя Fetcher.
func seed(t *testing.T, store *session.Store, users []models.User) {
	t.Helper()
	require.NoError(t, store.SaveUsers(context.Background(), sid, users))
}

func ptr[T any](v T) *T { return &v }

func TestNormalizeCount(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, testCfg(), nil)

	require.Equal(t, 20, s.NormalizeCount(0))
	require.Equal(t, 20, s.NormalizeCount(-5))
	require.Equal(t, 1, s.NormalizeCount(1))
	require.Equal(t, 100, s.NormalizeCount(100))
	require.Equal(t, 100, s.NormalizeCount(101))
}

func TestLoadUsers_ReplacesListAndKeepsCriteria(t *testing.T) {
	t.Parallel()

	s, fetcher, store := newServiceWithMocks(t)
	ctx := context.Background()

	seed(t, store, []models.User{mkUser("old", "Old", "One", "male", "X", 50, true)})
	require.NoError(t, store.SaveCriteria(ctx, sid, models.Criteria{GenderFilter: "female"}))

	fetcher.EXPECT().FetchUsers(gomock.Any(), 20).Return(fixture(), nil)

	v, err := s.LoadUsers(ctx, sid, 0)
	require.NoError(t, err)
	require.Equal(t, 3, v.Total)
	require.Equal(t, "female", v.Criteria.GenderFilter)
	require.Len(t, v.Users, 2)
	require.Equal(t, "jane", v.Users[0].ID)

	snap, err := s.Snapshot(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, fixture(), snap.Users)
}

func TestLoadUsers_ClampsCount(t *testing.T) {
	t.Parallel()

	s, fetcher, _ := newServiceWithMocks(t)

	fetcher.EXPECT().FetchUsers(gomock.Any(), 100).Return([]models.User{}, nil)

	v, err := s.LoadUsers(context.Background(), sid, 1_000_000)
	require.NoError(t, err)
	require.Zero(t, v.Total)
	require.NotNil(t, v.Users)
}

func TestLoadUsers_FetchErrorsKeepLastKnownGoodState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"bad status", &randomuser.FetchError{Status: 503}, ErrUpstreamUnavailable},
		{"transport", fmt.Errorf("wrap: %w", &randomuser.FetchError{Err: errors.New("dial tcp")}), ErrUpstreamUnavailable},
		{"context", context.DeadlineExceeded, ErrUpstreamUnavailable},
		{"invalid payload", &randomuser.ValidationError{Index: 3, Field: "login.uuid"}, ErrUpstreamInvalid},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, fetcher, store := newServiceWithMocks(t)
			ctx := context.Background()
			seed(t, store, fixture())

			fetcher.EXPECT().FetchUsers(gomock.Any(), 5).Return(nil, tt.err)

			_, err := s.LoadUsers(ctx, sid, 5)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, tt.err)

			snap, err := s.Snapshot(ctx, sid)
			require.NoError(t, err)
			require.Equal(t, fixture(), snap.Users)
		})
	}
}

func TestLoadUsers_EmptySessionID(t *testing.T) {
	t.Parallel()

	s, _, _ := newServiceWithMocks(t)

	_, err := s.LoadUsers(context.Background(), "", 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestState_FreshSessionDefaults(t *testing.T) {
	t.Parallel()

	s, _, _ := newServiceWithMocks(t)

	v, err := s.State(context.Background(), sid)
	require.NoError(t, err)
	require.Equal(t, models.DefaultCriteria(), v.Criteria)
	require.Empty(t, v.Users)
	require.Zero(t, v.Total)
}

func TestUpdateCriteria_Partial(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	ctx := context.Background()
	seed(t, store, fixture())

	v, err := s.UpdateCriteria(ctx, sid, models.CriteriaUpdate{SearchText: ptr("DOE")})
	require.NoError(t, err)
	require.Equal(t, "DOE", v.Criteria.SearchText)
	require.Equal(t, models.GenderAll, v.Criteria.GenderFilter)
	require.Len(t, v.Users, 2)

	v, err = s.UpdateCriteria(ctx, sid, models.CriteriaUpdate{GenderFilter: ptr("female")})
	require.NoError(t, err)
	require.Equal(t, "DOE", v.Criteria.SearchText, "untouched field must survive")
	require.Len(t, v.Users, 1)
	require.Equal(t, "jane", v.Users[0].ID)
	require.Equal(t, 3, v.Total)

	// критерии переживают следующий запрос.
	v, err = s.State(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, models.Criteria{SearchText: "DOE", GenderFilter: "female"}, v.Criteria)
}

func TestUpdateCriteria_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	seed(t, store, fixture())

	v, err := s.UpdateCriteria(context.Background(), sid, models.CriteriaUpdate{})
	require.NoError(t, err)
	require.Equal(t, models.DefaultCriteria(), v.Criteria)
	require.Len(t, v.Users, 3)
}

func TestUpdateCriteria_EmptyGenderRejected(t *testing.T) {
	t.Parallel()

	s, _, _ := newServiceWithMocks(t)

	_, err := s.UpdateCriteria(context.Background(), sid, models.CriteriaUpdate{GenderFilter: ptr("")})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFavouritesScenario(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	ctx := context.Background()
	seed(t, store, fixture()[:2])

	u, err := s.ToggleFavourite(ctx, sid, "jane")
	require.NoError(t, err)
	require.True(t, u.Favourite)

	v, err := s.UpdateCriteria(ctx, sid, models.CriteriaUpdate{FavouritesOnly: ptr(true)})
	require.NoError(t, err)
	require.Len(t, v.Users, 1)
	require.Equal(t, "jane", v.Users[0].ID)

	st, err := s.Stats(ctx, sid, ScopeAll)
	require.NoError(t, err)
	require.Equal(t, []string{"male", "female"}, st.Gender.Labels)
	require.Equal(t, []int{1, 1}, st.Gender.Datasets[0].Data)

	u, err = s.ToggleFavourite(ctx, sid, "jane")
	require.NoError(t, err)
	require.False(t, u.Favourite)
}

func TestUserByID(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	ctx := context.Background()
	seed(t, store, fixture())

	// фильтр не влияет на детали.
	_, err := s.UpdateCriteria(ctx, sid, models.CriteriaUpdate{GenderFilter: ptr("male")})
	require.NoError(t, err)

	u, err := s.UserByID(ctx, sid, "ana")
	require.NoError(t, err)
	require.Equal(t, "Ana", u.Name.First)

	_, err = s.UserByID(ctx, sid, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.UserByID(ctx, sid, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestToggleFavourite_NotFound(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	seed(t, store, fixture())

	_, err := s.ToggleFavourite(context.Background(), sid, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTags_Lifecycle(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	ctx := context.Background()
	seed(t, store, fixture())

	got, err := s.AddTag(ctx, sid, "john", "vip")
	require.NoError(t, err)
	require.Equal(t, []string{"vip"}, got)

	got, err = s.AddTag(ctx, sid, "john", "vip")
	require.NoError(t, err)
	require.Equal(t, []string{"vip", "vip"}, got)

	got, err = s.AddTag(ctx, sid, "john", "  friend ")
	require.NoError(t, err)
	require.Equal(t, []string{"vip", "vip", "friend"}, got)

	got, err = s.RenameTag(ctx, sid, "john", "friend", "colleague")
	require.NoError(t, err)
	require.Equal(t, []string{"vip", "vip", "colleague"}, got)

	got, err = s.RenameTag(ctx, sid, "john", "vip", "   ")
	require.NoError(t, err)
	require.Equal(t, []string{"vip", "vip", "colleague"}, got)

	got, err = s.RemoveTag(ctx, sid, "john", "vip")
	require.NoError(t, err)
	require.Equal(t, []string{"vip", "colleague"}, got)

	u, err := s.UserByID(ctx, sid, "john")
	require.NoError(t, err)
	require.Equal(t, []string{"vip", "colleague"}, u.Tags)

	// теги других пользователей не затронуты.
	other, err := s.UserByID(ctx, sid, "jane")
	require.NoError(t, err)
	require.Empty(t, other.Tags)
}

func TestTags_NotFound(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	seed(t, store, fixture())

	_, err := s.AddTag(context.Background(), sid, "missing", "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStats_Scopes(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	ctx := context.Background()
	seed(t, store, fixture())

	_, err := s.UpdateCriteria(ctx, sid, models.CriteriaUpdate{GenderFilter: ptr("female")})
	require.NoError(t, err)

	visible, err := s.Stats(ctx, sid, "")
	require.NoError(t, err)
	require.Equal(t, []string{"USA", "Brazil"}, visible.Country.Labels)
	require.Equal(t, []string{"female"}, visible.Gender.Labels)
	require.Equal(t, []string{"35-39", "20-24"}, visible.AgeRange.Labels)

	all, err := s.Stats(ctx, sid, ScopeAll)
	require.NoError(t, err)
	require.Equal(t, []int{2, 1}, all.Country.Datasets[0].Data)
	require.Equal(t, []string{"male", "female"}, all.Gender.Labels)
	require.Equal(t, []string{"25-29", "35-39", "20-24"}, all.AgeRange.Labels)

	_, err = s.Stats(ctx, sid, "everything")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConcurrentMutations_AreSerialized(t *testing.T) {
	t.Parallel()

	s, _, store := newServiceWithMocks(t)
	ctx := context.Background()
	seed(t, store, fixture())

	const n = 25
	errs := make(chan error, 2*n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddTag(ctx, sid, "john", fmt.Sprintf("t%d", i))
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.ToggleFavourite(ctx, sid, "jane")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	john, err := s.UserByID(ctx, sid, "john")
	require.NoError(t, err)
	require.Len(t, john.Tags, n, "lost update")

	jane, err := s.UserByID(ctx, sid, "jane")
	require.NoError(t, err)
	require.True(t, jane.Favourite, "odd number of toggles")
}

func TestStorageFailures_MapToUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockSessions(ctrl)
	fetcher := mocks.NewMockFetcher(ctrl)
	s := New(fetcher, session.NewStore(kv), testCfg(), nil)
	boom := errors.New("connection reset")

	kv.EXPECT().Get(gomock.Any(), sid, gomock.Any()).Return("", boom).AnyTimes()

	_, err := s.State(context.Background(), sid)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, boom)

	_, err = s.ToggleFavourite(context.Background(), sid, "john")
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = s.Stats(context.Background(), sid, ScopeAll)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestLoadUsers_SaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockSessions(ctrl)
	fetcher := mocks.NewMockFetcher(ctrl)
	s := New(fetcher, session.NewStore(kv), testCfg(), nil)

	fetcher.EXPECT().FetchUsers(gomock.Any(), 20).Return(fixture(), nil)
	kv.EXPECT().Set(gomock.Any(), sid, session.KeyUsersList, gomock.Any()).Return(errors.New("oom"))

	_, err := s.LoadUsers(context.Background(), sid, 0)
	require.ErrorIs(t, err, ErrUnavailable)
}

// rejectKeyKV — memory-хранилище, отклоняющее любую запись ключа reject.
type rejectKeyKV struct {
	*memory.Storage
	reject string
}

var errRejected = errors.New("write rejected")

func (kv *rejectKeyKV) Set(ctx context.Context, sid, key, value string) error {
	if key == kv.reject {
		return errRejected
	}
	return kv.Storage.Set(ctx, sid, key, value)
}

func (kv *rejectKeyKV) SetMany(ctx context.Context, sid string, values map[string]string) error {
	if _, ok := values[kv.reject]; ok {
		return errRejected
	}
	return kv.Storage.SetMany(ctx, sid, values)
}

var _ storage.Sessions = (*rejectKeyKV)(nil)

func TestUpdateCriteria_FailedWriteKeepsPreviousCriteria(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := &rejectKeyKV{Storage: memory.New(time.Hour), reject: session.KeyGenderFilter}
	store := session.NewStore(kv)
	s := New(nil, store, testCfg(), nil)

	seed(t, store, fixture())

	_, err := s.UpdateCriteria(ctx, sid, models.CriteriaUpdate{
		SearchText:     ptr("jane"),
		GenderFilter:   ptr("female"),
		FavouritesOnly: ptr(true),
	})
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, errRejected)

	snap, err := store.LoadSnapshot(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, models.DefaultCriteria(), snap.Criteria)
	require.Len(t, snap.Users, 3)

	// апдейт без gender_filter всё равно пишет три ключа разом.
	_, err = s.UpdateCriteria(ctx, sid, models.CriteriaUpdate{SearchText: ptr("doe")})
	require.ErrorIs(t, err, ErrUnavailable)

	snap, err = store.LoadSnapshot(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, "", snap.SearchText)
}

func TestUpdateCriteria_WritesCriteriaInOneBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockSessions(ctrl)
	s := New(nil, session.NewStore(kv), testCfg(), nil)
	boom := errors.New("connection reset")

	kv.EXPECT().Get(gomock.Any(), sid, gomock.Any()).Return("", storage.ErrNotFound).AnyTimes()
	kv.EXPECT().SetMany(gomock.Any(), sid, map[string]string{
		session.KeySearchText:     "jane",
		session.KeyGenderFilter:   "all",
		session.KeyFavouritesOnly: "false",
	}).Return(boom)

	_, err := s.UpdateCriteria(context.Background(), sid, models.CriteriaUpdate{SearchText: ptr("jane")})
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, boom)
}
