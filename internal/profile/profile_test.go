package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/moodon/internal/chat"
	"github.com/raphaelgruber/moodon/internal/client"
	"github.com/raphaelgruber/moodon/internal/store"
)

func newStore() *store.Store {
	return store.New(store.NewMemoryBackend(), "", nil)
}

func TestPreferencesValidate(t *testing.T) {
	now := time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		p    Preferences
		want error
	}{
		{"empty", Preferences{}, nil},
		{"full", Preferences{Gender: "female", Birthdate: "1998-04-12", MBTI: "INFP", Styles: []string{"빈티지", "모던"}}, nil},
		{"too many styles", Preferences{Styles: []string{"a", "b", "c", "d"}}, ErrTooManyStyles},
		{"bad mbti letters", Preferences{MBTI: "XNFP"}, ErrInvalidMBTI},
		{"short mbti", Preferences{MBTI: "INF"}, ErrInvalidMBTI},
		{"bad gender", Preferences{Gender: "robot"}, ErrInvalidGender},
		{"bad birthdate", Preferences{Birthdate: "12/04/1998"}, ErrInvalidBirth},
		{"future birthdate", Preferences{Birthdate: "2030-01-01"}, ErrInvalidBirth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate(now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSavePreferencesNormalizes(t *testing.T) {
	ctx := context.Background()
	st := newStore()

	assert.Equal(t, Preferences{}, LoadPreferences(ctx, st))

	saved, err := SavePreferences(ctx, st, Preferences{
		Gender: " Male ",
		MBTI:   "enfj",
		Styles: []string{"빈티지", " ", "빈티지", "내추럴", "모던"},
	})
	require.NoError(t, err)
	assert.Equal(t, "male", saved.Gender)
	assert.Equal(t, "ENFJ", saved.MBTI)
	assert.Equal(t, []string{"빈티지", "내추럴", "모던"}, saved.Styles)
	assert.Equal(t, saved, LoadPreferences(ctx, st))

	_, err = SavePreferences(ctx, st, Preferences{MBTI: "ABCD"})
	assert.ErrorIs(t, err, ErrInvalidMBTI)
	assert.Equal(t, saved, LoadPreferences(ctx, st), "invalid input is not stored")
}

func TestFavoritesLocal(t *testing.T) {
	ctx := context.Background()
	favs := NewFavorites(newStore(), nil, nil)

	sofa := FromProduct(chat.Product{ID: "guud_97008", Name: "소파", Brand: "guud", Price: "390000"})
	require.NoError(t, favs.Add(ctx, sofa))
	require.NoError(t, favs.Add(ctx, FavoriteProduct{ID: "p2", Name: "의자"}))

	renamed := sofa
	renamed.Name = "빈티지 소파"
	require.NoError(t, favs.Add(ctx, renamed))

	list := favs.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "빈티지 소파", list[0].Name)
	assert.True(t, favs.Contains(ctx, "p2"))

	require.NoError(t, favs.Remove(ctx, "p2"))
	require.NoError(t, favs.Remove(ctx, "missing"))
	assert.False(t, favs.Contains(ctx, "p2"))
	assert.Error(t, favs.Add(ctx, FavoriteProduct{}))
}

type fakeFavoritesAPI struct {
	remote  []client.Favorite
	removed []int64
	listErr error
}

func (f *fakeFavoritesAPI) ListFavorites(context.Context) ([]client.Favorite, error) {
	return f.remote, f.listErr
}

func (f *fakeFavoritesAPI) AddFavorite(_ context.Context, productID string) (*client.Favorite, error) {
	fav := client.Favorite{
		ID:      "31",
		Product: client.Product{ProductID: client.FlexString(productID), ProductName: "서버 이름", Price: "120000"},
	}
	f.remote = append(f.remote, fav)
	return &fav, nil
}

func (f *fakeFavoritesAPI) RemoveFavorite(_ context.Context, id int64) error {
	f.removed = append(f.removed, id)
	return nil
}

func TestFavoritesRemote(t *testing.T) {
	ctx := context.Background()
	api := &fakeFavoritesAPI{remote: []client.Favorite{
		{ID: "7", Product: client.Product{ProductID: "p7", ProductName: "조명", BrandName: "lux", Price: "59000"}},
	}}
	favs := NewFavorites(newStore(), api, nil)
	require.NoError(t, favs.Add(ctx, FavoriteProduct{ID: "local-only"}))

	list, err := favs.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, FavoriteProduct{ID: "p7", Name: "조명", Brand: "lux", Price: "59000", EntryID: 7}, list[0])
	assert.False(t, favs.Contains(ctx, "local-only"), "sync replaces the local mirror")

	added, err := favs.AddRemote(ctx, FavoriteProduct{ID: "p9", Name: "로컬 이름"})
	require.NoError(t, err)
	assert.EqualValues(t, 31, added.EntryID)
	assert.Equal(t, "서버 이름", added.Name)
	assert.True(t, favs.Contains(ctx, "p9"))

	require.NoError(t, favs.RemoveRemote(ctx, "p7"))
	assert.Equal(t, []int64{7}, api.removed)
	assert.False(t, favs.Contains(ctx, "p7"))
}

func TestFavoritesRemoveRemoteSyncsUnknownEntry(t *testing.T) {
	ctx := context.Background()
	api := &fakeFavoritesAPI{remote: []client.Favorite{{ID: "12", Product: client.Product{ProductID: "p1"}}}}
	favs := NewFavorites(newStore(), api, nil)

	require.NoError(t, favs.RemoveRemote(ctx, "p1"))
	assert.Equal(t, []int64{12}, api.removed)

	api.listErr = errors.New("offline")
	assert.Error(t, favs.RemoveRemote(ctx, "p1"))
}
