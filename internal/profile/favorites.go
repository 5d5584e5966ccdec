package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/moodon/internal/chat"
	"github.com/raphaelgruber/moodon/internal/client"
	"github.com/raphaelgruber/moodon/internal/store"
)

// FavoriteProduct is a product on the user's favorites board.
type FavoriteProduct struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Price string `json:"price,omitempty" yaml:"price,omitempty"`
	Brand string `json:"brand,omitempty" yaml:"brand,omitempty"`
	Link  string `json:"link,omitempty" yaml:"link,omitempty"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// EntryID is the server favorites entry, 0 when only local.
	EntryID int64 `json:"entry_id,omitempty" yaml:"entry_id,omitempty"`
}

// FromProduct converts a product recommended in chat.
func FromProduct(p chat.Product) FavoriteProduct {
	return FavoriteProduct{ID: p.ID, Name: p.Name, Price: p.Price, Brand: p.Brand, Link: p.Link, Image: p.Image}
}

// FavoritesAPI is the subset of the REST client used for favorites.
type FavoritesAPI interface {
	ListFavorites(ctx context.Context) ([]client.Favorite, error)
	AddFavorite(ctx context.Context, productID string) (*client.Favorite, error)
	RemoveFavorite(ctx context.Context, id int64) error
}

// Favorites is the local favorites list, optionally mirrored with the server.
type Favorites struct {
	store  *store.Store
	api    FavoritesAPI
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFavorites creates a favorites list. api may be nil for local-only use.
func NewFavorites(st *store.Store, api FavoritesAPI, logger *slog.Logger) *Favorites {
	if logger == nil {
		logger = slog.Default()
	}
	return &Favorites{store: st, api: api, logger: logger}
}

func (f *Favorites) loadLocked(ctx context.Context) []FavoriteProduct {
	var list []FavoriteProduct
	if !f.store.GetJSON(ctx, store.KeyFavorites, &list) {
		return nil
	}
	return list
}

func (f *Favorites) saveLocked(ctx context.Context, list []FavoriteProduct) error {
	if err := f.store.SetJSON(ctx, store.KeyFavorites, list); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}

// List returns the favorites in insertion order.
func (f *Favorites) List(ctx context.Context) []FavoriteProduct {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked(ctx)
}

// Contains reports whether a product is a favorite.
func (f *Favorites) Contains(ctx context.Context, productID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return indexOf(f.loadLocked(ctx), productID) >= 0
}

// Add stores a favorite. Adding an existing product updates it in place.
func (f *Favorites) Add(ctx context.Context, p FavoriteProduct) error {
	if p.ID == "" {
		return fmt.Errorf("add favorite: empty product id")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.loadLocked(ctx)
	if i := indexOf(list, p.ID); i >= 0 {
		if p.EntryID == 0 {
			p.EntryID = list[i].EntryID
		}
		list[i] = p
	} else {
		list = append(list, p)
	}
	return f.saveLocked(ctx, list)
}

// Remove drops a favorite. Unknown ids are ignored.
func (f *Favorites) Remove(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.loadLocked(ctx)
	i := indexOf(list, productID)
	if i < 0 {
		return nil
	}
	list = append(list[:i], list[i+1:]...)
	return f.saveLocked(ctx, list)
}

// Sync replaces the local list with the server's favorites.
func (f *Favorites) Sync(ctx context.Context) ([]FavoriteProduct, error) {
	if f.api == nil {
		return nil, fmt.Errorf("sync favorites: no api")
	}
	remote, err := f.api.ListFavorites(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]FavoriteProduct, 0, len(remote))
	for _, fav := range remote {
		list = append(list, fromRemote(fav))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveLocked(ctx, list); err != nil {
		return nil, err
	}
	f.logger.Debug("favorites synced", "count", len(list))
	return list, nil
}

// AddRemote favorites a product on the server and mirrors it locally.
func (f *Favorites) AddRemote(ctx context.Context, p FavoriteProduct) (FavoriteProduct, error) {
	if f.api == nil {
		return p, fmt.Errorf("add favorite: no api")
	}
	fav, err := f.api.AddFavorite(ctx, p.ID)
	if err != nil {
		return p, err
	}
	remote := fromRemote(*fav)
	if remote.ID == "" {
		remote.ID = p.ID
	}
	if remote.Name == "" {
		entry := remote.EntryID
		remote = p
		remote.EntryID = entry
	}
	if err := f.Add(ctx, remote); err != nil {
		return remote, err
	}
	return remote, nil
}

// RemoveRemote removes a product from the server favorites and the local
// list. The server entry id is looked up locally, syncing once if unknown.
func (f *Favorites) RemoveRemote(ctx context.Context, productID string) error {
	if f.api == nil {
		return fmt.Errorf("remove favorite: no api")
	}
	entry := f.entryID(ctx, productID)
	if entry == 0 {
		if _, err := f.Sync(ctx); err != nil {
			return err
		}
		entry = f.entryID(ctx, productID)
	}
	if entry != 0 {
		if err := f.api.RemoveFavorite(ctx, entry); err != nil {
			return err
		}
	}
	return f.Remove(ctx, productID)
}

func (f *Favorites) entryID(ctx context.Context, productID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.loadLocked(ctx)
	if i := indexOf(list, productID); i >= 0 {
		return list[i].EntryID
	}
	return 0
}

func fromRemote(fav client.Favorite) FavoriteProduct {
	entry, _ := fav.ID.Int64()
	return FavoriteProduct{
		ID:      string(fav.Product.ProductID),
		Name:    fav.Product.ProductName,
		Price:   string(fav.Product.Price),
		Brand:   fav.Product.BrandName,
		Link:    fav.Product.LinkURL,
		Image:   fav.Product.ImageURL,
		EntryID: entry,
	}
}

func indexOf(list []FavoriteProduct, productID string) int {
	for i, p := range list {
		if p.ID == productID {
			return i
		}
	}
	return -1
}
