package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// ListFavorites returns the server-side favorites of the current user.
func (c *Client) ListFavorites(ctx context.Context) ([]Favorite, error) {
	var out []Favorite
	if err := c.Do(ctx, http.MethodGet, "/api/favorites/", nil, &out); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}

// AddFavorite favorites a product by its catalogue product id.
// The server treats repeated adds as a no-op and returns the existing entry.
func (c *Client) AddFavorite(ctx context.Context, productID string) (*Favorite, error) {
	var out Favorite
	body := map[string]string{"product_id": productID}
	if err := c.Do(ctx, http.MethodPost, "/api/favorites/", body, &out); err != nil {
		return nil, fmt.Errorf("add favorite %s: %w", productID, err)
	}
	return &out, nil
}

// RemoveFavorite deletes a favorites entry by its entry id.
func (c *Client) RemoveFavorite(ctx context.Context, id int64) error {
	path := "/api/favorites/" + strconv.FormatInt(id, 10) + "/"
	if err := c.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove favorite %d: %w", id, err)
	}
	return nil
}
