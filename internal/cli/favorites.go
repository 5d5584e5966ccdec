package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/moodon/internal/chat"
	"github.com/raphaelgruber/moodon/internal/profile"
)

var favoritesLocal bool

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage favorite products",
	Long: `Manage the favorites board. Favorites are kept locally and mirrored with
the server when logged in.

Examples:
  moodon favorites
  moodon favorites sync
  moodon favorites add guud_97008
  moodon favorites remove guud_97008`,
	RunE: runFavoritesList,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite products",
	RunE:  runFavoritesList,
}

var favoritesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replace local favorites with the server list",
	RunE:  runFavoritesSync,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesAdd,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesRemove,
}

func init() {
	favoritesAddCmd.Flags().BoolVar(&favoritesLocal, "local", false, "only change the local list")
	favoritesRemoveCmd.Flags().BoolVar(&favoritesLocal, "local", false, "only change the local list")

	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesSyncCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	printFavorites(app.Favorites.List(context.Background()))
	return nil
}

func runFavoritesSync(cmd *cobra.Command, args []string) error {
	if !app.Auth.RequireLogin() {
		return nil
	}
	list, err := app.Favorites.Sync(context.Background())
	if err != nil {
		return userError(err)
	}
	printFavorites(list)
	return nil
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	p := profile.FavoriteProduct{ID: args[0]}
	if recommended, ok := recommendedIn(app.Sync.Snapshot(), args[0]); ok {
		p = profile.FromProduct(recommended)
	}

	if favoritesLocal {
		if err := app.Favorites.Add(ctx, p); err != nil {
			return err
		}
	} else {
		if !app.Auth.RequireLogin() {
			return nil
		}
		var err error
		if p, err = app.Favorites.AddRemote(ctx, p); err != nil {
			return userError(err)
		}
	}
	fmt.Printf("Added %s to favorites\n", favoriteLabel(p))
	return nil
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if favoritesLocal {
		if err := app.Favorites.Remove(ctx, args[0]); err != nil {
			return err
		}
	} else {
		if !app.Auth.RequireLogin() {
			return nil
		}
		if err := app.Favorites.RemoveRemote(ctx, args[0]); err != nil {
			return userError(err)
		}
	}
	fmt.Printf("Removed %s from favorites\n", args[0])
	return nil
}

func printFavorites(list []profile.FavoriteProduct) {
	if len(list) == 0 {
		fmt.Println("No favorites yet.")
		return
	}
	fmt.Printf("Favorites (%d):\n\n", len(list))
	for _, p := range list {
		fmt.Printf("- %s\n", formatProduct(chat.Product{
			ID: p.ID, Name: p.Name, Brand: p.Brand, Price: p.Price, Link: p.Link, Image: p.Image,
		}))
	}
}

func favoriteLabel(p profile.FavoriteProduct) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
