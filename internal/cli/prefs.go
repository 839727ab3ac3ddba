package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List favorite cities",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		if store == nil {
			return fmt.Errorf("preference store unavailable")
		}
		defer store.Close()

		favorites := store.Favorites()
		if len(favorites) == 0 {
			fmt.Println("No favorite cities yet. Add one with 'skycast favorites add <city>'.")
			return nil
		}
		for _, c := range favorites {
			fmt.Println(c)
		}
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <city>",
	Short: "Add a city to the favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		if store == nil {
			return fmt.Errorf("preference store unavailable")
		}
		defer store.Close()

		city := strings.Join(args, " ")
		store.AddFavorite(city)
		fmt.Printf("Added %s to favorites.\n", city)
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <city>",
	Short: "Remove a city from the favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		if store == nil {
			return fmt.Errorf("preference store unavailable")
		}
		defer store.Close()

		city := strings.Join(args, " ")
		store.RemoveFavorite(city)
		fmt.Printf("Removed %s from favorites.\n", city)
		return nil
	},
}

var recentsCmd = &cobra.Command{
	Use:   "recents",
	Short: "List recently searched cities, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		if store == nil {
			return fmt.Errorf("preference store unavailable")
		}
		defer store.Close()

		recents := store.Recents()
		if len(recents) == 0 {
			fmt.Println("No recent searches.")
			return nil
		}
		for _, c := range recents {
			fmt.Println(c)
		}
		return nil
	},
}

var recentsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		if store == nil {
			return fmt.Errorf("preference store unavailable")
		}
		defer store.Close()

		store.ClearRecents()
		fmt.Println("Recent searches cleared.")
		return nil
	},
}

func init() {
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	recentsCmd.AddCommand(recentsClearCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(recentsCmd)
}
