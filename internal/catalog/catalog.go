// Package catalog describes the fixed set of chat rooms offered by the server.
// Rooms are grouped by category and group for presentation only.
package catalog

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Room is one joinable room.
type Room struct {
	Name  string `mapstructure:"name" yaml:"name" json:"name"`
	Image string `mapstructure:"image" yaml:"image,omitempty" json:"image,omitempty"`
}

// Group is a titled list of rooms inside a category.
type Group struct {
	Title string `mapstructure:"title" yaml:"title" json:"title"`
	Rooms []Room `mapstructure:"rooms" yaml:"rooms" json:"rooms"`
}

// Category is a top-level section of the catalog.
type Category struct {
	Title  string  `mapstructure:"title" yaml:"title" json:"title"`
	Groups []Group `mapstructure:"groups" yaml:"groups" json:"groups"`
}

// Catalog is the ordered list of categories.
type Catalog []Category

// Entry locates a room within the catalog.
type Entry struct {
	Room
	Category string `json:"category"`
	Group    string `json:"group"`
}

// Entries flattens the catalog in declaration order.
func (c Catalog) Entries() []Entry {
	return lo.FlatMap(c, func(cat Category, _ int) []Entry {
		return lo.FlatMap(cat.Groups, func(g Group, _ int) []Entry {
			return lo.Map(g.Rooms, func(r Room, _ int) Entry {
				return Entry{Room: r, Category: cat.Title, Group: g.Title}
			})
		})
	})
}

// Names returns every room name in declaration order.
func (c Catalog) Names() []string {
	return lo.Map(c.Entries(), func(e Entry, _ int) string { return e.Name })
}

// Lookup finds a room by exact name.
func (c Catalog) Lookup(name string) (Entry, bool) {
	return lo.Find(c.Entries(), func(e Entry) bool { return e.Name == name })
}

// Validate rejects empty catalogs, blank names and duplicates.
func (c Catalog) Validate() error {
	names := c.Names()
	if len(names) == 0 {
		return fmt.Errorf("catalog has no rooms")
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("catalog contains a room without a name")
		}
	}
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return fmt.Errorf("duplicate room names: %s", strings.Join(dups, ", "))
	}
	return nil
}

// Default returns the stock catalog of movie, series and game rooms.
func Default() Catalog {
	return Catalog{
		{
			Title: "🎬 Movies",
			Groups: []Group{{
				Title: "Classics & Blockbusters",
				Rooms: []Room{
					{Name: "Matrix", Image: "https://m.media-amazon.com/images/M/MV5BNzQzOTk3OTAtNDQ0Zi00ZTVkLWI0MTEtMDllZjNkYzNjNTc4L2ltYWdlXkEyXkFqcGdeQXVyNjU0OTQ0OTY@._V1_FMjpg_UX1000_.jpg"},
					{Name: "The Godfather", Image: "https://m.media-amazon.com/images/M/MV5BM2MyNjYxNmUtYTAwNi00MTYxLWJmNWYtYzZlODY3ZTk3OTFlXkEyXkFqcGdeQXVyNzkwMjQ5NzM@._V1_FMjpg_UX1000_.jpg"},
					{Name: "Avengers: Endgame", Image: "https://m.media-amazon.com/images/M/MV5BMTc5MDE2ODcwNV5BMl5BanBnXkFtZTgwMzI2NzQ2NzM@._V1_FMjpg_UX1000_.jpg"},
				},
			}},
		},
		{
			Title: "📺 Series",
			Groups: []Group{{
				Title: "Critically Acclaimed",
				Rooms: []Room{
					{Name: "Breaking Bad", Image: "https://m.media-amazon.com/images/M/MV5BYmQ4YWMxYjUtNjZmYi00MDQ1LWFjMjMtNjA5ZDdiYjdiODU5XkEyXkFqcGdeQXVyMTMzNDExODE5._V1_FMjpg_UX1000_.jpg"},
					{Name: "Vikings", Image: "https://wallpapers.com/images/high/vikings-pictures-lx84id03oyttxjfp.webp"},
					{Name: "Money Heist", Image: "https://wallpapers.com/images/high/money-heist-professor-dali-mask-v0frorkujxu6znlv.webp"},
				},
			}},
		},
		{
			Title: "🎮 Games",
			Groups: []Group{{
				Title: "Popular Titles",
				Rooms: []Room{
					{Name: "Grand Theft Auto V", Image: "https://wallpapers.com/images/high/4k-gta-5-miriam-turner-overpass-5ljsktva6bt9ttq8.webp"},
					{Name: "The Last of Us", Image: "https://wallpapers.com/images/high/girl-at-sunset-the-last-of-us-4k-0w00hui3yqsi27q7.webp"},
					{Name: "EA Sports FC (FIFA)", Image: "https://wallpapers.com/images/high/fifa-17-star-players-sl7q0wlwe3ezx28s.webp"},
				},
			}},
		},
	}
}
