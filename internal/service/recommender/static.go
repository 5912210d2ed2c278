package recommender

import (
	"context"
	"math/rand"

	"github.com/samber/lo"

	"github.com/movieparty/core/internal/model"
)

// Static is the no-API-key provider: a fixed catalog of crowd pleasers,
// exclusion-aware and shuffled. Useful for local development and as the
// last line behind a dead upstream.
type Static struct {
	catalog []model.Movie
}

func NewStatic() *Static {
	return &Static{catalog: staticCatalog}
}

func (s *Static) Generate(ctx context.Context, preferences, excludeTitles, participantNames []string) ([]model.Movie, error) {
	available := lo.Filter(s.catalog, func(m model.Movie, _ int) bool {
		return !lo.Contains(excludeTitles, m.Title)
	})
	if len(available) == 0 {
		return nil, ErrExhaustedCandidates
	}

	shuffled := append([]model.Movie(nil), available...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if len(shuffled) > batchSize {
		shuffled = shuffled[:batchSize]
	}
	return shuffled, nil
}

var staticCatalog = []model.Movie{
	{
		Title:     "Inception",
		Year:      2010,
		Reasoning: "Perfect blend of action and mind-bending sci-fi that appeals to fans of complex storytelling and visual spectacle.",
		Genres:    []string{"Action", "Sci-Fi", "Thriller"},
		Poster:    "https://image.tmdb.org/t/p/w500/9gk7adHYeDvHkCSEqAvQNLV5Uge.jpg",
		Overview:  "A thief who steals corporate secrets through the use of dream-sharing technology is given the inverse task of planting an idea into the mind of a C.E.O.",
		Rating:    8.8,
	},
	{
		Title:     "The Grand Budapest Hotel",
		Year:      2014,
		Reasoning: "Whimsical comedy-drama with stunning visuals and quirky characters, perfect for those who enjoy unique storytelling styles.",
		Genres:    []string{"Comedy", "Drama"},
		Poster:    "https://image.tmdb.org/t/p/w500/eWdyYQreja6JGCzqHWXpWHDrrPo.jpg",
		Overview:  "A writer encounters the owner of an aging high-class hotel, who tells him of his early years serving as a lobby boy in the hotel's glorious years under an exceptional concierge.",
		Rating:    8.1,
	},
	{
		Title:     "Parasite",
		Year:      2019,
		Reasoning: "Award-winning thriller that combines dark comedy with social commentary, appealing to fans of sophisticated international cinema.",
		Genres:    []string{"Thriller", "Drama", "Comedy"},
		Poster:    "https://image.tmdb.org/t/p/w500/7IiTTgloJzvGI1TAYymCfbfl3vT.jpg",
		Overview:  "A poor family schemes to become employed by a wealthy family by infiltrating their household and posing as unrelated, highly qualified individuals.",
		Rating:    8.6,
	},
	{
		Title:     "Spider-Man: Into the Spider-Verse",
		Year:      2018,
		Reasoning: "Innovative animated superhero film that appeals to both comic book fans and animation enthusiasts with its unique visual style.",
		Genres:    []string{"Animation", "Action", "Adventure"},
		Poster:    "https://image.tmdb.org/t/p/w500/iiZZdoQBEYBv6id8su7ImL0oCbD.jpg",
		Overview:  "Teen Miles Morales becomes Spider-Man of his reality, crossing his path with five counterparts from other dimensions to stop a threat for all realities.",
		Rating:    8.4,
	},
	{
		Title:     "Knives Out",
		Year:      2019,
		Reasoning: "Modern murder mystery with wit and charm, perfect for groups who enjoy clever plots and ensemble casts.",
		Genres:    []string{"Mystery", "Comedy", "Crime"},
		Poster:    "https://image.tmdb.org/t/p/w500/pThyQovXQrw2m0s9x82twj48Jq4.jpg",
		Overview:  "A detective investigates the death of a patriarch of an eccentric, combative family.",
		Rating:    7.9,
	},
	{
		Title:     "Dune",
		Year:      2021,
		Reasoning: "Epic sci-fi spectacle with stunning visuals and compelling world-building for fans of grand storytelling.",
		Genres:    []string{"Sci-Fi", "Adventure", "Drama"},
		Poster:    "https://image.tmdb.org/t/p/w500/d5NXSklXo0qyIYkgV94XAgMIckC.jpg",
		Overview:  "Paul Atreides leads nomadic tribes in a rebellion against the evil House Harkonnen.",
		Rating:    8.1,
	},
	{
		Title:     "The Batman",
		Year:      2022,
		Reasoning: "Dark, grounded take on the iconic superhero with noir atmosphere and compelling detective work.",
		Genres:    []string{"Action", "Crime", "Drama"},
		Poster:    "https://image.tmdb.org/t/p/w500/74xTEgt7R36Fpooo50r9T25onhq.jpg",
		Overview:  "Batman ventures into Gotham City's underworld when a sadistic killer leaves behind a trail of cryptic clues.",
		Rating:    7.8,
	},
	{
		Title:     "Top Gun: Maverick",
		Year:      2022,
		Reasoning: "High-octane action and emotional depth that appeals to both nostalgia and new audiences.",
		Genres:    []string{"Action", "Drama"},
		Poster:    "https://image.tmdb.org/t/p/w500/62HCnUTziyWcpDaBO2i1DX17ljH.jpg",
		Overview:  "After thirty years, Maverick is still pushing the envelope as a top naval aviator.",
		Rating:    8.3,
	},
	{
		Title:     "Everything Everywhere All at Once",
		Year:      2022,
		Reasoning: "Mind-bending multiverse adventure that combines humor, heart, and spectacular creativity.",
		Genres:    []string{"Action", "Adventure", "Comedy"},
		Poster:    "https://image.tmdb.org/t/p/w500/w3LxiVYdWWRvEVdn5RYq6jIqkb1.jpg",
		Overview:  "A Chinese-American woman gets swept up in an insane adventure in which she alone can save the world.",
		Rating:    8.1,
	},
	{
		Title:     "The Menu",
		Year:      2022,
		Reasoning: "Dark comedy thriller with unexpected twists that will keep groups guessing and discussing.",
		Genres:    []string{"Comedy", "Horror", "Thriller"},
		Poster:    "https://image.tmdb.org/t/p/w500/v31MsWhF9WFh7Qooq6xSBbmJxoG.jpg",
		Overview:  "A couple travels to a coastal island to eat at an exclusive restaurant where the chef has prepared a lavish menu.",
		Rating:    7.2,
	},
	{
		Title:     "Glass Onion: A Knives Out Mystery",
		Year:      2022,
		Reasoning: "Clever mystery sequel with ensemble cast and witty dialogue perfect for group viewing.",
		Genres:    []string{"Comedy", "Crime", "Drama"},
		Poster:    "https://image.tmdb.org/t/p/w500/vDGr1YdrlfbU9wxTOdpf3zChmv9.jpg",
		Overview:  "Detective Benoit Blanc travels to Greece for his latest case.",
		Rating:    7.1,
	},
}
