package model

const EmptyTitle string = ""

// Movie is one recommended item as delivered to clients.
// Enrichment fields (poster, genres, rating, overview) are optional:
// the provider may return bare title/year/reasoning when lookups fail.
type Movie struct {
	Title     string   `json:"title"`
	Year      int      `json:"year"`
	Reasoning string   `json:"reasoning"`
	Genres    []string `json:"genres,omitempty"`
	Poster    string   `json:"poster,omitempty"`
	Overview  string   `json:"overview,omitempty"`
	Rating    float64  `json:"rating,omitempty"`

	ParticipantMatchScore map[string]int `json:"participantMatchScore,omitempty"`
}

// MovieIdea is the bare suggestion an LLM returns before enrichment.
type MovieIdea struct {
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Reasoning string `json:"reasoning"`
}

// MatchResult is one aggregated swipe outcome: a movie liked by
// at least the match threshold of participants.
type MatchResult struct {
	Movie      Movie    `json:"movie"`
	Likes      int      `json:"likes"`
	LikedBy    []string `json:"likedBy"`
	Percentage int      `json:"percentage"`
}
