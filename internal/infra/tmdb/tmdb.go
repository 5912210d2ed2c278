package infra_tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/movieparty/core/internal/config"
	"github.com/movieparty/core/internal/model"
)

var (
	ErrRequestFailed = errors.New("tmdb request failed")
	ErrNotFound      = errors.New("no tmdb result for title")
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	posterBaseURL  = "https://image.tmdb.org/t/p/w500"

	cacheTTL = 24 * time.Hour
)

// TitleCache is an optional lookup cache in front of the TMDB API.
// Enrichment results for a title almost never change within a day.
type TitleCache interface {
	Get(key string) (string, error)
	Set(key string, value string, ttl time.Duration) error
}

// Client enriches bare title/year suggestions with poster, genres,
// overview and rating from TMDB.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	cache      TitleCache
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

func WithCache(cache TitleCache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

func New(cfg config.TMDB, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
}

type detailResponse struct {
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Enrich looks a movie up by title, preferring the result whose release
// date matches the stated year, and fills in presentation fields.
func (c *Client) Enrich(ctx context.Context, title string, year int) (model.Movie, error) {
	cacheKey := fmt.Sprintf("%s:%d", strings.ToLower(title), year)
	if c.cache != nil {
		if raw, err := c.cache.Get(cacheKey); err == nil && raw != "" {
			var cached model.Movie
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	hit, err := c.search(ctx, title, year)
	if err != nil {
		return model.Movie{}, err
	}

	movie := model.Movie{
		Title:    hit.Title,
		Year:     releaseYear(hit.ReleaseDate, year),
		Overview: hit.Overview,
		Rating:   math.Round(hit.VoteAverage*10) / 10,
	}
	if hit.PosterPath != "" {
		movie.Poster = posterBaseURL + hit.PosterPath
	}
	if genres, err := c.genres(ctx, hit.ID); err == nil {
		movie.Genres = genres
	}

	if c.cache != nil {
		if raw, err := json.Marshal(movie); err == nil {
			_ = c.cache.Set(cacheKey, string(raw), cacheTTL)
		}
	}
	return movie, nil
}

func (c *Client) search(ctx context.Context, title string, year int) (searchResult, error) {
	u := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s",
		c.baseURL, c.apiKey, url.QueryEscape(title))

	var parsed searchResponse
	if err := c.getJSON(ctx, u, &parsed); err != nil {
		return searchResult{}, err
	}
	if len(parsed.Results) == 0 {
		return searchResult{}, ErrNotFound
	}

	hit := parsed.Results[0]
	if year > 0 {
		prefix := strconv.Itoa(year)
		for _, r := range parsed.Results {
			if strings.HasPrefix(r.ReleaseDate, prefix) {
				hit = r
				break
			}
		}
	}
	return hit, nil
}

func (c *Client) genres(ctx context.Context, movieID int) ([]string, error) {
	u := fmt.Sprintf("%s/movie/%d?api_key=%s", c.baseURL, movieID, c.apiKey)

	var parsed detailResponse
	if err := c.getJSON(ctx, u, &parsed); err != nil {
		return nil, err
	}

	genres := make([]string, 0, len(parsed.Genres))
	for _, g := range parsed.Genres {
		genres = append(genres, g.Name)
	}
	return genres, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return nil
}

func releaseYear(releaseDate string, fallback int) int {
	if len(releaseDate) >= 4 {
		if y, err := strconv.Atoi(releaseDate[:4]); err == nil {
			return y
		}
	}
	return fallback
}
