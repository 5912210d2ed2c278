package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Gemini struct {
	APIKey string
	Model  string
}

type TMDB struct {
	APIKey string
}

type Recommender struct {
	GenerateTimeout time.Duration
}

type Config struct {
	HTTP        HTTPServer
	Redis       RedisCache
	Gemini      Gemini
	TMDB        TMDB
	Recommender Recommender
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:        *newHTTP(),
		Redis:       *newRedis(),
		Gemini:      *newGemini(),
		TMDB:        *newTMDB(),
		Recommender: *newRecommender(),
	}

	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "3001"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

// Redis is optional: an empty host disables the enrichment cache.
func newRedis() *RedisCache {
	return &RedisCache{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     getenv("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

// An empty Gemini key switches the recommender to the static catalog.
func newGemini() *Gemini {
	return &Gemini{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
	}
}

// An empty TMDB key disables enrichment; recommendations pass through bare.
func newTMDB() *TMDB {
	return &TMDB{
		APIKey: os.Getenv("TMDB_API_KEY"),
	}
}

func newRecommender() *Recommender {
	raw := getenv("GENERATE_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("%s invalid GENERATE_TIMEOUT %q, using 30s", logtag, raw)
		timeout = 30 * time.Second
	}
	return &Recommender{
		GenerateTimeout: timeout,
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}
