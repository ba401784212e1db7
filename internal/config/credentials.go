package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingCredentials is returned when the Spotify client id or secret is unset.
var ErrMissingCredentials = errors.New("spotify client ID or secret not found in environment variables")

// SpotifyCredentials are read from SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET.
type SpotifyCredentials struct {
	ClientID     string `envconfig:"CLIENT_ID"`
	ClientSecret string `envconfig:"CLIENT_SECRET"`
	TokenURL     string `envconfig:"TOKEN_URL" default:"https://accounts.spotify.com/api/token"`
	APIBaseURL   string `envconfig:"API_BASE_URL" default:"https://api.spotify.com/v1"`
}

// LoadSpotifyCredentials loads any .env files that exist (default ".env"),
// then reads the SPOTIFY_* variables. Variables already present in the
// environment win over .env values.
func LoadSpotifyCredentials(envFiles ...string) (SpotifyCredentials, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return SpotifyCredentials{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var creds SpotifyCredentials
	if err := envconfig.Process("SPOTIFY", &creds); err != nil {
		return SpotifyCredentials{}, fmt.Errorf("failed to read spotify env: %w", err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return creds, ErrMissingCredentials
	}
	return creds, nil
}
