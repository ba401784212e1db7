package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/chartlab/internal/config"
	"github.com/banshee-data/chartlab/internal/spotify"
)

func (a *app) spotifyCheckCmd() *cobra.Command {
	var track, artist string
	cmd := &cobra.Command{
		Use:   "spotify-check",
		Short: "Verify Spotify API credentials with one search and feature lookup",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := config.LoadSpotifyCredentials()
			if err != nil {
				return err
			}
			client, err := spotify.NewClient(cmd.Context(), creds, spotify.Options{})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "\nSearching for: %s by %s\n", track, artist)
			t, err := client.SearchTrack(cmd.Context(), track, artist)
			if errors.Is(err, spotify.ErrNotFound) {
				return fmt.Errorf("track not found, try again: %w", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Found track: %s by %s\n", t.Name, t.PrimaryArtist())
			fmt.Fprintf(a.out, "Spotify ID: %s\n", t.ID)

			feats, err := client.AudioFeatures(cmd.Context(), []string{t.ID})
			if err != nil {
				return err
			}
			if len(feats) == 0 || feats[0] == nil {
				return fmt.Errorf("no audio features for %s", t.ID)
			}
			f := feats[0]
			fmt.Fprintln(a.out, "\nAudio features retrieved successfully!")
			fmt.Fprintf(a.out, "   Danceability: %g\n", f.Danceability)
			fmt.Fprintf(a.out, "   Energy: %g\n", f.Energy)
			fmt.Fprintf(a.out, "   Valence: %g\n", f.Valence)
			fmt.Fprintln(a.out, done("Spotify API works."))
			return nil
		},
	}
	cmd.Flags().StringVar(&track, "track", "Beg", "Track title to search for")
	cmd.Flags().StringVar(&artist, "artist", "Saliva", "Artist of the track")
	return cmd
}
