package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/titilda/museterm/internal/models"
	"github.com/titilda/museterm/internal/repositories"
	"github.com/titilda/museterm/internal/shared"
	"github.com/urfave/cli/v3"
)

// SongsList prints the signed-in user's song library.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	songs, err := sess.Music().Songs(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	for _, song := range songs {
		r.writePlain("%s  %s — %s (%s)\n", song.ID, song.Title, song.Artist, song.Album)
	}
	return nil
}

// SongsShow prints one song's details.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	id, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	song, err := sess.Music().Song(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}

	r.writePlain("Title:  %s\n", song.Title)
	r.writePlain("Artist: %s\n", song.Artist)
	r.writePlain("Album:  %s (%d)\n", song.Album, song.ReleaseYear)
	r.writePlain("Genre:  %s\n", song.Genre)
	return nil
}

// SongsUpload creates a song from a local audio file, with optional artwork.
func (r *Runner) SongsUpload(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	audioPath := cmd.StringArg("audio")
	if audioPath == "" {
		return fmt.Errorf("%w: audio file path", shared.ErrMissingArgument)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("audio file: %w", err)
	}

	upload := models.SongUpload{
		Title:       cmd.String("title"),
		Album:       cmd.String("album"),
		Artist:      cmd.String("artist"),
		ReleaseYear: cmd.Int("year"),
		Genre:       cmd.String("genre"),
		AudioPath:   audioPath,
		ArtworkPath: cmd.String("artwork"),
	}
	if upload.Title == "" {
		upload.Title = filepath.Base(audioPath)
	}

	r.logger.Info("uploading song", "title", upload.Title, "audio", audioPath)
	song, err := sess.Music().CreateSong(ctx, upload)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Uploaded %s (%s)\n", song.Title, song.ID)
}

// SongsArtwork downloads a song's artwork to a file, going through the
// local blob cache.
func (r *Runner) SongsArtwork(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	id, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	store := repositories.NewArtworkStore(r.db)
	data, ok, err := store.Get(id)
	if err != nil {
		r.logger.Warn("artwork cache read failed", "error", err)
	}
	if !ok {
		data, err = sess.Music().Artwork(ctx, id)
		if err != nil {
			return err
		}
		if err := store.Put(id, data); err != nil {
			r.logger.Warn("artwork cache write failed", "error", err)
		}
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		outputPath = id + ".webp"
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write artwork: %w", err)
	}
	return r.writePlain("✓ Artwork saved to %s\n", outputPath)
}
