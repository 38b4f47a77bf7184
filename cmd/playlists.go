package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/titilda/museterm/internal/models"
	"github.com/titilda/museterm/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints the signed-in user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	playlists, err := sess.Music().Playlists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists yet. Create one with 'museterm playlists create'.\n")
	}

	for _, pl := range playlists {
		marker := ""
		if pl.ManuallySorted {
			marker = " (custom order)"
		}
		r.writePlain("%s  %s%s\n", pl.ID, pl.Name, marker)
	}
	return nil
}

// PlaylistsShow prints one playlist's metadata and its songs in order.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	id, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	music := sess.Music()
	playlist, err := music.Playlist(ctx, id)
	if err != nil {
		return err
	}
	songs, err := music.PlaylistSongs(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"playlist": playlist, "songs": songs}, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", playlist.Name)
	r.writePlain("Created: %s\n", playlist.CreatedAt.Format("2006-01-02"))
	for i, song := range songs {
		r.writePlain("%2d. %s — %s\n", i+1, song.Title, song.Artist)
	}
	return nil
}

// PlaylistsCreate creates a playlist, optionally seeded with song IDs.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	create := models.PlaylistCreate{Name: name}
	if raw := cmd.String("songs"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			id, err := shared.ValidateID(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			create.Songs = append(create.Songs, id)
		}
	}

	songs, err := sess.Music().CreatePlaylist(ctx, create)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Created %q with %d songs\n", name, len(songs))
}

// PlaylistsAddSong appends a song to a playlist.
func (r *Runner) PlaylistsAddSong(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	playlistID, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	songID, err := shared.ValidateID(cmd.StringArg("song"))
	if err != nil {
		return err
	}

	if err := sess.Music().AddSongToPlaylist(ctx, playlistID, songID); err != nil {
		return err
	}
	return r.writePlain("✓ Song added\n")
}

// PlaylistsReorder saves a full song order for a playlist. The order must
// name every song exactly once; the server rejects anything else.
func (r *Runner) PlaylistsReorder(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.requireAuth()
	if err != nil {
		return err
	}

	playlistID, err := shared.ValidateID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	raw := cmd.String("order")
	if raw == "" {
		return fmt.Errorf("%w: --order", shared.ErrMissingArgument)
	}

	var order []string
	for _, s := range strings.Split(raw, ",") {
		id, err := shared.ValidateID(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		order = append(order, id)
	}

	if err := sess.Music().SaveSongOrder(ctx, playlistID, order); err != nil {
		return err
	}
	return r.writePlain("✓ Order saved\n")
}
