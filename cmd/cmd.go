// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store a bearer token locally",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "username",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password",
			},
		},
		Action: r.Login,
	}
}

func signupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account and sign in",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "username",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password",
			},
			&cli.StringFlag{
				Name:  "full-name",
				Usage: "Display name for the account",
			},
		},
		Action: r.Signup,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Drop the stored credential",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "everywhere",
				Usage: "Revoke every session on the server first",
			},
		},
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in profile",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Whoami,
	}
}

// playlistsCommand handles playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "show",
				Usage: "Show a playlist and its songs in order",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:  "create",
				Usage: "Create a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "songs",
						Usage: "Comma-separated song IDs to seed the playlist",
					},
				},
				Action: r.PlaylistsCreate,
			},
			{
				Name:  "add-song",
				Usage: "Append a song to a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
					&cli.StringArg{
						Name: "song",
					},
				},
				Action: r.PlaylistsAddSong,
			},
			{
				Name:  "reorder",
				Usage: "Save a full song order for a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "order",
						Usage:    "Comma-separated song IDs, every song exactly once",
						Required: true,
					},
				},
				Action: r.PlaylistsReorder,
			},
		},
	}
}

// songsCommand handles song library operations
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Song library operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your songs",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SongsList,
			},
			{
				Name:  "show",
				Usage: "Show a song's details",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SongsShow,
			},
			{
				Name:  "upload",
				Usage: "Upload a song from a local audio file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "audio",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Song title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Album name",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist name",
					},
					&cli.IntFlag{
						Name:  "year",
						Usage: "Release year",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Genre",
					},
					&cli.StringFlag{
						Name:  "artwork",
						Usage: "Path to a cover image",
					},
				},
				Action: r.SongsUpload,
			},
			{
				Name:  "artwork",
				Usage: "Download a song's artwork",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.SongsArtwork,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Route to open first",
				Value: "/home",
			},
		},
		Action: r.TUI,
	}
}
