// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/snx/internal/services"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print JSON output",
		Value: true,
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles credential checks
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Inspect the session token",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Report which credential source supplies the session token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Also call the API with the token",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// profilesCommand handles follow, unfollow and block operations
func profilesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "profiles",
		Aliases: []string{"p"},
		Usage:   "Followers, following and block operations",
		Commands: []*cli.Command{
			{
				Name:   "followers",
				Usage:  "List the handles that follow you",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfilesList(services.Followers),
			},
			{
				Name:   "following",
				Usage:  "List the handles you follow",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfilesList(services.Following),
			},
			{
				Name:  "unfollow",
				Usage: "Unfollow everyone who does not follow you back (dry run unless --live)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "live",
						Usage: "Actually unfollow",
					},
					&cli.BoolFlag{
						Name:  "allow-partial",
						Usage: "Unfollow even when some followers pages failed",
					},
					yesFlag(),
					jsonFlag(),
				},
				Action: r.ProfilesUnfollow,
			},
			{
				Name:  "follow",
				Usage: "Follow the followers of another handle, up to a cap",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Usage:    "Handle whose followers are followed",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "cap",
						Usage: "Follow calls to issue (default from config)",
					},
					&cli.IntFlag{
						Name:  "start-page",
						Usage: "First followers page to visit",
						Value: 1,
					},
					yesFlag(),
				},
				Action: r.ProfilesFollow,
			},
			{
				Name:  "block",
				Usage: "Block one or more handles",
				Arguments: []cli.Argument{
					&cli.StringArgs{
						Name: "handles",
						Min:  1,
						Max:  -1,
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "unblock",
						Usage: "Unblock instead",
					},
					yesFlag(),
				},
				Action: r.ProfilesBlock,
			},
			{
				Name:  "hooks",
				Usage: "Show a user's hooks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "handle"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "start",
						Usage: "Offset of the first hook",
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Hooks to return",
						Value: 20,
					},
					prettyFlag(),
				},
				Action: r.ProfilesHooks,
			},
		},
	}
}

// notificationsCommand handles notification feed tools
func notificationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "Notification feed tools",
		Commands: []*cli.Command{
			{
				Name:   "handles",
				Usage:  "List the handles in your notification feed",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.NotificationHandles,
			},
			{
				Name:  "scores",
				Usage: "Score every handle in your notification feed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Also write the scores to a CSV file",
					},
					jsonFlag(),
				},
				Action: r.NotificationScores,
			},
		},
	}
}

// usersCommand handles creator lookups
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Creator stats and trending users",
		Commands: []*cli.Command{
			{
				Name:  "score",
				Usage: "Show creator stats for handles",
				Arguments: []cli.Argument{
					&cli.StringArgs{
						Name: "handles",
						Min:  1,
						Max:  -1,
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Also write the scores to a CSV file",
					},
					jsonFlag(),
				},
				Action: r.UsersScore,
			},
			{
				Name:  "trending",
				Usage: "List trending users",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "size",
						Usage: "Users to request",
						Value: 400,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Rows to print (0 prints all)",
					},
					jsonFlag(),
				},
				Action: r.UsersTrending,
			},
		},
	}
}

// songsCommand handles per-song tools
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Comments, lyrics and lineage of a song",
		Commands: []*cli.Command{
			{
				Name:  "comments",
				Usage: "List the handles that commented on a song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SongsComments,
			},
			{
				Name:  "lyrics",
				Usage: "Export a song's aligned lyrics as SRT",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default <id>.srt)",
					},
				},
				Action: r.SongsLyrics,
			},
			{
				Name:  "parent",
				Usage: "Show the clip a song was derived from",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the parent song in the browser",
					},
					prettyFlag(),
				},
				Action: r.SongsParent,
			},
		},
	}
}

// hideCreatorCommand hides a creator's content from your feeds
func hideCreatorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "hide-creator",
		Usage: "Hide a creator's songs or hooks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "handle"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "Content type to hide (CLIP or HOOK)",
				Value: services.ContentClip,
			},
			prettyFlag(),
		},
		Action: r.HideCreator,
	}
}

// workspaceCommand handles workspace operations
func workspaceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "workspace",
		Aliases: []string{"ws"},
		Usage:   "Workspace operations",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Move every song out of the other workspaces into the target",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "target",
						Usage: "Workspace that keeps its songs",
						Value: "default",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "List the songs without moving them",
					},
					yesFlag(),
					jsonFlag(),
				},
				Action: r.WorkspaceMigrate,
			},
		},
	}
}

// indexCommand handles the liked songs search index
func indexCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "index",
		Aliases: []string{"idx"},
		Usage:   "Search your liked songs",
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Rebuild the index from your liked songs",
				Action: r.IndexBuild,
			},
			{
				Name:  "search",
				Usage: "Find liked songs by title",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the first match in the browser",
					},
					jsonFlag(),
				},
				Action: r.IndexSearch,
			},
			{
				Name:   "show",
				Usage:  "Describe the stored index",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.IndexShow,
			},
			{
				Name:  "clear",
				Usage: "Delete the stored index",
				Flags: []cli.Flag{yesFlag()},
				Action: r.IndexClear,
			},
			{
				Name:    "tui",
				Aliases: []string{"ui"},
				Usage:   "Interactive search",
				Action:  r.TUI,
			},
		},
	}
}

// historyCommand lists recorded sweeps
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded sweeps",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "task",
				Usage: "Only sweeps of this task",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Sweeps to show",
				Value: 20,
			},
			jsonFlag(),
		},
		Action: r.History,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the Suno API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
