// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles session management against the hosted catalog.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Bookhive session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in to Bookhive using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "logout",
				Usage: "Sign out and forget the stored session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session and catalog reachability",
				Action: r.AuthStatus,
			},
		},
	}
}

// shelvesCommand handles hosted shelf operations and cache syncing.
func shelvesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "shelves",
		Aliases: []string{"shelf"},
		Usage:   "Bookhive shelf operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List shelves on Bookhive",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of shelves to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ShelvesList,
			},
			{
				Name:  "show",
				Usage: "Show a shelf with all its books",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "shelf"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the shelf export to a file",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ShelvesShow,
			},
			{
				Name:  "create",
				Usage: "Create an empty shelf on Bookhive",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "Shelf description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the shelf publicly visible",
					},
				},
				Action: r.ShelvesCreate,
			},
			{
				Name:  "delete",
				Usage: "Delete a shelf from Bookhive",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "shelf"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.ShelvesDelete,
			},
			{
				Name:  "pull",
				Usage: "Pull a hosted shelf into the local cache",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "shelf"},
				},
				Action: r.ShelvesPull,
			},
			{
				Name:  "push",
				Usage: "Push a cached shelf to Bookhive",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "shelf"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.ShelvesPush,
			},
			{
				Name:  "diff",
				Usage: "Compare a hosted shelf against a cached shelf",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "remote",
						Usage:    "Hosted shelf ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "local",
						Usage:    "Cached shelf ID or name",
						Required: true,
					},
				},
				Action: r.ShelvesDiff,
			},
			{
				Name:  "enrich",
				Usage: "Fill missing book metadata from OpenLibrary",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "shelf"},
				},
				Action: r.ShelvesEnrich,
			},
			{
				Name:  "export",
				Usage: "Export hosted shelves to disk concurrently",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: json, csv, markdown, txt",
						Value: "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Catalog requests per second",
						Value: 5,
					},
				},
				Action: r.ShelvesExport,
			},
		},
	}
}

// booksCommand handles the locally cached library.
func booksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "books",
		Usage: "Locally cached book operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached books",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "author",
						Usage: "Filter by exact author",
					},
					&cli.StringFlag{
						Name:  "service",
						Usage: "Filter by originating service",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.BooksList,
			},
			{
				Name:  "show",
				Usage: "Show a cached book",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "book"},
				},
				Action: r.BooksShow,
			},
			{
				Name:  "add",
				Usage: "Add a book to the local cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Book title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "author",
						Usage: "Book author",
					},
					&cli.StringFlag{
						Name:  "isbn",
						Usage: "ISBN-10 or ISBN-13",
					},
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Page count",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Book description",
					},
				},
				Action: r.BooksAdd,
			},
			{
				Name:  "update",
				Usage: "Update a cached book's metadata",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "book"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "author", Usage: "New author"},
					&cli.StringFlag{Name: "isbn", Usage: "New ISBN"},
					&cli.IntFlag{Name: "pages", Usage: "New page count"},
					&cli.StringFlag{Name: "description", Usage: "New description"},
				},
				Action: r.BooksUpdate,
			},
			{
				Name:  "remove",
				Usage: "Remove a book from the local cache",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "book"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.BooksRemove,
			},
			{
				Name:  "search",
				Usage: "Search OpenLibrary for a book",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "title"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "author",
						Usage: "Author to narrow the search",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BooksSearch,
			},
		},
	}
}

// coverCommand drives the cover ingestion pipeline from the CLI.
func coverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cover",
		Usage: "Manage cached book covers",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Ingest an image file as a book's cover",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "book"},
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "push",
						Usage: "Also upload the cover to Bookhive",
					},
				},
				Action: r.CoverSet,
			},
			{
				Name:  "clear",
				Usage: "Remove a book's cover",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "book"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "push",
						Usage: "Also clear the cover on Bookhive",
					},
				},
				Action: r.CoverClear,
			},
			{
				Name:  "watch",
				Usage: "Watch a drop directory and ingest covers as they arrive",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "book"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory to watch (defaults to ingest.drop_dir)",
					},
				},
				Action: r.CoverWatch,
			},
		},
	}
}

// apiCommand handles raw catalog API calls for debugging.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the Bookhive catalog",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the catalog, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "curl",
				Usage: "Replay a request captured from browser devtools",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
				},
				Action: r.APICurl,
			},
			{
				Name:  "snapshot",
				Usage: "Fetch account-wide state (health, profile, shelves, books)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save snapshot to snapshot.json",
					},
				},
				Action: r.APISnapshot,
			},
		},
	}
}

// setupCommand handles setup operations for the local cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the local cache and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive shelf management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for shelf management",
		Action:  r.TUI,
	}
}
