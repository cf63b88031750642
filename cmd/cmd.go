// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/services"
)

func outputFlags(prettyDefault bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: prettyDefault,
		},
	}
}

// rootFlags are inherited by every subcommand.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Dotenv file loaded before the configuration",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "info",
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "External id of the signed-in user to act as",
		},
	}
}

// setupCommand initializes the configuration file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing and run database migrations",
		Action: r.Setup,
	}
}

// authCommand handles sign-in and user selection
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Google in the browser and store the account",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 5 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the sign-in URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "whoami",
				Usage:  "Show the user commands act as",
				Flags:  outputFlags(false),
				Action: r.AuthWhoami,
			},
			{
				Name:   "users",
				Usage:  "List every stored account",
				Flags:  outputFlags(false),
				Action: r.AuthUsers,
			},
		},
	}
}

// categoriesCommand manages the user's categories
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cat"},
		Usage:   "Manage categories",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a category",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags:  outputFlags(false),
				Action: r.CategoriesCreate,
			},
			{
				Name:   "list",
				Usage:  "List categories in creation order",
				Flags:  outputFlags(false),
				Action: r.CategoriesList,
			},
		},
	}
}

// subscriptionsCommand fetches and files the user's subscriptions
func subscriptionsCommand(r *Runner) *cli.Command {
	categoryFlag := &cli.StringFlag{
		Name:  "category",
		Usage: "Category name or id",
	}

	return &cli.Command{
		Name:    "subscriptions",
		Aliases: []string{"subs"},
		Usage:   "Fetch and categorize YouTube subscriptions",
		Commands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "Fetch every subscription from YouTube and show which are categorized",
				Flags: append(outputFlags(false), &cli.BoolFlag{
					Name:  "uncategorized",
					Usage: "Only show channels without a record",
				}),
				Action: r.SubscriptionsFetch,
			},
			{
				Name:  "categorize",
				Usage: "File a channel under a category (once per channel)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "channel_id"},
				},
				Flags: append(outputFlags(false),
					categoryFlag,
					&cli.StringFlag{
						Name:  "title",
						Usage: "Channel title (defaults to the title from YouTube, then the channel id)",
					},
					&cli.StringFlag{
						Name:  "thumbnail",
						Usage: "Channel thumbnail URL",
					},
					&cli.BoolFlag{
						Name:  "lookup",
						Usage: "Fetch the subscription list to fill in title and thumbnail",
					},
				),
				Action: r.SubscriptionsCategorize,
			},
			{
				Name:  "list",
				Usage: "List categorized subscriptions, grouped by category",
				Flags: append(outputFlags(false), &cli.StringFlag{
					Name:  "category",
					Usage: "Only list one category (name or id)",
				}),
				Action: r.SubscriptionsList,
			},
			{
				Name:  "export",
				Usage: "Export categorized subscriptions to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, text or json",
						Value:   "markdown",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: subscriptions.<ext>)",
					},
				},
				Action: r.SubscriptionsExport,
			},
			{
				Name:  "import",
				Usage: "Categorize channels listed in a CSV (Channel ID, Title, Category, Thumbnail)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "create-categories",
						Usage: "Create categories named in the file that do not exist yet",
						Value: true,
					},
				},
				Action: r.SubscriptionsImport,
			},
		},
	}
}

// channelsCommand looks up channels and their latest uploads
func channelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "channels",
		Aliases: []string{"ch"},
		Usage:   "Look up YouTube channels and recent uploads",
		Commands: []*cli.Command{
			{
				Name:   "mine",
				Usage:  "List the channels owned by the signed-in account",
				Flags:  outputFlags(false),
				Action: r.ChannelsMine,
			},
			{
				Name:  "videos",
				Usage: "List a channel's most recent uploads",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "channel_id"},
				},
				Flags: append(outputFlags(false), &cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"n"},
					Usage:   "How many uploads to show (1-50)",
					Value:   services.DefaultRecentVideos,
				}),
				Action: r.ChannelsVideos,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port and PORT)",
			},
		},
		Action: r.Serve,
	}
}
