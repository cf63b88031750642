package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/repositories"
	"github.com/desertthunder/ytcat/internal/services"
	"github.com/desertthunder/ytcat/internal/shared"
	"github.com/desertthunder/ytcat/internal/tasks"
	"github.com/desertthunder/ytcat/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	configPath   string
	configLoaded bool
	logger       *log.Logger
	output       io.Writer
	httpClient   *http.Client
	openBrowser  shared.BrowserOpener
	getenv       func(string) string

	db     *sqlx.DB
	ownsDB bool
	source   services.SubscriptionSource
	channels services.ChannelSource
	auth     services.Authenticator
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A non-nil Config is used as is; otherwise the root command loads one from --config.
// DB, Source, Channels and Auth replace the collaborators the runner would otherwise build from the config.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Logger      *log.Logger
	Output      io.Writer
	HTTPClient  *http.Client
	OpenBrowser shared.BrowserOpener
	Getenv      func(string) string
	DB          *sqlx.DB
	Source      services.SubscriptionSource
	Channels    services.ChannelSource
	Auth        services.Authenticator
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	return &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		configLoaded: loaded,
		logger:       opts.Logger,
		output:       opts.Output,
		httpClient:   opts.HTTPClient,
		openBrowser:  opts.OpenBrowser,
		getenv:       opts.Getenv,
		db:           opts.DB,
		source:       opts.Source,
		channels:     opts.Channels,
		auth:         opts.Auth,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, categoriesCommand, subscriptionsCommand, channelsCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the environment and configuration ahead of any subcommand.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.LoadEnvFile(cmd.String("env-file")); err != nil {
		return ctx, err
	}

	if !r.configLoaded {
		if r.configPath == "" {
			r.configPath = cmd.String("config")
		}

		config, err := shared.LoadConfig(r.configPath)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			config = shared.DefaultConfig()
		case err != nil:
			return ctx, err
		}

		if err := config.ApplyEnv(r.getenv); err != nil {
			return ctx, err
		}
		r.config = config
		r.configLoaded = true
	}

	level := r.config.LogLevel
	if cmd.IsSet("log-level") || level == "" {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// After releases the database if the runner opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil && r.ownsDB {
		err := r.db.Close()
		r.db = nil
		r.ownsDB = false
		return err
	}
	return nil
}

// database opens the configured database on first use and brings its schema up to date.
func (r *Runner) database() (*sqlx.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.ownsDB = true
	return db, nil
}

// stores bundles the repositories and services built over one database handle.
type stores struct {
	users         *repositories.UserRepository
	categories    *repositories.CategoryRepository
	subscriptions *repositories.SubscriptionRepository
	categorizer   *tasks.Categorizer
	query         *tasks.QueryService
}

func (r *Runner) stores() (*stores, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	categories := repositories.NewCategoryRepository(db)
	subscriptions := repositories.NewSubscriptionRepository(db)
	return &stores{
		users:         repositories.NewUserRepository(db),
		categories:    categories,
		subscriptions: subscriptions,
		categorizer:   tasks.NewCategorizer(categories, subscriptions, shared.WithLogger(r.logger, "component", "categorizer")),
		query:         tasks.NewQueryService(categories, subscriptions),
	}, nil
}

// subscriptionSource returns the injected source or a fetcher built from the [youtube] config.
func (r *Runner) subscriptionSource() services.SubscriptionSource {
	if r.source != nil {
		return r.source
	}
	return services.NewSubscriptionFetcherFromConfig(r.config.YouTube, shared.WithLogger(r.logger, "component", "fetcher"))
}

// channelSource returns the injected channel source or a fetcher built from the [youtube] config.
func (r *Runner) channelSource() services.ChannelSource {
	if r.channels != nil {
		return r.channels
	}
	return services.NewSubscriptionFetcherFromConfig(r.config.YouTube, shared.WithLogger(r.logger, "component", "fetcher"))
}

// authenticator returns the injected authenticator or a Google one built from the credentials config.
func (r *Runner) authenticator() (services.Authenticator, error) {
	if r.auth != nil {
		return r.auth, nil
	}
	if !r.config.HasGoogleCredentials() {
		return nil, fmt.Errorf("%w: set credentials.google in %s or YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET", shared.ErrMissingCredentials, r.configPath)
	}
	auth, err := services.NewGoogleAuth(r.config.Credentials.Google, services.WithGoogleHTTPClient(r.httpClient))
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// currentUser resolves --user to a stored user. Without the flag the only stored user is used.
func (r *Runner) currentUser(ctx context.Context, cmd *cli.Command, users *repositories.UserRepository) (*models.User, error) {
	if externalID := cmd.String("user"); externalID != "" {
		user, err := users.GetByExternalID(ctx, externalID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: no user %q, run 'ytcat auth login' first", shared.ErrNotAuthenticated, externalID)
		}
		return user, err
	}

	all, err := users.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(all) {
	case 0:
		return nil, fmt.Errorf("%w: run 'ytcat auth login' first", shared.ErrNotAuthenticated)
	case 1:
		return &all[0], nil
	default:
		return nil, fmt.Errorf("%w: %d users are signed in, pick one with --user", shared.ErrMissingArgument, len(all))
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) error {
	return r.writePlain("%s\n\n", ui.Styles.Title(title))
}
