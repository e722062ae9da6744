package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/Kenpir/library-recommendation-system/internal/auth"
	"github.com/Kenpir/library-recommendation-system/internal/notify"
	"github.com/Kenpir/library-recommendation-system/internal/repositories"
	"github.com/Kenpir/library-recommendation-system/internal/services"
	"github.com/Kenpir/library-recommendation-system/internal/shared"
	"github.com/Kenpir/library-recommendation-system/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Service
	metadata   services.Service
	api        *services.APIService
	sessions   *auth.Manager
	notifier   notify.Notifier
	confirmer  notify.Confirmer
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.ShelfEngine
	db         *sql.DB
	cache      *repositories.ShelfCacheAdapter
	books      *repositories.BookCacheAdapter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Service
	Metadata   services.Service
	API        *services.APIService
	Sessions   *auth.Manager
	Notifier   notify.Notifier
	Confirmer  notify.Confirmer
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	Cache      *repositories.ShelfCacheAdapter
	Books      *repositories.BookCacheAdapter
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
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
	if opts.Notifier == nil || opts.Confirmer == nil {
		terminal := notify.NewTerminal(opts.Output, os.Stdin)
		if opts.Notifier == nil {
			opts.Notifier = terminal
		}
		if opts.Confirmer == nil {
			opts.Confirmer = terminal
		}
	}

	// Typed nils must not become non-nil interfaces inside the engine.
	var cache tasks.ShelfCache
	if opts.Cache != nil {
		cache = opts.Cache
	}
	var books tasks.BookCacher
	if opts.Books != nil {
		books = opts.Books
	}
	var apiClient tasks.APIClient
	if opts.API != nil {
		apiClient = opts.API
	}

	engine := tasks.NewShelfEngine(opts.Catalog, opts.Metadata, cache, books, apiClient)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		metadata:   opts.Metadata,
		api:        opts.API,
		sessions:   opts.Sessions,
		notifier:   opts.Notifier,
		confirmer:  opts.Confirmer,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     engine,
		db:         opts.DB,
		cache:      opts.Cache,
		books:      opts.Books,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, shelvesCommand, booksCommand, coverCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, for commands that redirect logging
// away from the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// bookRepo returns the local cache's book repository, or an error pointing at
// setup when no database is attached.
func (r *Runner) bookRepo() (*repositories.BookRepository, error) {
	if r.db == nil {
		return nil, fmt.Errorf("%w: local cache not initialized; run 'shelfctl setup database'", shared.ErrServiceUnavailable)
	}
	return repositories.NewBookRepository(r.db), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
