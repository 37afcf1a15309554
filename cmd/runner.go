package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/snx/internal/auth"
	"github.com/desertthunder/snx/internal/fetch"
	"github.com/desertthunder/snx/internal/index"
	"github.com/desertthunder/snx/internal/repositories"
	"github.com/desertthunder/snx/internal/services"
	"github.com/desertthunder/snx/internal/shared"
	"github.com/desertthunder/snx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(title string) (bool, error)

// SpinFunc runs action while showing title.
type SpinFunc func(ctx context.Context, title string, action func(context.Context) error) error

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	token      string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	doer    fetch.Doer
	suno    *services.SunoService
	api     *services.APIService
	engine  *tasks.Engine
	confirm ConfirmFunc
	spin    SpinFunc
	open    func(url string) error

	dbOnce    sync.Once
	dbErr     error
	db        *sql.DB
	sweeps    *repositories.SweepRepository
	snapshots *repositories.SnapshotRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Token      string // explicit session token, tried before the configured sources
	HTTPClient *http.Client
	Doer       fetch.Doer // replaces the executor built from Config
	DB         *sql.DB    // replaces the database opened from Config
	Logger     *log.Logger
	Output     io.Writer
	Confirm    ConfirmFunc
	Spin       SpinFunc
	Open       func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{}
	r.apply(opts)
	return r
}

func (r *Runner) apply(opts RunnerOpts) {
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
	if opts.Confirm == nil {
		opts.Confirm = confirmPrompt
	}
	if opts.Spin == nil {
		opts.Spin = runPlain
		if opts.Output == os.Stdout {
			opts.Spin = runSpinner
		}
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	cfg := opts.Config
	doer, migration := opts.Doer, opts.Doer
	if doer == nil {
		executor := fetch.New(fetch.Options{
			BaseURL:    cfg.API.BaseURL,
			Tokens:     auth.FromConfig(cfg.Credentials, opts.Token),
			Policy:     fetch.PolicyFromConfig(cfg.Retry),
			Logger:     opts.Logger,
			HTTPClient: opts.HTTPClient,
			Timeout:    cfg.API.Timeout(),
		})
		doer = executor
		migration = executor.WithPolicy(fetch.MigrationPolicyFromConfig(cfg.Retry))
	}

	r.config = cfg
	r.configPath = opts.ConfigPath
	r.token = opts.Token
	r.httpClient = opts.HTTPClient
	r.logger = opts.Logger
	r.output = opts.Output
	r.confirm = opts.Confirm
	r.spin = opts.Spin
	r.open = opts.Open
	r.doer = doer
	r.suno = services.NewSunoService(doer, migration, cfg.Paging, opts.Logger)
	r.api = services.NewAPIService(doer)
	r.engine = tasks.NewEngine(r.suno, tasks.OptionsFromConfig(cfg.Paging), opts.Logger)

	r.dbOnce = sync.Once{}
	r.db, r.dbErr, r.sweeps, r.snapshots = nil, nil, nil, nil
	if opts.DB != nil {
		r.dbOnce.Do(func() { r.attach(opts.DB) })
	}
}

// Configure loads the configuration named by the root flags and rebuilds the runner's dependencies.
// A missing config file falls back to the defaults.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return ctx, err
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	level := config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	shared.SetLogLevel(r.logger, ll)

	r.apply(RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Token:      cmd.String("token"),
		HTTPClient: r.httpClient,
		Doer:       r.customDoer(),
		Logger:     r.logger,
		Output:     r.output,
		Confirm:    r.confirm,
		Spin:       r.spin,
		Open:       r.open,
	})
	return ctx, nil
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SetLogger replaces the logger used by the runner and every service it built.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.apply(RunnerOpts{
		Config:     r.config,
		ConfigPath: r.configPath,
		Token:      r.token,
		HTTPClient: r.httpClient,
		Doer:       r.customDoer(),
		DB:         r.db,
		Logger:     logger,
		Output:     r.output,
		Confirm:    r.confirm,
		Spin:       r.spin,
		Open:       r.open,
	})
}

func (r *Runner) customDoer() fetch.Doer {
	if _, ok := r.doer.(*fetch.Executor); ok {
		return nil
	}
	return r.doer
}

// database opens and migrates the configured database on first use.
func (r *Runner) database() (*sql.DB, error) {
	r.dbOnce.Do(func() {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			r.dbErr = fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
			return
		}
		r.attach(db)
	})
	return r.db, r.dbErr
}

func (r *Runner) attach(db *sql.DB) {
	r.db = db
	r.sweeps = repositories.NewSweepRepository(db)
	r.snapshots = repositories.NewSnapshotRepository(db)
	r.engine.WithRecorder(tasks.NewRepositoryRecorder(r.sweeps))
}

// recordSweeps opens the database so the engine records sweeps. Without it, sweeps run unrecorded.
func (r *Runner) recordSweeps() {
	if _, err := r.database(); err != nil {
		r.logger.Warn("sweep history disabled", "error", err)
	}
}

// searchIndex builds the index over the configured store.
func (r *Runner) searchIndex() (*index.Index, error) {
	var store index.Store
	switch r.config.Index.Store {
	case "file":
		store = index.NewFileStore(r.config.Index.FilePath)
	default:
		if _, err := r.database(); err != nil {
			return nil, err
		}
		store = index.NewSQLiteStore(r.snapshots, r.config.Index.Key)
	}
	return index.New(store, r.suno, shared.WithLogger(r.logger, "component", "index")), nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, profilesCommand, notificationsCommand, usersCommand, songsCommand,
		hideCreatorCommand, workspaceCommand, indexCommand, historyCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ask confirms a mutating action unless skip is set.
func (r *Runner) ask(title string, skip bool) error {
	if skip {
		return nil
	}
	ok, err := r.confirm(title)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return shared.ErrAborted
	}
	return nil
}

// streamProgress prints task updates until the returned stop function is called.
func (r *Runner) streamProgress() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()
	return progress, func() {
		close(progress)
		<-done
	}
}

func confirmPrompt(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

func runSpinner(ctx context.Context, title string, action func(context.Context) error) error {
	return spinner.New().Title(title).Context(ctx).ActionWithErr(action).Run()
}

func runPlain(ctx context.Context, _ string, action func(context.Context) error) error {
	return action(ctx)
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

// writeRaw re-encodes a raw API payload.
func (r *Runner) writeRaw(data json.RawMessage, pretty bool) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: response is not JSON: %v", shared.ErrAPIRequest, err)
	}
	return r.writeJSON(v, pretty)
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
