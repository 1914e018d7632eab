// Package cli implements the capri command-line interface: the shell of the
// CapriSystem admin client. Every run restores the persisted session, wires
// the API client and the collection screens, and renders results as text
// tables or JSON.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/granme/caprisystem/internal/apiclient"
	"github.com/granme/caprisystem/internal/notify"
	"github.com/granme/caprisystem/internal/paths"
	"github.com/granme/caprisystem/internal/screen"
	"github.com/granme/caprisystem/internal/session"
	"github.com/granme/caprisystem/internal/storage"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Command annotations.
const (
	annotationAuth  = "auth"  // "required": signed-in user needed
	annotationSetup = "setup" // "none": command runs without wiring
)

var (
	requiresAuth = map[string]string{annotationAuth: "required"}
	skipsSetup   = map[string]string{annotationSetup: "none"}
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
	metrics   bool
}

var flags rootFlags

// env is the wiring of one run, built before the command executes.
type env struct {
	dirs     paths.Dirs
	cfg      settings
	log      *zap.SugaredLogger
	kv       storage.Store
	client   *apiclient.Client
	metrics  *apiclient.Metrics
	users    *apiclient.Users
	session  *session.Store
	screens  *screen.Set
	notified *notify.Recorder
}

var app *env

// NewRootCmd creates the top-level "capri" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "capri",
		Short: "CapriSystem farm administration client",
		Long: "capri manages the herd, staff, sales, suppliers and inventory of a goat\n" +
			"farm through the CapriSystem API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationSetup] == "none" {
				return nil
			}
			if err := setup(cmd); err != nil {
				return err
			}
			if cmd.Annotations[annotationAuth] == "required" && !app.session.IsAuthenticated() {
				return &session.Error{Err: session.ErrNotAuthenticated, Message: session.MsgNotAuthenticated}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+")")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging to stderr")
	root.PersistentFlags().BoolVar(&flags.metrics, "metrics", false, "print API request metrics to stderr when done")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newForgotPasswordCmd())
	root.AddCommand(newWhoamiCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newUpdateCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newFacetsCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newSummaryCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	notified := app != nil && app.notified.Count(notify.LevelError) > 0
	teardown(stderr)
	if err == nil {
		return exitSuccess
	}
	if !notified || isValidation(err) {
		printError(stderr, err)
	}
	return exitCode(err)
}

// setup resolves directories and configuration, opens storage, restores
// the session and wires the API client and screens.
func setup(cmd *cobra.Command) error {
	var cfgLoaded settings
	dirs, err := paths.Resolve(flags.configDir, flags.dataDir, func(dir string) (string, error) {
		v, err := loadConfig(dir)
		if err != nil {
			return "", err
		}
		cfgLoaded = readSettings(v, "")
		return v.GetString(cfgKeyDataDir), nil
	})
	if err != nil {
		return fmt.Errorf("resolve directories: %w", err)
	}
	cfg := cfgLoaded
	cfg.Storage.DataDir = dirs.Data

	logger, err := newLogger(cmd.ErrOrStderr(), flags.verbose, cfg.LogLevel)
	if err != nil {
		return err
	}

	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		_ = logger.Sync()
		return fmt.Errorf("open storage: %w", err)
	}

	recorder := &notify.Recorder{}
	printer := notify.NewWriter(cmd.ErrOrStderr())
	notifier := notify.Func(func(n notify.Notification) {
		recorder.Notify(n)
		printer.Notify(n)
	})

	metrics := apiclient.NewMetrics()
	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Logger:  logger.Named("api"),
		Metrics: metrics,
	})
	users := apiclient.NewUsers(client)
	sess := session.New(kv, users, logger.Named("session"))

	app = &env{
		dirs:     dirs,
		cfg:      cfg,
		log:      logger,
		kv:       kv,
		client:   client,
		metrics:  metrics,
		users:    users,
		session:  sess,
		notified: recorder,
		screens: screen.New(client, screen.Options{
			PageSize:  cfg.PageSize,
			Retries:   cfg.Retries,
			RetryStep: cfg.RetryStep,
			Notifier:  notifier,
			Logger:    logger.Named("screen"),
		}),
	}

	if err := sess.Bootstrap(); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	client.UseSession(sess.Token, func() {
		logger.Infow("token rejected, signing out")
		if err := sess.Clear(); err != nil {
			logger.Warnw("clearing session", "error", err)
		}
	})
	logger.Debugw("ready", "config_dir", dirs.Config, "data_dir", dirs.Data,
		"backend", cfg.Storage.Backend, "api", client.BaseURL(), "signed_in", sess.IsAuthenticated())
	return nil
}

// teardown releases what setup opened.
func teardown(stderr io.Writer) {
	if app == nil {
		return
	}
	defer func() { app = nil }()
	if flags.metrics {
		if err := app.metrics.WriteText(stderr); err != nil {
			app.log.Warnw("writing metrics", "error", err)
		}
	}
	app.screens.Close()
	if err := app.kv.Detach(); err != nil {
		app.log.Warnw("detaching storage", "error", err)
	}
	_ = app.log.Sync()
}

// newLogger builds a console logger at debug when verbose, otherwise a JSON
// logger at level.
func newLogger(w io.Writer, verbose bool, level string) (*zap.SugaredLogger, error) {
	lvl := zapcore.DebugLevel
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	if !verbose {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = parsed
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zap.New(core).Sugar(), nil
}

func isValidation(err error) bool {
	_, ok := screen.IsValidation(err)
	return ok
}
