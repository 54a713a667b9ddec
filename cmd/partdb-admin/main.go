// ABOUTME: Admin CLI for the Part-DB tree store and permission engine
// ABOUTME: Opens the configured database and runs tree, permission and audit commands as one subject

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/partdb/partdb-core/internal/auth"
	"github.com/partdb/partdb-core/internal/config"
	"github.com/partdb/partdb-core/internal/metrics"
	"github.com/partdb/partdb-core/internal/perm"
	"github.com/partdb/partdb-core/internal/store"
	"github.com/partdb/partdb-core/internal/tree"
	"github.com/partdb/partdb-core/internal/treecache"
)

const banner = `
                  _          _ _                 _           _
 _ __   __ _ _ __| |_ __| | |__       __ _  __| |_ __ ___ (_)_ __
| '_ \ / _' | '__| __/ _' | '_ \ ___ / _' |/ _' | '_ ' _ \| | '_ \
| |_) | (_| | |  | || (_| | |_) |___| (_| | (_| | | | | | | | | | |
| .__/ \__,_|_|   \__\__,_|_.__/     \__,_|\__,_|_| |_| |_|_|_| |_|
|_|
`

// app holds everything a command needs for one invocation.
type app struct {
	cfg     *config.Config
	store   *store.SQLStore
	engine  *perm.Engine
	svc     *tree.Service
	users   *auth.Manager
	view    *treecache.View
	subject *auth.Subject
	metrics *metrics.Recorder
	logger  *slog.Logger
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "help", "-h", "--help":
		printUsage()
		return
	case "tree", "perm", "token", "audit":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cmd, args); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ctx = auth.WithSubject(ctx, a.subject)

	switch cmd {
	case "tree":
		err = cmdTree(ctx, a, args)
	case "perm":
		err = cmdPerm(ctx, a, args)
	case "token":
		err = cmdToken(a, args)
	case "audit":
		err = cmdAudit(ctx, a, args)
	}

	if a.cfg.Metrics.Enabled {
		if werr := a.metrics.WriteText(os.Stderr); werr != nil {
			a.logger.Warn("writing metrics", "error", werr)
		}
	}
	return err
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: partdb-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  tree tables                         List the hierarchical tables")
	fmt.Println("  tree ls <table> [id] [-r]           List children of a node (root if omitted)")
	fmt.Println("  tree show <table> <id>              Show a node with its path and children")
	fmt.Println("  tree view <table> [id]              Print the tree-view JSON of a subtree")
	fmt.Println("  tree add <table> --name <n>         Create a node (--parent, --comment, --set k=v)")
	fmt.Println("  tree mv <table> <id> <parent>       Move a node under a new parent (0 = root)")
	fmt.Println("  tree rename <table> <id> <name>     Rename a node")
	fmt.Println("  tree edit <table> <id>              Change comment or attributes (--comment, --set k=v)")
	fmt.Println("  tree rm <table> <id> [-r]           Delete a node; -r deletes its subtree")
	fmt.Println("  tree check <table>                  Verify every parent chain reaches the root")
	fmt.Println("  perm show <user|group> <id>         Show every permission of a subject")
	fmt.Println("  perm init <user|group> <id>         Create a subject with all-inherit permissions")
	fmt.Println("  perm set <user|group> <id> <category.op> <allow|deny|inherit>")
	fmt.Println("  perm rm <user|group> <id>           Delete a subject's permissions")
	fmt.Println("  token create <user> [--group <g>]   Generate a subject token")
	fmt.Println("  audit [--actor a] [--action x] [--limit n]")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  PARTDB_CONFIG            Config file (default: ~/.config/partdb/admin.yaml)")
	fmt.Println("  PARTDB_TOKEN             Act as the subject named by this token instead of the superuser")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  partdb-admin tree add categories --name Resistors")
	fmt.Println("  partdb-admin tree add categories --name SMD --parent 1 --set disable_footprints=true")
	fmt.Println("  partdb-admin tree ls categories -r")
	fmt.Println("  partdb-admin perm set group lab storelocations.edit allow")
	fmt.Println()
}

// getConfigPath returns the path to the admin config file.
// Priority: PARTDB_CONFIG > XDG_CONFIG_HOME/partdb > ~/.config/partdb
func getConfigPath() string {
	if envPath := os.Getenv("PARTDB_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "admin.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "partdb", "admin.yaml")
}

// getDataPath returns the default database path.
// Priority: XDG_DATA_HOME/partdb > ~/.local/share/partdb
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "partdb.db" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "partdb", "partdb.db")
}

func loadConfig() (*config.Config, error) {
	path := getConfigPath()
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && os.Getenv("PARTDB_CONFIG") == "" {
		cfg = config.Default()
		cfg.Database.DSN = getDataPath()
		return cfg, nil
	}
	return cfg, err
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &app{cfg: cfg, store: st, logger: logger.With("component", "cli")}

	a.engine = perm.NewEngine(nil)
	a.svc = tree.NewService(st, a.engine)
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(cfg.Metrics.Namespace)
		a.engine.WithObserver(a.metrics)
		a.svc.WithObserver(a.metrics)
	}
	a.users = auth.NewManager(st, a.engine)

	if a.subject, err = a.actingSubject(ctx); err != nil {
		a.close()
		return nil, err
	}

	if a.view, err = treecache.New(a.svc, a.subject, cfg.Tree.MaxCacheEntries); err != nil {
		a.close()
		return nil, err
	}

	a.logger.Debug("ready", "driver", cfg.Database.Driver, "subject", a.subject.ID)
	return a, nil
}

// actingSubject resolves PARTDB_TOKEN against the stored permissions, or
// returns the configured superuser when no token is set.
func (a *app) actingSubject(ctx context.Context) (*auth.Subject, error) {
	token := os.Getenv("PARTDB_TOKEN")
	if token == "" {
		return auth.Superuser(a.engine, a.cfg.Auth.Superuser)
	}
	if a.cfg.Auth.TokenSecret == "" {
		return nil, fmt.Errorf("PARTDB_TOKEN is set but auth.token_secret is not configured")
	}

	id, err := auth.NewJWTVerifier([]byte(a.cfg.Auth.TokenSecret)).Verify(token)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	return a.users.Resolve(ctx, id.UserID, id.Groups...)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing database", "error", err)
	}
}

// exitCode maps error classes to distinct exit statuses.
func exitCode(err error) int {
	switch {
	case errors.Is(err, perm.ErrPermission):
		return 3
	case errors.Is(err, tree.ErrNotFound), errors.Is(err, auth.ErrUnknownSubject):
		return 4
	case errors.Is(err, tree.ErrValidation):
		return 5
	case errors.Is(err, perm.ErrConsistency):
		return 6
	default:
		return 1
	}
}
