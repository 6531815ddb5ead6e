package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/five82/walletlink/internal/bootstrap"
	"github.com/five82/walletlink/internal/config"
	"github.com/five82/walletlink/internal/litelib"
	"github.com/five82/walletlink/internal/rpc"
	"github.com/five82/walletlink/internal/settings"
	"github.com/five82/walletlink/internal/ui"
)

// Options configure the walletlink application.
type Options struct {
	ConfigPath   string
	SettingsPath string // empty uses default ~/.config/walletlink/settings.toml
	Headless     bool   // forced on when stdout is not a terminal

	// Commands run once the connection is ready (headless only).
	Commands []ui.Invocation

	Out    io.Writer
	ErrOut io.Writer
}

// Run boots walletlink until the user exits, the headless commands finish,
// or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	headless := opts.Headless || !isTerminal(os.Stdout)

	closeLog, err := setupLogging(cfg.LogFile, headless, opts.ErrOut)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closeLog()

	store := settings.Load(opts.SettingsPath, settings.Defaults{
		Server:   cfg.DefaultServer,
		Headless: headless,
	})

	client, err := litelib.NewClient(cfg.APIBind)
	if err != nil {
		return fmt.Errorf("init wallet client: %w", err)
	}
	if err := ensureDaemonAvailable(ctx, client, cfg.APIBind); err != nil {
		return err
	}

	loader := bootstrap.New(bootstrap.Options{
		Context:  ctx,
		Backend:  client,
		Settings: store,
		Config:   cfg,
		Pool:     rpc.NewPool(cfg.PoolSize),
		Reporter: rpc.NewErrorReporter(),
		Restorer: bootstrap.ExecRestorer{Command: cfg.RestoreCommand},
	})

	log.Printf("walletlink starting (daemon %s, headless=%v, pool=%d)", cfg.APIBind, headless, cfg.PoolSize)
	return ui.Run(ui.Options{
		Context:      ctx,
		Loader:       loader,
		Settings:     store,
		RefreshEvery: cfg.RefreshEvery,
		LogFile:      cfg.LogFile,
		Commands:     opts.Commands,
		Out:          opts.Out,
		ErrOut:       opts.ErrOut,
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ensureDaemonAvailable fails fast when nothing answers at the API address,
// before the UI takes over the terminal.
func ensureDaemonAvailable(ctx context.Context, client pinger, apiBind string) error {
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("wallet daemon not reachable at %s: %w", apiBind, err)
	}
	return nil
}

// setupLogging sends the standard logger to the log file in TUI mode, since
// the terminal belongs to the UI, and to stderr in headless mode.
func setupLogging(path string, headless bool, errOut io.Writer) (func(), error) {
	if headless {
		if errOut == nil {
			errOut = os.Stderr
		}
		log.SetOutput(errOut)
		log.SetPrefix("walletlink ")
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(path, "walletlink")
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
