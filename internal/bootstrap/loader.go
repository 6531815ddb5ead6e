package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/walletlink/internal/config"
	"github.com/five82/walletlink/internal/litelib"
	"github.com/five82/walletlink/internal/rpc"
	"github.com/five82/walletlink/internal/settings"
)

// State is a bootstrap phase.
type State int

const (
	SelectingServer State = iota
	InitializingOrRestoring
	AwaitingInfo
	Syncing
	Finalized
	Failed
)

func (s State) String() string {
	switch s {
	case SelectingServer:
		return "selecting server"
	case InitializingOrRestoring:
		return "initializing"
	case AwaitingInfo:
		return "awaiting info"
	case Syncing:
		return "syncing"
	case Finalized:
		return "finalized"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInitRejected means the daemon refused to load the existing wallet.
	ErrInitRejected = errors.New("wallet initialization rejected")
	// ErrInfoFailed means the first info command after initialization failed.
	ErrInfoFailed = errors.New("wallet info failed")
	// ErrSyncFailed means the initial sync failed. The interactive shell keeps
	// the loader in Syncing; headless runs treat it as fatal.
	ErrSyncFailed = errors.New("wallet sync failed")
)

// LoadingMsg hands the shell a connection that is not ready yet.
type LoadingMsg struct{ Conn *rpc.Connection }

// ReadyMsg hands the shell the fully initialized connection.
type ReadyMsg struct{ Conn *rpc.Connection }

// FailedMsg reports a fatal bootstrap error. The shell is left disconnected.
type FailedMsg struct {
	Message string
	Err     error
}

// KeepVisibleMsg asks the shell to show the bootstrap dialog again.
type KeepVisibleMsg struct{}

type serverSelectedMsg struct{ server string }

type initializedMsg struct {
	cfg      rpc.Config
	exists   bool
	response string
}

type restoredMsg struct {
	cfg rpc.Config
	err error
}

type infoMsg struct{ reply rpc.Reply }

type infoFailedMsg struct{ err string }

type syncDoneMsg struct{}

type syncStatusMsg struct{ reply rpc.Reply }

type tickMsg struct{ gen int }

// Options configure a Loader.
type Options struct {
	Context  context.Context
	Backend  litelib.Backend
	Settings *settings.Store
	Config   config.Config
	Pool     *rpc.Pool
	Reporter *rpc.ErrorReporter
	Restorer Restorer
}

type tickFunc func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

// Loader drives one bootstrap attempt. It is not reusable: a reconnect builds
// a new Loader. All methods except the commands it returns run on the event
// loop.
type Loader struct {
	ctx      context.Context
	backend  litelib.Backend
	settings *settings.Store
	cfg      config.Config
	pool     *rpc.Pool
	reporter *rpc.ErrorReporter
	restorer Restorer
	tick     tickFunc

	state     State
	server    string
	conn      *rpc.Connection
	restoring bool
	syncing   atomic.Bool

	polling     bool
	generation  int
	ticks       int
	showSyncing bool

	status      string
	detail      string
	syncedTo    int64
	syncedTotal int64
}

// New builds a Loader in the SelectingServer state.
func New(opts Options) *Loader {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	restorer := opts.Restorer
	if restorer == nil {
		restorer = ExecRestorer{}
	}
	cfg := opts.Config
	if cfg.StatusEvery <= 0 {
		cfg.StatusEvery = time.Second
	}
	if cfg.KeepVisibleEvery <= 0 {
		cfg.KeepVisibleEvery = 10 * time.Second
	}
	pool := opts.Pool
	if pool == nil {
		pool = rpc.NewPool(cfg.PoolSize)
	}
	return &Loader{
		ctx:      ctx,
		backend:  opts.Backend,
		settings: opts.Settings,
		cfg:      cfg,
		pool:     pool,
		reporter: opts.Reporter,
		restorer: restorer,
		tick:     tea.Tick,
		state:    SelectingServer,
		status:   "Starting",
	}
}

// Init starts the bootstrap sequence.
func (l *Loader) Init() tea.Cmd {
	return l.selectServerCmd()
}

// Update advances the state machine. Messages for other components are
// ignored.
func (l *Loader) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case serverSelectedMsg:
		if l.state != SelectingServer {
			return nil
		}
		l.server = msg.server
		l.state = InitializingOrRestoring
		l.status = "Initializing"
		l.detail = "Attempting to initialize library with " + msg.server
		log.Printf("bootstrap: initializing with %s", msg.server)
		return l.initializeCmd(rpc.Config{Server: msg.server})

	case initializedMsg:
		if l.state != InitializingOrRestoring {
			return nil
		}
		if msg.exists {
			if !litelib.IsOK(msg.response) {
				explanation := strings.TrimSpace(msg.response)
				return l.fail(explanation, fmt.Errorf("%w: %s", ErrInitRejected, explanation))
			}
			l.detail = "Using existing wallet."
			return l.connect(msg.cfg)
		}
		l.detail = "Create/restore wallet."
		l.restoring = true
		log.Printf("bootstrap: no wallet found, starting create/restore")
		cfg := msg.cfg
		return l.restorer.CreateOrRestore(cfg.Dangerous, cfg.Server, func(err error) tea.Msg {
			return restoredMsg{cfg: cfg, err: err}
		})

	case restoredMsg:
		if l.state != InitializingOrRestoring || !l.restoring {
			return nil
		}
		l.restoring = false
		if msg.err != nil {
			log.Printf("bootstrap: create/restore finished with error: %v", msg.err)
		}
		return l.connect(msg.cfg)

	case infoMsg:
		if l.state != AwaitingInfo {
			return nil
		}
		return l.startSync(msg.reply)

	case infoFailedMsg:
		if l.state != AwaitingInfo {
			return nil
		}
		return l.fail(msg.err, fmt.Errorf("%w: %s", ErrInfoFailed, msg.err))

	case syncStatusMsg:
		l.applySyncStatus(msg.reply)
		return nil

	case syncDoneMsg:
		if l.state != Syncing {
			return nil
		}
		return l.finalize()

	case tickMsg:
		return l.handleTick(msg)
	}
	return nil
}

// State returns the current phase.
func (l *Loader) State() State {
	return l.state
}

// Done reports whether the loader reached a terminal state.
func (l *Loader) Done() bool {
	return l.state == Finalized || l.state == Failed
}

// Server returns the server chosen for this attempt.
func (l *Loader) Server() string {
	return l.server
}

// Connection returns the connection once it exists.
func (l *Loader) Connection() *rpc.Connection {
	return l.conn
}

// Restoring reports whether the create/restore flow is running.
func (l *Loader) Restoring() bool {
	return l.restoring
}

// Syncing reports whether the initial sync is in progress.
func (l *Loader) Syncing() bool {
	return l.syncing.Load()
}

// ShowSyncing reports whether the shell should show the syncing label
// instead of its normal status.
func (l *Loader) ShowSyncing() bool {
	return l.showSyncing
}

// Status returns the headline for the bootstrap dialog.
func (l *Loader) Status() string {
	return l.status
}

// Detail returns the secondary line for the bootstrap dialog.
func (l *Loader) Detail() string {
	return l.detail
}

// SyncProgress returns the synced and total block counts of the last status
// poll. total is zero until a poll has been applied.
func (l *Loader) SyncProgress() (synced, total int64) {
	return l.syncedTo, l.syncedTotal
}

func (l *Loader) selectServerCmd() tea.Cmd {
	return func() tea.Msg {
		server := l.settings.Server()
		switch {
		case !l.backend.CheckServer(l.ctx, server):
			log.Printf("bootstrap: server %q unreachable, using default", server)
			server = l.useDefaultServer()
		case l.cfg.IsDeprecatedServer(server):
			log.Printf("bootstrap: server %q is deprecated, using default", server)
			server = l.useDefaultServer()
		}
		return serverSelectedMsg{server: server}
	}
}

func (l *Loader) useDefaultServer() string {
	updated, err := l.settings.SetDefaultServer()
	if err != nil {
		log.Printf("bootstrap: save settings: %v", err)
	}
	return updated.Server
}

func (l *Loader) initializeCmd(cfg rpc.Config) tea.Cmd {
	return func() tea.Msg {
		if !l.backend.WalletExists(l.ctx) {
			return initializedMsg{cfg: cfg}
		}
		resp := litelib.ProcessResponse(l.backend.InitializeExisting(l.ctx, cfg.Server))
		return initializedMsg{cfg: cfg, exists: true, response: resp}
	}
}

func (l *Loader) connect(cfg rpc.Config) tea.Cmd {
	conn := rpc.NewConnection(l.ctx, cfg, rpc.Options{
		Backend:  l.backend,
		Pool:     l.pool,
		Reporter: l.reporter,
	})
	l.conn = conn
	l.state = AwaitingInfo
	l.status = "Connecting"

	loading := func() tea.Msg { return LoadingMsg{Conn: conn} }
	info := conn.Issue("info", "",
		func(reply rpc.Reply) tea.Msg { return infoMsg{reply: reply} },
		func(err string) tea.Msg { return infoFailedMsg{err: err} },
	)
	return tea.Batch(loading, info)
}

func (l *Loader) startSync(info rpc.Reply) tea.Cmd {
	log.Printf("bootstrap: connection is online")
	l.conn.SetInfo(info)
	l.syncing.Store(true)
	l.settings.SetSyncing(true)
	l.state = Syncing
	l.status = "Syncing"
	l.detail = "Connection is online."

	sync := l.conn.IssueWithDefaultErrorHandling("sync", "", func(rpc.Reply) tea.Msg {
		return syncDoneMsg{}
	})
	return tea.Batch(sync, l.startPoller())
}

// The status timer and the keep-visible nudge share one ticker so that
// stopping the poller cancels both at once.
func (l *Loader) startPoller() tea.Cmd {
	l.polling = true
	l.ticks = 0
	return l.scheduleTick()
}

func (l *Loader) stopPoller() {
	l.polling = false
	l.generation++
	l.showSyncing = false
}

// Only the most recently scheduled tick is live.
func (l *Loader) scheduleTick() tea.Cmd {
	l.generation++
	gen := l.generation
	return l.tick(l.cfg.StatusEvery, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (l *Loader) nudgeEvery() int {
	n := int(l.cfg.KeepVisibleEvery / l.cfg.StatusEvery)
	if n < 1 {
		return 1
	}
	return n
}

func (l *Loader) handleTick(msg tickMsg) tea.Cmd {
	if !l.polling || msg.gen != l.generation {
		return nil
	}
	if !l.syncing.Load() {
		l.showSyncing = false
		l.polling = false
		return nil
	}

	l.ticks++
	l.showSyncing = true
	cmds := []tea.Cmd{
		l.conn.Issue("syncstatus", "",
			func(reply rpc.Reply) tea.Msg { return syncStatusMsg{reply: reply} },
			func(err string) tea.Msg {
				log.Printf("bootstrap: sync status error: %s", err)
				return nil
			},
		),
	}
	if l.ticks%l.nudgeEvery() == 0 {
		cmds = append(cmds, func() tea.Msg { return KeepVisibleMsg{} })
	}
	cmds = append(cmds, l.scheduleTick())
	return tea.Batch(cmds...)
}

func (l *Loader) applySyncStatus(reply rpc.Reply) {
	// A poll issued before sync finished can land afterwards.
	if l.state != Syncing || !l.syncing.Load() {
		return
	}
	var total int64
	if l.conn != nil {
		total = l.conn.Info().Int("latest_block_height")
	}
	l.syncedTo = reply.Int("end_block") + reply.Int("synced_blocks")
	l.syncedTotal = total
	l.status = fmt.Sprintf("Synced %d / %d", l.syncedTo, l.syncedTotal)
}

func (l *Loader) finalize() tea.Cmd {
	l.syncing.Store(false)
	l.settings.SetSyncing(false)
	l.stopPoller()
	l.state = Finalized
	l.status = "Ready"
	log.Printf("bootstrap: finished, handing off connection to %s", l.conn.Config().Server)

	conn := l.conn
	return func() tea.Msg { return ReadyMsg{Conn: conn} }
}

func (l *Loader) fail(explanation string, err error) tea.Cmd {
	l.stopPoller()
	l.state = Failed
	l.status = "Connection Error"
	l.detail = explanation
	log.Printf("bootstrap: %v", err)
	return func() tea.Msg { return FailedMsg{Message: explanation, Err: err} }
}
