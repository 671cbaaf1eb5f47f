package gsdk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vinayprograms/gsdk/config"
	sdkerrors "github.com/vinayprograms/gsdk/errors"
	"github.com/vinayprograms/gsdk/heartbeat"
	"github.com/vinayprograms/gsdk/logging"
	"github.com/vinayprograms/gsdk/metrics"
	"github.com/vinayprograms/gsdk/shutdown"
)

// infoTimeout bounds the gsdkinfo report, which is sent once and never retried.
const infoTimeout = 2 * time.Second

// Types hosts handle directly.
type (
	ConnectedPlayer     = heartbeat.ConnectedPlayer
	Health              = heartbeat.Health
	MaintenanceSchedule = heartbeat.MaintenanceSchedule
	MaintenanceEvent    = heartbeat.MaintenanceEvent
	SessionHostStatus   = heartbeat.SessionHostStatus
)

// Health values.
const (
	Healthy   = heartbeat.Healthy
	Unhealthy = heartbeat.Unhealthy
)

var errWorkerStopped = errors.New("heartbeat worker stopped")

// SDK is a running connection to the agent.
type SDK struct {
	cfg       *config.Config
	logger    *logging.Logger
	transport heartbeat.Transport
	worker    *heartbeat.Worker

	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	onFatal   func(error)
	closers   []func() error
	closeOnce sync.Once
}

// StartFromEnvironment loads the agent configuration from the environment
// and calls Start.
func StartFromEnvironment(ctx context.Context, opts Options) (*SDK, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return Start(ctx, cfg, opts)
}

// Start validates cfg, reports SDK info to the agent, performs the first
// heartbeat and starts the heartbeat loop in the background.
//
// A CONFIGURATION error means cfg is incomplete; an INITIALIZATION error
// means the agent could not be reached. In both cases nothing is left
// running. ctx bounds startup only.
func Start(ctx context.Context, cfg *config.Config, opts Options) (*SDK, error) {
	if cfg == nil {
		return nil, sdkerrors.Configuration("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &SDK{
		cfg:  cfg,
		done: make(chan struct{}),
	}

	s.logger = opts.Logger
	if s.logger == nil {
		s.logger = defaultLogger(cfg.LogFolder)
		s.closers = append(s.closers, s.logger.Close)
	}
	log := s.logger.WithComponent("gsdk")
	log.Info("starting", map[string]interface{}{
		"version":   Version,
		"endpoint":  cfg.HeartbeatEndpoint,
		"server_id": cfg.ServerID,
	})

	s.transport = opts.Transport
	if s.transport == nil {
		s.transport = heartbeat.NewHTTPTransport(heartbeat.HTTPConfig{
			Endpoint: cfg.HeartbeatEndpoint,
			ServerID: cfg.ServerID,
		})
	}

	collector := opts.Metrics
	if collector == nil {
		collector = metrics.NewCollector(cfg.ServerID)
	}

	s.sendInfo(ctx)

	worker, err := heartbeat.NewWorker(ctx, heartbeat.Config{
		ServerID:    cfg.ServerID,
		Transport:   s.transport,
		Retry:       opts.Retry,
		Settings:    cfg.Settings(),
		Logger:      s.logger,
		Metrics:     collector,
		Tracer:      opts.Tracer,
		Events:      opts.Events,
		EventPrefix: opts.EventPrefix,
	})
	if err != nil {
		log.Error("initialization_failed", map[string]interface{}{"error": err.Error()})
		s.close()
		return nil, err
	}
	s.worker = worker

	coord := opts.Shutdown
	if coord != nil {
		coord.RegisterFuncWithPhase("heartbeat", s.shutdownHeartbeat, shutdown.PhaseHeartbeat)
	}
	s.onFatal = opts.OnFatal
	if s.onFatal == nil {
		if coord == nil {
			coord = shutdown.NewCoordinator(shutdown.Config{Logger: s.logger})
		}
		s.onFatal = coord.Fatal
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.run(runCtx)

	return s, nil
}

func defaultLogger(folder string) *logging.Logger {
	if folder == "" {
		return logging.New()
	}
	l, err := logging.NewFile(folder)
	if err != nil {
		l = logging.New()
		l.Warn("log_folder_unavailable", map[string]interface{}{
			"folder":   folder,
			"error":    err.Error(),
			"fallback": "stdout",
		})
	}
	return l
}

func (s *SDK) run(ctx context.Context) {
	err := s.worker.Run(ctx)
	s.err = err
	close(s.done)

	if err != nil && ctx.Err() == nil {
		s.onFatal(err)
	}
}

// shutdownHeartbeat lets a terminating loop send its final heartbeat before
// falling back to Stop.
func (s *SDK) shutdownHeartbeat(ctx context.Context) error {
	if s.worker.State().IsTerminal() {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
		}
	}
	s.Stop()
	return nil
}

func (s *SDK) close() {
	s.closeOnce.Do(func() {
		for _, c := range s.closers {
			_ = c()
		}
	})
}

// ReadyForPlayers reports the server as StandingBy and blocks until the agent
// activates or terminates the session. It returns true if the session is
// Active. Cancelling ctx returns an INTERRUPTED error and leaves the session
// state unchanged. If the heartbeat loop exits first, its error is returned.
func (s *SDK) ReadyForPlayers(ctx context.Context) (bool, error) {
	return s.waitReady(ctx, 0)
}

// ReadyForPlayersTimeout is ReadyForPlayers bounded by d. On timeout it
// returns false and a nil error.
func (s *SDK) ReadyForPlayersTimeout(d time.Duration) (bool, error) {
	return s.waitReady(context.Background(), d)
}

func (s *SDK) waitReady(ctx context.Context, timeout time.Duration) (bool, error) {
	s.worker.MarkReady()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-s.done:
			cancel(errWorkerStopped)
		case <-ctx.Done():
		}
	}()

	ok, err := s.worker.WaitForActivation(ctx, timeout)
	if err != nil && errors.Is(context.Cause(ctx), errWorkerStopped) {
		return s.worker.State() == heartbeat.StatusActive, s.Err()
	}
	return ok, err
}

// UpdateConnectedPlayers replaces the player list reported with every
// heartbeat. Player ids are not deduplicated.
func (s *SDK) UpdateConnectedPlayers(players []ConnectedPlayer) {
	s.worker.UpdatePlayers(players)
}

// RegisterShutdownCallback sets the function run when the agent terminates
// the session, or when the heartbeat loop fails. Nil deregisters.
func (s *SDK) RegisterShutdownCallback(fn func()) {
	s.worker.Callbacks().RegisterShutdown(fn)
}

// RegisterHealthCallback sets the function queried before every heartbeat.
// Without one, heartbeats carry no health.
func (s *SDK) RegisterHealthCallback(fn func() Health) {
	s.worker.Callbacks().RegisterHealth(fn)
}

// RegisterMaintenanceCallback sets the function told about the next
// scheduled maintenance. Each distinct time is delivered once.
func (s *SDK) RegisterMaintenanceCallback(fn func(time.Time)) {
	s.worker.Callbacks().RegisterMaintenance(fn)
}

// RegisterMaintenanceScheduleCallback sets the function given every
// maintenance schedule the agent sends.
func (s *SDK) RegisterMaintenanceScheduleCallback(fn func(MaintenanceSchedule)) {
	s.worker.Callbacks().RegisterMaintenanceSchedule(fn)
}

// ConfigSettings returns a copy of the config settings: static
// configuration plus session data received from the agent.
func (s *SDK) ConfigSettings() map[string]string {
	return s.worker.Settings().Snapshot()
}

// InitialPlayers returns the players the agent expects to join.
func (s *SDK) InitialPlayers() []string {
	return s.worker.Settings().InitialPlayers()
}

// State returns the current lifecycle state.
func (s *SDK) State() SessionHostStatus {
	return s.worker.State()
}

// ServerID returns the session host id.
func (s *SDK) ServerID() string {
	return s.cfg.ServerID
}

// LogsDirectory returns the folder the host should write logs to.
func (s *SDK) LogsDirectory() string {
	return s.cfg.LogFolder
}

// SharedContentDirectory returns the folder shared by all servers on the VM.
func (s *SDK) SharedContentDirectory() string {
	return s.cfg.SharedContentFolder
}

// CertificateDirectory returns the folder holding game certificates.
func (s *SDK) CertificateDirectory() string {
	return s.cfg.CertificateFolder
}

// VMID returns the id of the VM hosting this server.
func (s *SDK) VMID() string {
	return s.cfg.VMID
}

// GameServerConnectionInfo returns the public address and port mapping, or
// nil if the agent did not provide one.
func (s *SDK) GameServerConnectionInfo() *config.ConnectionInfo {
	ci := s.cfg.ConnectionInfo
	if ci == nil {
		return nil
	}
	out := &config.ConnectionInfo{PublicIPv4Address: ci.PublicIPv4Address}
	out.GamePorts = append(out.GamePorts, ci.GamePorts...)
	return out
}

// Log writes msg to the SDK log. It keeps working after Done is closed,
// until Stop releases the log file.
func (s *SDK) Log(msg string) {
	s.logger.Info(msg)
}

// Done is closed when the heartbeat loop exits.
func (s *SDK) Done() <-chan struct{} {
	return s.done
}

// Err returns why the heartbeat loop exited: nil after a clean termination,
// RETRY_EXHAUSTED or PANIC after a failure, CANCELED after Stop. It returns
// nil while the loop is running.
func (s *SDK) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Stop ends the heartbeat loop without reporting Terminated and waits for it
// to exit. The agent will treat the server as unresponsive. Stop also closes
// the default log file, so call it once the host is done logging, even
// after a clean termination.
func (s *SDK) Stop() {
	s.cancel()
	<-s.done
	s.close()
}
