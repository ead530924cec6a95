// Package service assembles a recorder with its persistence, archiving,
// rotation triggers and operator endpoints from a loaded configuration.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/otairec/otairec/pkg/archive"
	"github.com/otairec/otairec/pkg/backend"
	"github.com/otairec/otairec/pkg/client"
	"github.com/otairec/otairec/pkg/config"
	"github.com/otairec/otairec/pkg/control"
	"github.com/otairec/otairec/pkg/metrics"
	"github.com/otairec/otairec/pkg/otai"
	"github.com/otairec/otairec/pkg/recorder"
	"github.com/otairec/otairec/pkg/rotate"
	"github.com/otairec/otairec/pkg/state"
)

// Service owns one Recorder and everything hanging off it.
type Service struct {
	cfg     *config.Config
	session string
	log     *slog.Logger

	rec      *recorder.Recorder
	store    *state.Store
	remote   backend.Backend
	archiver *archive.Archiver
	control  *control.Server

	sched   *rotate.Scheduler
	watcher *rotate.Watcher

	closeOnce sync.Once
}

// New builds a service from cfg. Nothing runs until Run is called, but
// the recorder is live and accepts calls as soon as New returns.
func New(cfg *config.Config) (*Service, error) {
	s := &Service{cfg: cfg, session: uuid.NewString()}
	s.log = slog.Default().With("component", "service", "session", s.session)

	if cfg.State.Enabled() {
		store, err := state.Open(cfg.State.Path, cfg.State.InMemory)
		if err != nil {
			return nil, fmt.Errorf("service.New: %w", err)
		}
		s.store = store
	}

	if cfg.Archive.Enabled {
		if err := s.setupArchive(); err != nil {
			s.closeStore()
			return nil, err
		}
	}

	opts := recorder.Options{
		Sync:               cfg.Recording.Sync,
		RenameOnRotate:     cfg.Recording.RenameOnRotate,
		AlarmNotifications: cfg.Recording.AlarmNotifications,
		Logger:             slog.Default().With("session", s.session),
	}
	if s.archiver != nil {
		opts.OnRotate = func(segment string) { s.archiver.Enqueue(segment) }
	}
	s.rec = recorder.New(opts)

	settings := cfg.Recording.Settings()
	if s.store != nil {
		stored, ok, err := s.store.LoadSettings()
		switch {
		case err != nil:
			s.log.Warn("loading stored settings, using configuration", "error", err)
		case ok:
			s.log.Info("restoring stored recorder settings", "enabled", stored.Enabled, "directory", stored.Directory, "filename", stored.Filename)
			settings = stored
		}
	}
	if err := s.rec.Apply(settings); err != nil {
		s.log.Warn("some recorder settings were rejected", "error", err)
	}

	var store control.Store
	if s.store != nil {
		store = s.store
	}
	s.control = control.NewServer(control.Config{Addr: cfg.Control.Addr, AuditSize: cfg.Control.AuditSize}, s.rec, store)
	if s.archiver != nil {
		s.control.SetArchive(s.remote, s.archiver.Dir())
	}

	metrics.RegisterHealthCheck("recording_dir", func() error {
		return metrics.DirHealthCheck(s.rec.Settings().Directory)()
	})
	metrics.RegisterHealthCheck("recorder", s.recorderHealth)

	s.log.Info("service initialized",
		"path", s.rec.Path(),
		"enabled", settings.Enabled,
		"archive", s.archiver != nil,
		"state", s.store != nil)
	return s, nil
}

func (s *Service) setupArchive() error {
	bc := s.cfg.Archive.Backend
	root := bc.Root
	if root == "" {
		root = bc.Config["root"]
	}
	b, err := backend.NewRclone(context.Background(), backend.Config{
		Name:   bc.Name,
		Type:   bc.Type,
		Root:   root,
		Params: bc.Config,
	})
	if err != nil {
		return fmt.Errorf("service.New: archive backend: %w", err)
	}
	opts := archive.Options{
		Backend:     b,
		Prefix:      s.cfg.Archive.Prefix,
		Compress:    s.cfg.Archive.CompressEnabled(),
		Level:       s.cfg.Archive.Level,
		DeleteLocal: s.cfg.Archive.DeleteLocal,
		QueueSize:   s.cfg.Archive.QueueSize,
		Timeout:     s.cfg.Archive.Timeout,
		Keep:        s.cfg.Archive.Keep,
	}
	if s.store != nil {
		opts.Ledger = s.store
	}
	a, err := archive.New(opts)
	if err != nil {
		b.Close()
		return fmt.Errorf("service.New: %w", err)
	}
	s.remote = b
	s.archiver = a
	s.log.Info("archive enabled", "backend", bc.Name, "type", bc.Type, "dir", a.Dir())
	return nil
}

func (s *Service) recorderHealth() error {
	if st := s.rec.Snapshot(); st.State == recorder.StateFailed.String() {
		return fmt.Errorf("recorder writer failed for %s", st.Path)
	}
	return nil
}

// Session returns the random id logged with every line of this service.
func (s *Service) Session() string { return s.session }

// Recorder returns the service's recorder.
func (s *Service) Recorder() *recorder.Recorder { return s.rec }

// Control returns the operator API server.
func (s *Service) Control() *control.Server { return s.control }

// Client wraps api so that every call through it is recorded.
func (s *Service) Client(api otai.API) *client.Client {
	return client.New(api, s.rec)
}

// Run starts the archiver, the rotation triggers, the control API and the
// metrics server, and blocks until ctx is cancelled or a server fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.archiver != nil {
		// Close drains the queue after Run returns.
		s.archiver.Start(context.WithoutCancel(ctx))
	}
	if err := s.startTriggers(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup
	if s.cfg.Control.ControlEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.control.Run(ctx); err != nil {
				errCh <- fmt.Errorf("control API: %w", err)
			}
		}()
	}

	if s.cfg.Metrics.MetricsEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.Serve(ctx, s.cfg.Metrics.Addr); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
		s.log.Info("metrics server started", "addr", s.cfg.Metrics.Addr)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		cancel()
	}
	wg.Wait()
	return err
}

func (s *Service) startTriggers(ctx context.Context) error {
	rc := s.cfg.Rotate
	if rc.SignalEnabled() {
		rotate.HandleSignals(ctx, s.rec)
	}
	if rc.Schedule != "" {
		sched, err := rotate.NewScheduler(rc.Schedule, s.rec)
		if err != nil {
			return fmt.Errorf("service.Run: %w", err)
		}
		sched.Start()
		s.sched = sched
	}
	if rc.Watch {
		w, err := rotate.NewWatcher(s.rec, rc.MaxSize)
		if err != nil {
			s.log.Warn("file watcher not started", "error", err)
			return nil
		}
		s.watcher = w
		go w.Run(ctx)
	}
	return nil
}

// Close stops the triggers, detaches the recorder from the archiver and
// drains its queue, saves the recorder settings and finally closes the
// recorder. Calls recorded during Close never reach the archiver.
func (s *Service) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		if s.sched != nil {
			s.sched.Stop()
		}
		if s.watcher != nil {
			if err := s.watcher.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.archiver != nil {
			s.rec.SetOnRotate(nil)
			s.archiver.Close()
		}
		if s.remote != nil {
			if err := s.remote.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.store != nil {
			if err := s.store.SaveSettings(s.rec.Settings()); err != nil {
				errs = append(errs, err)
			}
		}
		if err := s.closeStore(); err != nil {
			errs = append(errs, err)
		}
		if err := s.rec.Close(); err != nil {
			errs = append(errs, err)
		}
		s.log.Info("service closed")
	})
	return errors.Join(errs...)
}

func (s *Service) closeStore() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
