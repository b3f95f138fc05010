package utils

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benmeehan/location-recorder/pkg/file"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ConfigSource holds the current configuration. Readers always see a complete
// Config; a reload swaps it atomically.
type ConfigSource struct {
	current atomic.Pointer[Config]
	lookup  func(string) (string, bool)
}

// NewConfigSource creates a source holding cfg.
func NewConfigSource(cfg *Config) *ConfigSource {
	s := &ConfigSource{lookup: os.LookupEnv}
	s.current.Store(cfg)
	return s
}

// Current returns the configuration in effect.
func (s *ConfigSource) Current() *Config {
	return s.current.Load()
}

// Store replaces the configuration in effect.
func (s *ConfigSource) Store(cfg *Config) {
	s.current.Store(cfg)
}

// ConnectionString resolves the database connection string at call time:
// DATABASE_URI, then MONGODB_URI, then storage.database.uri.
func (s *ConfigSource) ConnectionString() string {
	for _, key := range []string{EnvDatabaseURI, EnvMongoDBURI} {
		if v, ok := s.lookup(key); ok && v != "" {
			return v
		}
	}
	return s.Current().Storage.Database.URI
}

// ConfigWatcher reloads a ConfigSource whenever its file is written.
type ConfigWatcher struct {
	path       string
	source     *ConfigSource
	fileClient file.FileOperations
	logger     zerolog.Logger
	debounce   time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, source *ConfigSource, fileClient file.FileOperations, logger zerolog.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		path:       path,
		source:     source,
		fileClient: fileClient,
		logger:     logger,
		debounce:   100 * time.Millisecond,
	}
}

// Start begins watching. The parent directory is watched so editors that
// replace the file by rename are picked up too.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.watcher = watcher
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx, watcher, w.done)

	w.logger.Info().Str("path", w.path).Msg("Watching configuration file")
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *ConfigWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}

	w.cancel()
	<-w.done
	err := w.watcher.Close()
	w.watcher = nil

	w.logger.Info().Msg("Configuration watcher stopped")
	return err
}

func (w *ConfigWatcher) run(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	target := filepath.Clean(w.path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Editors emit bursts of events per save
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Configuration watcher error")

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *ConfigWatcher) reload() {
	cfg, err := LoadConfig(w.path, w.fileClient)
	if err != nil {
		w.logger.Error().Err(err).Str("path", w.path).Msg("Failed to reload configuration, keeping previous")
		return
	}

	previous := w.source.Current()
	w.source.Store(cfg)

	w.logger.Info().
		Str("path", w.path).
		Bool("database_configured", cfg.Storage.Database.URI != "").
		Bool("database_changed", previous == nil || previous.Storage.Database.URI != cfg.Storage.Database.URI).
		Msg("Configuration reloaded")
}
