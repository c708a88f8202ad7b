package ml

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type WatchOptions struct {
	Debounce time.Duration
	Logger   *zap.Logger
	// OnReload is called after every reload attempt with its result.
	OnReload func(error)
}

// ArtifactWatcher reloads the full artifact set when files in the
// artifact directory change, and swaps it into a Predictor.
type ArtifactWatcher struct {
	store     *ArtifactStore
	predictor *Predictor
	opts      WatchOptions
	logger    *zap.Logger
	watched   map[string]bool
}

func NewArtifactWatcher(store *ArtifactStore, predictor *Predictor, opts WatchOptions) *ArtifactWatcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	watched := make(map[string]bool)
	for _, name := range ArtifactNames() {
		watched[filepath.Clean(store.Path(name))] = true
	}
	return &ArtifactWatcher{
		store:     store,
		predictor: predictor,
		opts:      opts,
		logger:    opts.Logger,
		watched:   watched,
	}
}

// Reload loads every artifact and swaps them in. A failure leaves the
// serving snapshot untouched.
func (w *ArtifactWatcher) Reload() error {
	artifacts, err := w.store.LoadAll()
	if err == nil {
		err = w.predictor.Swap(artifacts)
	}
	if err != nil {
		w.logger.Error("artifact reload failed, keeping previous snapshot", zap.Error(err))
	} else {
		w.logger.Info("artifacts reloaded", zap.String("dir", w.store.Dir()))
	}
	if w.opts.OnReload != nil {
		w.opts.OnReload(err)
	}
	return err
}

// Run watches until ctx is cancelled.
func (w *ArtifactWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.store.Dir()); err != nil {
		return err
	}
	w.logger.Info("watching artifact directory", zap.String("dir", w.store.Dir()))

	var reload <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			w.logger.Debug("artifact changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			reload = time.After(w.opts.Debounce)
		case <-reload:
			reload = nil
			_ = w.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("artifact watcher error", zap.Error(err))
		}
	}
}
