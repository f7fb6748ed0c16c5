package storesync

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Resyncer repairs the service store from the file store
type Resyncer interface {
	Resync(ctx context.Context) (bool, error)
}

// Worker periodically checks the two host configuration stores for drift
type Worker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	resyncer Resyncer
	logger   *logrus.Entry
	interval time.Duration
	timeout  time.Duration
}

// Config holds the configuration for the store sync worker
type Config struct {
	Resyncer    Resyncer
	Logger      *logrus.Entry
	IntervalSec int
}

// NewWorker creates a new store sync worker
func NewWorker(cfg *Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	interval := time.Duration(cfg.IntervalSec) * time.Second
	return &Worker{
		ctx:      ctx,
		cancel:   cancel,
		resyncer: cfg.Resyncer,
		logger:   logger.WithField("component", "store-sync-worker"),
		interval: interval,
		timeout:  interval,
	}
}

// Start runs one check immediately, then one per interval
func (w *Worker) Start() {
	w.logger.WithField("interval", w.interval.String()).Info("Starting store sync worker...")
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		w.runOnce()
		for {
			select {
			case <-ticker.C:
				w.runOnce()
			case <-w.ctx.Done():
				w.logger.Info("Stopping store sync worker...")
				return
			}
		}
	}()
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.cancel()
}

func (w *Worker) runOnce() {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	changed, err := w.resyncer.Resync(ctx)
	if err != nil {
		w.logger.WithError(err).Error("Store sync failed")
		return
	}
	if changed {
		w.logger.Info("Store sync repaired drift")
	}
}
