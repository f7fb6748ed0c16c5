package hostconfig

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"go_hostcfg/internal/users"

	"github.com/sirupsen/logrus"
)

// UserReconciler applies submitted users to the user store
type UserReconciler interface {
	Reconcile(ctx context.Context, entries []users.Entry) error
}

// RevisionRecorder keeps an audit row for each commit
type RevisionRecorder interface {
	Record(ctx context.Context, fields map[string]string, userCount int, actor string) error
}

// Writer commits validated configuration to both stores and the user store
type Writer struct {
	// mu serializes commits and resyncs
	mu        sync.Mutex
	files     FieldStore
	service   FieldStore
	users     UserReconciler
	revisions RevisionRecorder
	logger    *logrus.Entry
}

// NewWriter creates a writer. revisions may be nil.
func NewWriter(files, service FieldStore, users UserReconciler, revisions RevisionRecorder, logger *logrus.Entry) *Writer {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Writer{
		files:     files,
		service:   service,
		users:     users,
		revisions: revisions,
		logger:    logger.WithField("component", "hostconfig-writer"),
	}
}

// Commit persists r, which must already have passed validation, and returns
// its identifier. If a later step fails the earlier stores are put back to
// the values they held before the commit.
func (w *Writer) Commit(ctx context.Context, r *Resource) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fields := Flatten(r)

	prevFiles, err := w.files.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read file store: %w", err)
	}
	prevService, err := w.service.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read service store: %w", err)
	}

	if err := w.files.SaveFields(ctx, fields); err != nil {
		return 0, fmt.Errorf("failed to write file store: %w", err)
	}

	if err := w.service.SaveFields(ctx, fields); err != nil {
		w.restore(ctx, "file", w.files, prevFiles)
		return 0, fmt.Errorf("failed to write service store: %w", err)
	}

	if err := w.users.Reconcile(ctx, toUserEntries(r.Users)); err != nil {
		w.restore(ctx, "file", w.files, prevFiles)
		w.restore(ctx, "service", w.service, prevService)
		return 0, fmt.Errorf("failed to reconcile users: %w", err)
	}

	actor := ActorFromContext(ctx)
	if w.revisions != nil {
		if err := w.revisions.Record(ctx, fields, len(r.Users), actor); err != nil {
			w.logger.WithError(err).Warn("Failed to record configuration revision")
		}
	}

	w.logger.WithFields(logrus.Fields{
		"actor": actor,
		"users": len(r.Users),
	}).Info("Host configuration committed")
	return SingletonID, nil
}

// Resync copies the file store over the service store when they differ.
// It reports whether a copy was needed.
func (w *Writer) Resync(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fileFields, err := w.files.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read file store: %w", err)
	}
	serviceFields, err := w.service.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read service store: %w", err)
	}
	if maps.Equal(fileFields, serviceFields) {
		return false, nil
	}

	if err := w.service.ReplaceFields(ctx, fileFields); err != nil {
		return false, fmt.Errorf("failed to resync service store: %w", err)
	}
	w.logger.WithField("keys", len(fileFields)).Warn("Service store diverged from file store, resynced")
	return true, nil
}

// restore runs even if ctx was cancelled, since the commit already failed
func (w *Writer) restore(ctx context.Context, name string, store FieldStore, prev map[string]string) {
	if err := store.ReplaceFields(context.WithoutCancel(ctx), prev); err != nil {
		w.logger.WithError(err).WithField("store", name).Error("Failed to restore store after failed commit; stores may diverge")
		return
	}
	w.logger.WithField("store", name).Warn("Restored store after failed commit")
}

func toUserEntries(in []UserEntry) []users.Entry {
	out := make([]users.Entry, 0, len(in))
	for _, u := range in {
		out = append(out, users.Entry{
			Identifier: u.Identifier,
			Username:   u.Username,
			Password:   u.Password,
		})
	}
	return out
}
