package hostconfig

import (
	"context"
	"fmt"

	"go_hostcfg/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FieldStore is a key/value sink for flattened host configuration fields
type FieldStore interface {
	Load(ctx context.Context) (map[string]string, error)
	SaveFields(ctx context.Context, fields map[string]string) error
	ReplaceFields(ctx context.Context, fields map[string]string) error
}

// UserLister lists every stored user
type UserLister interface {
	ListAll(ctx context.Context) ([]model.User, error)
}

// placeholderUsernames are offered when no user has been stored yet
var placeholderUsernames = []string{"admin", "user"}

// SynthesizeDefaults returns existing, or placeholder users without passwords
// when existing is empty. Placeholders are never persisted by reading.
func SynthesizeDefaults(existing []model.User) []model.User {
	if len(existing) > 0 {
		return existing
	}
	out := make([]model.User, 0, len(placeholderUsernames))
	for _, name := range placeholderUsernames {
		out = append(out, model.User{
			Identifier: uuid.New().String(),
			Username:   name,
		})
	}
	return out
}

// Reader assembles the host configuration returned to clients
type Reader struct {
	productName string
	files       FieldStore
	users       UserLister
	logger      *logrus.Entry
}

// NewReader creates a snapshot reader over the file store and user store
func NewReader(productName string, files FieldStore, users UserLister, logger *logrus.Entry) *Reader {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Reader{
		productName: productName,
		files:       files,
		users:       users,
		logger:      logger.WithField("component", "hostconfig-reader"),
	}
}

// ReadSnapshot returns the stored configuration with secrets masked
func (r *Reader) ReadSnapshot(ctx context.Context) (*Resource, error) {
	res, err := r.readStored(ctx)
	if err != nil {
		return nil, err
	}
	if res.SSLCertPassword != "" {
		res.SSLCertPassword = SecretMask
	}

	stored, err := r.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	effective := SynthesizeDefaults(stored)
	res.Users = make([]UserEntry, 0, len(effective))
	for _, u := range effective {
		res.Users = append(res.Users, UserEntry{
			Identifier: u.Identifier,
			Username:   u.Username,
			Password:   u.PasswordHash,
		})
	}
	return res, nil
}

// readStored returns the stored scalar fields over the defaults, unmasked
func (r *Reader) readStored(ctx context.Context) (*Resource, error) {
	stored, err := r.files.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file store: %w", err)
	}

	res := Defaults(r.productName)
	for key, perr := range apply(&res, stored) {
		r.logger.WithFields(logrus.Fields{
			"key":   key,
			"value": stored[key],
		}).WithError(perr).Warn("Ignoring unparsable stored value, using default")
	}
	return &res, nil
}
