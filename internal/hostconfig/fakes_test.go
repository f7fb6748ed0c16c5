package hostconfig

import (
	"context"
	"errors"

	"go_hostcfg/internal/model"
	"go_hostcfg/internal/users"
)

type memStore struct {
	fields  map[string]string
	saveErr error
	loadErr error
	saves   int
}

func newMemStore(initial map[string]string) *memStore {
	m := &memStore{fields: map[string]string{}}
	for k, v := range initial {
		m.fields[k] = v
	}
	return m
}

func (m *memStore) Load(ctx context.Context) (map[string]string, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]string, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) SaveFields(ctx context.Context, fields map[string]string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	for k, v := range fields {
		m.fields[k] = v
	}
	return nil
}

func (m *memStore) ReplaceFields(ctx context.Context, fields map[string]string) error {
	m.fields = map[string]string{}
	for k, v := range fields {
		m.fields[k] = v
	}
	return nil
}

type memUsers struct {
	users        []model.User
	reconciled   []users.Entry
	reconcileErr error
	findErr      error
}

func (m *memUsers) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := range m.users {
		if m.users[i].Identifier == identifier {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) ListAll(ctx context.Context) ([]model.User, error) {
	return m.users, nil
}

func (m *memUsers) Reconcile(ctx context.Context, entries []users.Entry) error {
	if m.reconcileErr != nil {
		return m.reconcileErr
	}
	m.reconciled = entries
	return nil
}

type fakeCerts struct {
	valid bool
	calls int
}

func (f *fakeCerts) Verify(path, passphrase string) bool {
	f.calls++
	return f.valid
}

type memRevisions struct {
	fields map[string]string
	actor  string
	err    error
}

func (m *memRevisions) Record(ctx context.Context, fields map[string]string, userCount int, actor string) error {
	m.fields = fields
	m.actor = actor
	return m.err
}

var errBoom = errors.New("boom")
