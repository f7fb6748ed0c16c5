package hostconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	files   *memStore
	service *memStore
	users   *memUsers
	certs   *fakeCerts
	svc     *Service
}

func newServiceFixture(stored map[string]string) *serviceFixture {
	f := &serviceFixture{
		files:   newMemStore(stored),
		service: newMemStore(nil),
		users:   &memUsers{},
		certs:   &fakeCerts{valid: true},
	}
	reader := NewReader(product, f.files, f.users, nil)
	validator := NewValidator(product, f.users, f.certs, nil)
	writer := NewWriter(f.files, f.service, f.users, nil, nil)
	f.svc = NewService(reader, validator, writer)
	return f
}

func TestSave_ValidSubmission(t *testing.T) {
	f := newServiceFixture(nil)
	r := validResource()
	r.ID = 0

	id, res, err := f.svc.Save(context.Background(), r)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, SingletonID, id)
	assert.Equal(t, "8989", f.files.fields[KeyPort])
	assert.Equal(t, "*", f.service.fields[KeyBindAddress])
	assert.Equal(t, "admin", f.files.fields[KeyUsers])
}

func TestSave_InvalidPersistsNothing(t *testing.T) {
	f := newServiceFixture(nil)
	r := validResource()
	r.Port = 0

	id, res, err := f.svc.Save(context.Background(), r)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.True(t, res.Has(FieldPort))
	assert.Empty(t, f.files.fields)
	assert.Empty(t, f.service.fields)
	assert.Nil(t, f.users.reconciled)
}

func TestSave_MaskedPasswordKeepsStoredValue(t *testing.T) {
	f := newServiceFixture(map[string]string{KeySSLCertPassword: "hunter2"})

	snap, err := f.svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, SecretMask, snap.SSLCertPassword)

	r := validResource()
	r.SSLCertPassword = snap.SSLCertPassword
	_, res, err := f.svc.Save(context.Background(), r)
	require.NoError(t, err)
	require.True(t, res.Valid())
	assert.Equal(t, "hunter2", f.files.fields[KeySSLCertPassword])
}

func TestSave_NewPasswordReplacesStoredValue(t *testing.T) {
	f := newServiceFixture(map[string]string{KeySSLCertPassword: "hunter2"})
	r := validResource()
	r.SSLCertPassword = "changed"
	_, _, err := f.svc.Save(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "changed", f.files.fields[KeySSLCertPassword])
}

func TestSave_CanonicalizesEnumCase(t *testing.T) {
	f := newServiceFixture(nil)
	r := validResource()
	r.AuthenticationMethod = "Forms"
	r.Users = []UserEntry{{Username: "", Password: "", PasswordConfirmation: ""}}

	_, res, err := f.svc.Save(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, res.Has(UserField(0, "username")))
	assert.Equal(t, AuthenticationMethod("Forms"), r.AuthenticationMethod, "input must not be modified")
}

func TestValidate_ThroughServiceDoesNotPersist(t *testing.T) {
	f := newServiceFixture(nil)
	res, err := f.svc.Validate(context.Background(), validResource())
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.Empty(t, f.files.fields)
}

func TestSave_SavedValuesReadBack(t *testing.T) {
	f := newServiceFixture(nil)
	r := validResource()
	r.Port = 7000
	r.URLBase = "/tv"
	_, _, err := f.svc.Save(context.Background(), r)
	require.NoError(t, err)

	snap, err := f.svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7000, snap.Port)
	assert.Equal(t, "/tv", snap.URLBase)
}
