package hostconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go_hostcfg/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const product = "Sonarr"

func validResource() *Resource {
	r := Defaults(product)
	r.Users = []UserEntry{{Username: "admin", Password: "x", PasswordConfirmation: "x"}}
	return &r
}

func newTestValidator(users *memUsers, certs *fakeCerts) *Validator {
	if users == nil {
		users = &memUsers{}
	}
	if certs == nil {
		certs = &fakeCerts{valid: true}
	}
	return NewValidator(product, users, certs, nil)
}

func validate(t *testing.T, v *Validator, r *Resource) Result {
	t.Helper()
	res, err := v.Validate(context.Background(), r)
	require.NoError(t, err)
	return res
}

func TestValidate_DefaultsWithOneUser(t *testing.T) {
	res := validate(t, newTestValidator(nil, nil), validResource())
	assert.True(t, res.Valid(), "unexpected failures: %v", res)
}

func TestValidate_BindAddress(t *testing.T) {
	cases := []struct {
		addr string
		ok   bool
	}{
		{"*", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"192.168.1.20", true},
		{"0.0.0.0", false},
		{"not-an-ip", false},
		{"", false},
	}
	v := newTestValidator(nil, nil)
	for _, tc := range cases {
		r := validResource()
		r.BindAddress = tc.addr
		res := validate(t, v, r)
		assert.Equal(t, !tc.ok, res.Has(FieldBindAddress), "bindAddress %q", tc.addr)
	}

	r := validResource()
	r.BindAddress = "0.0.0.0"
	res := validate(t, v, r)
	assert.Equal(t, []string{"Use * instead of 0.0.0.0 to listen on all interfaces"}, res[FieldBindAddress])
}

func TestValidate_PortBoundaries(t *testing.T) {
	v := newTestValidator(nil, nil)
	for port, ok := range map[int]bool{0: false, 1: true, 8989: true, 65535: true, 65536: false, -1: false} {
		r := validResource()
		r.Port = port
		res := validate(t, v, r)
		assert.Equal(t, !ok, res.Has(FieldPort), "port %d", port)
	}
}

func TestValidate_URLBase(t *testing.T) {
	v := newTestValidator(nil, nil)
	for base, ok := range map[string]bool{
		"":            true,
		"/sonarr":     true,
		"/a/b":        true,
		"sonarr":      false,
		"/sonarr/":    false,
		"//host":      false,
		"/with space": false,
		"/q?x=1":      false,
		"http://x/y":  false,
	} {
		r := validResource()
		r.URLBase = base
		res := validate(t, v, r)
		assert.Equal(t, !ok, res.Has(FieldURLBase), "urlBase %q", base)
	}
}

func TestValidate_InstanceName(t *testing.T) {
	v := newTestValidator(nil, nil)
	for name, ok := range map[string]bool{
		"Sonarr":        true,
		"sonarr 4k":     true,
		"My Sonarr":     true,
		"Radarr":        false,
		"":              false,
		"My Sonarr box": false,
	} {
		r := validResource()
		r.InstanceName = name
		res := validate(t, v, r)
		assert.Equal(t, !ok, res.Has(FieldInstanceName), "instanceName %q", name)
	}
}

func TestValidate_AuthenticationMethodUnknown(t *testing.T) {
	r := validResource()
	r.AuthenticationMethod = "ldap"
	res := validate(t, newTestValidator(nil, nil), r)
	assert.True(t, res.Has(FieldAuthenticationMethod))
}

func TestValidate_CredentialsRequiredOnlyWhenAuthEnabled(t *testing.T) {
	v := newTestValidator(nil, nil)

	r := validResource()
	r.Users = []UserEntry{{Username: "", Password: "", PasswordConfirmation: ""}}
	res := validate(t, v, r)
	assert.False(t, res.Has(UserField(0, "username")))
	assert.False(t, res.Has(UserField(0, "password")))

	r.AuthenticationMethod = AuthForms
	res = validate(t, v, r)
	assert.Equal(t, []string{"Username is required"}, res[UserField(0, "username")])
	assert.Equal(t, []string{"Password is required"}, res[UserField(0, "password")])

	r.AuthenticationMethod = AuthBasic
	r.Users = []UserEntry{{Username: "admin", Password: "pw", PasswordConfirmation: "pw"}}
	res = validate(t, v, r)
	assert.True(t, res.Valid(), "unexpected failures: %v", res)
}

func TestValidate_PasswordConfirmation(t *testing.T) {
	stored := model.User{Identifier: "u-1", Username: "admin", PasswordHash: "$2a$10$storedhash"}
	v := newTestValidator(&memUsers{users: []model.User{stored}}, nil)

	t.Run("mismatch rejected", func(t *testing.T) {
		r := validResource()
		r.Users = []UserEntry{{Username: "admin", Password: "a", PasswordConfirmation: "b"}}
		res := validate(t, v, r)
		assert.Equal(t, []string{"Must match Password"}, res[UserField(0, "passwordConfirmation")])
	})

	t.Run("stored hash passes without confirmation", func(t *testing.T) {
		r := validResource()
		r.Users = []UserEntry{{Identifier: "u-1", Username: "admin", Password: stored.PasswordHash}}
		res := validate(t, v, r)
		assert.True(t, res.Valid(), "unexpected failures: %v", res)
	})

	t.Run("changed password needs confirmation", func(t *testing.T) {
		r := validResource()
		r.Users = []UserEntry{{Identifier: "u-1", Username: "admin", Password: "new"}}
		res := validate(t, v, r)
		assert.True(t, res.Has(UserField(0, "passwordConfirmation")))
	})

	t.Run("failures are reported per user", func(t *testing.T) {
		r := validResource()
		r.Users = []UserEntry{
			{Username: "a", Password: "1", PasswordConfirmation: "1"},
			{Username: "b", Password: "1", PasswordConfirmation: "2"},
		}
		res := validate(t, v, r)
		assert.False(t, res.Has(UserField(0, "passwordConfirmation")))
		assert.True(t, res.Has(UserField(1, "passwordConfirmation")))
	})
}

func TestValidate_LookupErrorIsReturned(t *testing.T) {
	v := newTestValidator(&memUsers{findErr: errBoom}, nil)
	_, err := v.Validate(context.Background(), validResource())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
}

func TestValidate_UserList(t *testing.T) {
	v := newTestValidator(nil, nil)

	r := validResource()
	r.Users = nil
	res := validate(t, v, r)
	assert.Equal(t, []string{"Users must not be empty"}, res[FieldUsers])

	r.Users = []UserEntry{
		{Username: "admin", Password: "x", PasswordConfirmation: "x"},
		{Username: "Admin", Password: "y", PasswordConfirmation: "y"},
	}
	res = validate(t, v, r)
	assert.Equal(t, []string{"Usernames must be unique"}, res[FieldUsers])
}

func TestValidate_DuplicateIdentifiers(t *testing.T) {
	stored := model.User{Identifier: "id-1", Username: "admin", PasswordHash: "hash"}
	v := newTestValidator(&memUsers{users: []model.User{stored}}, nil)

	r := validResource()
	r.Users = []UserEntry{
		{Identifier: "id-1", Username: "admin", Password: "hash"},
		{Identifier: "id-1", Username: "alice", Password: "pw", PasswordConfirmation: "pw"},
	}
	res := validate(t, v, r)
	assert.Equal(t, []string{"Users must have distinct identifiers"}, res[FieldUsers])

	r.Users = []UserEntry{
		{Identifier: "new-1", Username: "bob", Password: "pw", PasswordConfirmation: "pw"},
		{Identifier: "new-1", Username: "carol", Password: "pw", PasswordConfirmation: "pw"},
	}
	res = validate(t, v, r)
	assert.Equal(t, []string{"Users must have distinct identifiers"}, res[FieldUsers])

	// Several new users without identifiers are fine
	r.Users = []UserEntry{
		{Username: "bob", Password: "pw", PasswordConfirmation: "pw"},
		{Username: "carol", Password: "pw", PasswordConfirmation: "pw"},
	}
	res = validate(t, v, r)
	assert.True(t, res.Valid(), "unexpected failures: %v", res)
}

func TestValidate_SSLDisabledSkipsSSLRules(t *testing.T) {
	certs := &fakeCerts{valid: false}
	r := validResource()
	r.EnableSSL = false
	r.SSLPort = r.Port
	r.SSLCertPath = ""
	res := validate(t, newTestValidator(nil, certs), r)
	assert.True(t, res.Valid(), "unexpected failures: %v", res)
	assert.Zero(t, certs.calls)
}

func TestValidate_SSLPort(t *testing.T) {
	certPath := writeTempFile(t)
	v := newTestValidator(nil, nil)

	r := validResource()
	r.EnableSSL = true
	r.SSLCertPath = certPath
	r.SSLPort = r.Port
	res := validate(t, v, r)
	assert.Equal(t, []string{"SSL Port must differ from Port"}, res[FieldSSLPort])

	r.SSLPort = 0
	res = validate(t, v, r)
	assert.Equal(t, []string{portMessage}, res[FieldSSLPort])

	r.SSLPort = 9898
	res = validate(t, v, r)
	assert.True(t, res.Valid(), "unexpected failures: %v", res)
}

func TestValidate_SSLCertPathCascade(t *testing.T) {
	existing := writeTempFile(t)
	missing := filepath.Join(t.TempDir(), "missing.pfx")

	cases := []struct {
		name      string
		path      string
		certValid bool
		want      []string
		calls     int
	}{
		{"empty", "", true, []string{"SSL Certificate Path is required when SSL is enabled"}, 0},
		{"relative", "certs/app.pfx", true, []string{"Must be a valid path"}, 0},
		{"missing file", missing, true, []string{"SSL Certificate file does not exist"}, 0},
		{"unloadable", existing, false, []string{"Invalid SSL certificate file or password"}, 1},
		{"loadable", existing, true, nil, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			certs := &fakeCerts{valid: tc.certValid}
			r := validResource()
			r.EnableSSL = true
			r.SSLCertPath = tc.path
			res := validate(t, newTestValidator(nil, certs), r)
			assert.Equal(t, tc.want, res[FieldSSLCertPath])
			assert.Equal(t, tc.calls, certs.calls)
		})
	}
}

func TestValidate_Branch(t *testing.T) {
	r := validResource()
	r.Branch = "  "
	res := validate(t, newTestValidator(nil, nil), r)
	assert.Equal(t, []string{"Branch name is required, 'main' is the default"}, res[FieldBranch])
}

func TestValidate_UpdateScriptPath(t *testing.T) {
	v := newTestValidator(nil, nil)

	r := validResource()
	r.UpdateMechanism = UpdateScript
	r.UpdateScriptPath = ""
	res := validate(t, v, r)
	assert.True(t, res.Has(FieldUpdateScriptPath))

	r.UpdateScriptPath = "/opt/update.sh"
	res = validate(t, v, r)
	assert.False(t, res.Has(FieldUpdateScriptPath))

	r.UpdateMechanism = UpdateDocker
	r.UpdateScriptPath = ""
	res = validate(t, v, r)
	assert.True(t, res.Valid(), "unexpected failures: %v", res)

	r.UpdateMechanism = "manual"
	res = validate(t, v, r)
	assert.True(t, res.Has(FieldUpdateMechanism))
}

func TestValidate_BackupFolder(t *testing.T) {
	v := newTestValidator(nil, nil)
	for folder, ok := range map[string]bool{
		"Backups":        true,
		"/var/backups":   true,
		"/var/back\x00s": false,
	} {
		r := validResource()
		r.BackupFolder = folder
		res := validate(t, v, r)
		assert.Equal(t, !ok, res.Has(FieldBackupFolder), "backupFolder %q", folder)
	}
}

func TestValidate_BackupScheduleBoundaries(t *testing.T) {
	v := newTestValidator(nil, nil)
	for interval, ok := range map[int]bool{0: false, 1: true, 7: true, 8: false} {
		r := validResource()
		r.BackupInterval = interval
		res := validate(t, v, r)
		assert.Equal(t, !ok, res.Has(FieldBackupInterval), "interval %d", interval)
	}
	for retention, ok := range map[int]bool{0: false, 1: true, 90: true, 91: false} {
		r := validResource()
		r.BackupRetention = retention
		res := validate(t, v, r)
		assert.Equal(t, !ok, res.Has(FieldBackupRetention), "retention %d", retention)
	}
}

func TestValidate_ReportsEveryFailingField(t *testing.T) {
	r := validResource()
	r.Port = 0
	r.BindAddress = "nope"
	r.Branch = ""
	res := validate(t, newTestValidator(nil, nil), r)
	assert.Equal(t, []string{FieldBindAddress, FieldBranch, FieldPort}, res.Fields())
}

func TestValidate_DoesNotModifyInput(t *testing.T) {
	r := validResource()
	r.Port = 0
	before := *r
	before.Users = append([]UserEntry(nil), r.Users...)
	validate(t, newTestValidator(nil, nil), r)
	assert.Equal(t, before, *r)
}

func writeTempFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "app.pfx")
	require.NoError(t, os.WriteFile(p, []byte("placeholder"), 0o600))
	return p
}
