package hostconfig

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

// Field names used in Result
const (
	FieldBindAddress          = "bindAddress"
	FieldPort                 = "port"
	FieldURLBase              = "urlBase"
	FieldInstanceName         = "instanceName"
	FieldAuthenticationMethod = "authenticationMethod"
	FieldUsers                = "users"
	FieldSSLPort              = "sslPort"
	FieldSSLCertPath          = "sslCertPath"
	FieldBranch               = "branch"
	FieldUpdateMechanism      = "updateMechanism"
	FieldUpdateScriptPath     = "updateScriptPath"
	FieldBackupFolder         = "backupFolder"
	FieldBackupInterval       = "backupInterval"
	FieldBackupRetention      = "backupRetention"
)

// UserField names a field of the i-th submitted user
func UserField(i int, name string) string {
	return fmt.Sprintf("%s[%d].%s", FieldUsers, i, name)
}

// CertVerifier loads a certificate file with its passphrase
type CertVerifier interface {
	Verify(path, passphrase string) bool
}

// rule validates one concern and records failures in res.
// Only infrastructure failures are returned as errors.
type rule func(ctx context.Context, r *Resource, res Result) error

// Validator runs every host configuration rule
type Validator struct {
	productName string
	users       UserLookup
	certs       CertVerifier
	logger      *logrus.Entry
	rules       []rule
}

// NewValidator creates the rule engine
func NewValidator(productName string, users UserLookup, certs CertVerifier, logger *logrus.Entry) *Validator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	v := &Validator{
		productName: productName,
		users:       users,
		certs:       certs,
		logger:      logger.WithField("component", "hostconfig-validator"),
	}
	v.rules = []rule{
		v.bindAddress,
		v.port,
		v.urlBase,
		v.instanceName,
		v.authenticationMethod,
		v.userCredentials,
		v.userConfirmations,
		v.userList,
		v.sslPort,
		v.sslCertPath,
		v.branch,
		v.updateScriptPath,
		v.backupFolder,
		v.backupSchedule,
	}
	return v
}

// Validate evaluates every rule against r without modifying it
func (v *Validator) Validate(ctx context.Context, r *Resource) (Result, error) {
	res := Result{}
	for _, rl := range v.rules {
		if err := rl(ctx, r, res); err != nil {
			return nil, err
		}
	}
	if !res.Valid() {
		v.logger.WithField("fields", res.Fields()).Debug("Host configuration rejected")
	}
	return res, nil
}

func (v *Validator) bindAddress(_ context.Context, r *Resource, res Result) error {
	if r.BindAddress == "*" || r.BindAddress == "localhost" {
		return nil
	}
	ip := net.ParseIP(r.BindAddress)
	if ip == nil {
		res.Add(FieldBindAddress, "Enter a valid IP address or '*'")
		return nil
	}
	if ip.Equal(net.IPv4zero) {
		res.Add(FieldBindAddress, "Use * instead of 0.0.0.0 to listen on all interfaces")
	}
	return nil
}

func (v *Validator) port(_ context.Context, r *Resource, res Result) error {
	if !validPort(r.Port) {
		res.Add(FieldPort, portMessage)
	}
	return nil
}

func (v *Validator) urlBase(_ context.Context, r *Resource, res Result) error {
	if !validURLBase(r.URLBase) {
		res.Add(FieldURLBase, fmt.Sprintf("Must be a valid URL path (ie: '/%s')", strings.ToLower(v.productName)))
	}
	return nil
}

func (v *Validator) instanceName(_ context.Context, r *Resource, res Result) error {
	name := strings.ToLower(strings.TrimSpace(r.InstanceName))
	product := strings.ToLower(v.productName)
	if !strings.HasPrefix(name, product) && !strings.HasSuffix(name, product) {
		res.Add(FieldInstanceName, fmt.Sprintf("Must start or end with '%s'", v.productName))
	}
	return nil
}

func (v *Validator) authenticationMethod(_ context.Context, r *Resource, res Result) error {
	if _, err := ParseAuthenticationMethod(string(r.AuthenticationMethod)); err != nil {
		res.Add(FieldAuthenticationMethod, "Must be one of none, basic or forms")
	}
	return nil
}

func (v *Validator) userCredentials(_ context.Context, r *Resource, res Result) error {
	if !r.AuthenticationMethod.RequiresCredentials() {
		return nil
	}
	for i, u := range r.Users {
		if strings.TrimSpace(u.Username) == "" {
			res.Add(UserField(i, "username"), "Username is required")
		}
		if u.Password == "" {
			res.Add(UserField(i, "password"), "Password is required")
		}
	}
	return nil
}

func (v *Validator) userConfirmations(ctx context.Context, r *Resource, res Result) error {
	for i, u := range r.Users {
		ok, err := PasswordAcceptable(ctx, u, v.users)
		if err != nil {
			return err
		}
		if !ok {
			res.Add(UserField(i, "passwordConfirmation"), "Must match Password")
		}
	}
	return nil
}

func (v *Validator) userList(_ context.Context, r *Resource, res Result) error {
	if len(r.Users) == 0 {
		res.Add(FieldUsers, "Users must not be empty")
		return nil
	}
	names := make(map[string]struct{}, len(r.Users))
	ids := make(map[string]struct{}, len(r.Users))
	dupName, dupID := false, false
	for _, u := range r.Users {
		name := strings.ToLower(strings.TrimSpace(u.Username))
		if _, dup := names[name]; dup {
			dupName = true
		}
		names[name] = struct{}{}

		// Empty identifiers are new users and get one on save
		if u.Identifier == "" {
			continue
		}
		if _, dup := ids[u.Identifier]; dup {
			dupID = true
		}
		ids[u.Identifier] = struct{}{}
	}
	if dupName {
		res.Add(FieldUsers, "Usernames must be unique")
	}
	if dupID {
		res.Add(FieldUsers, "Users must have distinct identifiers")
	}
	return nil
}

func (v *Validator) sslPort(_ context.Context, r *Resource, res Result) error {
	if !r.EnableSSL {
		return nil
	}
	if !validPort(r.SSLPort) {
		res.Add(FieldSSLPort, portMessage)
	}
	if r.SSLPort == r.Port {
		res.Add(FieldSSLPort, "SSL Port must differ from Port")
	}
	return nil
}

func (v *Validator) sslCertPath(_ context.Context, r *Resource, res Result) error {
	if !r.EnableSSL {
		return nil
	}
	path := r.SSLCertPath
	res.cascade(FieldSSLCertPath,
		func() (string, bool) {
			return "SSL Certificate Path is required when SSL is enabled", strings.TrimSpace(path) != ""
		},
		func() (string, bool) {
			return "Must be a valid path", validPath(path)
		},
		func() (string, bool) {
			return "SSL Certificate file does not exist", fileExists(path)
		},
		func() (string, bool) {
			return "Invalid SSL certificate file or password", v.certs.Verify(path, r.SSLCertPassword)
		},
	)
	return nil
}

func (v *Validator) branch(_ context.Context, r *Resource, res Result) error {
	if strings.TrimSpace(r.Branch) == "" {
		res.Add(FieldBranch, "Branch name is required, 'main' is the default")
	}
	return nil
}

func (v *Validator) updateScriptPath(_ context.Context, r *Resource, res Result) error {
	if _, err := ParseUpdateMechanism(string(r.UpdateMechanism)); err != nil {
		res.Add(FieldUpdateMechanism, "Unknown update mechanism")
		return nil
	}
	if r.UpdateMechanism == UpdateScript && !validPath(r.UpdateScriptPath) {
		res.Add(FieldUpdateScriptPath, "Must be a valid path")
	}
	return nil
}

func (v *Validator) backupFolder(_ context.Context, r *Resource, res Result) error {
	// Relative folders resolve under the app data directory.
	if filepath.IsAbs(r.BackupFolder) && !validPath(r.BackupFolder) {
		res.Add(FieldBackupFolder, "Must be a valid path")
	}
	return nil
}

func (v *Validator) backupSchedule(_ context.Context, r *Resource, res Result) error {
	if r.BackupInterval < 1 || r.BackupInterval > 7 {
		res.Add(FieldBackupInterval, "Must be between 1 and 7")
	}
	if r.BackupRetention < 1 || r.BackupRetention > 90 {
		res.Add(FieldBackupRetention, "Must be between 1 and 90")
	}
	return nil
}

const portMessage = "Must be a valid port between 1 and 65535"

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// validURLBase accepts "" or a rooted path without a trailing slash
func validURLBase(base string) bool {
	if base == "" {
		return true
	}
	if !strings.HasPrefix(base, "/") || strings.HasSuffix(base, "/") || strings.HasPrefix(base, "//") {
		return false
	}
	if strings.IndexFunc(base, unicode.IsSpace) >= 0 {
		return false
	}
	u, err := url.Parse(base)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && u.RawQuery == "" && u.Fragment == "" && u.Path == base
}

// validPath accepts absolute paths free of control characters
func validPath(p string) bool {
	if strings.TrimSpace(p) == "" || !filepath.IsAbs(p) {
		return false
	}
	return strings.IndexFunc(p, unicode.IsControl) < 0
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
