// Package hostconfig validates, reads and commits the host configuration:
// networking, authentication, SSL, update and backup settings plus the
// list of users allowed to log in.
package hostconfig

import (
	"context"
	"fmt"
	"strings"
)

// SingletonID is the identifier of the one host configuration
const SingletonID = 1

// SecretMask replaces stored secrets in snapshots. Submitting it back keeps
// the stored value.
const SecretMask = "********"

// AuthenticationMethod selects how users log into the web UI
type AuthenticationMethod string

const (
	AuthNone  AuthenticationMethod = "none"
	AuthBasic AuthenticationMethod = "basic"
	AuthForms AuthenticationMethod = "forms"
)

// RequiresCredentials reports whether users must have a username and password
func (m AuthenticationMethod) RequiresCredentials() bool {
	return m == AuthBasic || m == AuthForms
}

// UpdateMechanism selects how application updates are installed
type UpdateMechanism string

const (
	UpdateBuiltIn  UpdateMechanism = "builtIn"
	UpdateScript   UpdateMechanism = "script"
	UpdateExternal UpdateMechanism = "external"
	UpdateApt      UpdateMechanism = "apt"
	UpdateDocker   UpdateMechanism = "docker"
)

var (
	authMethods      = []AuthenticationMethod{AuthNone, AuthBasic, AuthForms}
	updateMechanisms = []UpdateMechanism{UpdateBuiltIn, UpdateScript, UpdateExternal, UpdateApt, UpdateDocker}
)

// ParseAuthenticationMethod parses a method name case-insensitively
func ParseAuthenticationMethod(s string) (AuthenticationMethod, error) {
	for _, m := range authMethods {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown authentication method %q", s)
}

// ParseUpdateMechanism parses a mechanism name case-insensitively
func ParseUpdateMechanism(s string) (UpdateMechanism, error) {
	for _, m := range updateMechanisms {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown update mechanism %q", s)
}

// Resource is the host configuration as exchanged with the admin client
type Resource struct {
	ID                   int                  `json:"id"`
	BindAddress          string               `json:"bindAddress"`
	Port                 int                  `json:"port"`
	SSLPort              int                  `json:"sslPort"`
	EnableSSL            bool                 `json:"enableSsl"`
	LaunchBrowser        bool                 `json:"launchBrowser"`
	AuthenticationMethod AuthenticationMethod `json:"authenticationMethod"`
	AnalyticsEnabled     bool                 `json:"analyticsEnabled"`
	Users                []UserEntry          `json:"users"`
	LogLevel             string               `json:"logLevel"`
	Branch               string               `json:"branch"`
	SSLCertPath          string               `json:"sslCertPath"`
	SSLCertPassword      string               `json:"sslCertPassword"`
	URLBase              string               `json:"urlBase"`
	InstanceName         string               `json:"instanceName"`
	UpdateAutomatically  bool                 `json:"updateAutomatically"`
	UpdateMechanism      UpdateMechanism      `json:"updateMechanism"`
	UpdateScriptPath     string               `json:"updateScriptPath"`
	BackupFolder         string               `json:"backupFolder"`
	BackupInterval       int                  `json:"backupInterval"`
	BackupRetention      int                  `json:"backupRetention"`
}

// UserEntry is one login identity inside a Resource.
// Password carries the stored value on read and the submitted value on write.
type UserEntry struct {
	Identifier           string `json:"identifier"`
	Username             string `json:"username"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// Defaults returns the configuration used for keys that were never stored
func Defaults(productName string) Resource {
	return Resource{
		ID:                   SingletonID,
		BindAddress:          "*",
		Port:                 8989,
		SSLPort:              9898,
		AuthenticationMethod: AuthNone,
		LogLevel:             "info",
		Branch:               "main",
		InstanceName:         productName,
		UpdateMechanism:      UpdateBuiltIn,
		BackupFolder:         "Backups",
		BackupInterval:       7,
		BackupRetention:      28,
	}
}

type actorKey struct{}

// WithActor records who submitted a configuration change
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by WithActor
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
