package hostconfig

import (
	"strconv"
	"strings"
)

// Persisted keys. They keep the names already used in existing config files.
const (
	KeyBindAddress          = "BindAddress"
	KeyPort                 = "Port"
	KeySSLPort              = "SslPort"
	KeyEnableSSL            = "EnableSsl"
	KeyLaunchBrowser        = "LaunchBrowser"
	KeyAuthenticationMethod = "AuthenticationMethod"
	KeyAnalyticsEnabled     = "AnalyticsEnabled"
	KeyUsers                = "Users"
	KeyLogLevel             = "LogLevel"
	KeyBranch               = "Branch"
	KeySSLCertPath          = "SslCertPath"
	KeySSLCertPassword      = "SslCertPassword"
	KeyURLBase              = "UrlBase"
	KeyInstanceName         = "InstanceName"
	KeyUpdateAutomatically  = "UpdateAutomatically"
	KeyUpdateMechanism      = "UpdateMechanism"
	KeyUpdateScriptPath     = "UpdateScriptPath"
	KeyBackupFolder         = "BackupFolder"
	KeyBackupInterval       = "BackupInterval"
	KeyBackupRetention      = "BackupRetention"
)

// field maps one Resource field to its persisted key
type field struct {
	key string
	get func(*Resource) string
	// set is nil for fields that are written but never read back
	set func(*Resource, string) error
}

func stringField(key string, p func(*Resource) *string) field {
	return field{
		key: key,
		get: func(r *Resource) string { return *p(r) },
		set: func(r *Resource, v string) error { *p(r) = v; return nil },
	}
}

func intField(key string, p func(*Resource) *int) field {
	return field{
		key: key,
		get: func(r *Resource) string { return strconv.Itoa(*p(r)) },
		set: func(r *Resource, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*p(r) = n
			return nil
		},
	}
}

func boolField(key string, p func(*Resource) *bool) field {
	return field{
		key: key,
		get: func(r *Resource) string { return strconv.FormatBool(*p(r)) },
		set: func(r *Resource, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*p(r) = b
			return nil
		},
	}
}

// fields lists every persisted Resource field. ID is fixed and not persisted.
var fields = []field{
	stringField(KeyBindAddress, func(r *Resource) *string { return &r.BindAddress }),
	intField(KeyPort, func(r *Resource) *int { return &r.Port }),
	intField(KeySSLPort, func(r *Resource) *int { return &r.SSLPort }),
	boolField(KeyEnableSSL, func(r *Resource) *bool { return &r.EnableSSL }),
	boolField(KeyLaunchBrowser, func(r *Resource) *bool { return &r.LaunchBrowser }),
	{
		key: KeyAuthenticationMethod,
		get: func(r *Resource) string { return string(r.AuthenticationMethod) },
		set: func(r *Resource, v string) error {
			m, err := ParseAuthenticationMethod(v)
			if err != nil {
				return err
			}
			r.AuthenticationMethod = m
			return nil
		},
	},
	boolField(KeyAnalyticsEnabled, func(r *Resource) *bool { return &r.AnalyticsEnabled }),
	{
		// Only usernames: credentials live in the user store.
		key: KeyUsers,
		get: func(r *Resource) string {
			names := make([]string, 0, len(r.Users))
			for _, u := range r.Users {
				names = append(names, u.Username)
			}
			return strings.Join(names, ",")
		},
	},
	stringField(KeyLogLevel, func(r *Resource) *string { return &r.LogLevel }),
	stringField(KeyBranch, func(r *Resource) *string { return &r.Branch }),
	stringField(KeySSLCertPath, func(r *Resource) *string { return &r.SSLCertPath }),
	stringField(KeySSLCertPassword, func(r *Resource) *string { return &r.SSLCertPassword }),
	stringField(KeyURLBase, func(r *Resource) *string { return &r.URLBase }),
	stringField(KeyInstanceName, func(r *Resource) *string { return &r.InstanceName }),
	boolField(KeyUpdateAutomatically, func(r *Resource) *bool { return &r.UpdateAutomatically }),
	{
		key: KeyUpdateMechanism,
		get: func(r *Resource) string { return string(r.UpdateMechanism) },
		set: func(r *Resource, v string) error {
			m, err := ParseUpdateMechanism(v)
			if err != nil {
				return err
			}
			r.UpdateMechanism = m
			return nil
		},
	},
	stringField(KeyUpdateScriptPath, func(r *Resource) *string { return &r.UpdateScriptPath }),
	stringField(KeyBackupFolder, func(r *Resource) *string { return &r.BackupFolder }),
	intField(KeyBackupInterval, func(r *Resource) *int { return &r.BackupInterval }),
	intField(KeyBackupRetention, func(r *Resource) *int { return &r.BackupRetention }),
}

// Flatten returns the persisted key/value form of r
func Flatten(r *Resource) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.key] = f.get(r)
	}
	return out
}

// apply copies stored values onto r. Keys that fail to parse are returned
// and leave the current value in place.
func apply(r *Resource, stored map[string]string) map[string]error {
	var bad map[string]error
	for _, f := range fields {
		if f.set == nil {
			continue
		}
		v, ok := stored[f.key]
		if !ok {
			continue
		}
		if err := f.set(r, v); err != nil {
			if bad == nil {
				bad = make(map[string]error)
			}
			bad[f.key] = err
		}
	}
	return bad
}
