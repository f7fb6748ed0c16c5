package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "config.ini"))

	fields, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestFileStore_SaveFieldsMerges(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "config.ini")
	s := NewFileStore(path)

	require.NoError(t, s.SaveFields(ctx, map[string]string{"Port": "8989", "BindAddress": "*"}))
	require.NoError(t, s.SaveFields(ctx, map[string]string{"Port": "9000", "Branch": "main"}))

	fields, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Port":        "9000",
		"BindAddress": "*",
		"Branch":      "main",
	}, fields)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_SpecialCharactersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "config.ini"))

	values := map[string]string{
		"SslCertPassword": "p#ss;word = x",
		"UrlBase":         "/sonarr",
		"BackupFolder":    "/var/backups/sonarr",
	}
	require.NoError(t, s.SaveFields(ctx, values))

	fields, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, values, fields)
}

func TestFileStore_ReplaceFields(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "config.ini"))

	require.NoError(t, s.SaveFields(ctx, map[string]string{"Port": "8989", "Branch": "develop"}))
	require.NoError(t, s.ReplaceFields(ctx, map[string]string{"Port": "7878"}))

	fields, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Port": "7878"}, fields)
}

func TestFileStore_SaveFieldsHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewFileStore(filepath.Join(t.TempDir(), "config.ini"))
	assert.ErrorIs(t, s.SaveFields(ctx, map[string]string{"Port": "1"}), context.Canceled)
}

func TestFileStore_FreeTextValuesRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"plain", "hunter2"},
		{"empty", ""},
		{"surrounding double quotes", `"quoted"`},
		{"triple quotes", `"""`},
		{"single double quote", `pa"ss`},
		{"surrounding single quotes", `'quoted'`},
		{"backticks", "`cmd` and `more`"},
		{"lone backtick", "`"},
		{"leading and trailing spaces", "  padded  "},
		{"newline", "line1\nline2"},
		{"carriage return and tab", "a\r\n\tb"},
		{"trailing backslash", `C:\certs\`},
		{"escape lookalike", `\n is not a newline`},
		{"comment characters", "#not;a comment"},
		{"unicode", "pässwörd ✓"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s := NewFileStore(filepath.Join(t.TempDir(), "config.ini"))

			require.NoError(t, s.SaveFields(ctx, map[string]string{
				"SslCertPassword": tc.value,
				"Port":            "8989",
			}))
			fields, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.value, fields["SslCertPassword"])
			assert.Equal(t, "8989", fields["Port"])

			// A later merge must still parse the file
			require.NoError(t, s.SaveFields(ctx, map[string]string{"Branch": "main"}))
			fields, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.value, fields["SslCertPassword"])
		})
	}
}

func TestFileStore_PlainValuesStayReadable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.ini")
	s := NewFileStore(path)

	require.NoError(t, s.SaveFields(ctx, map[string]string{"Port": "8989", "UrlBase": "/tv"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "8989")
	assert.Contains(t, string(data), "/tv")
	assert.NotContains(t, string(data), `"`)
}

func TestFileStore_LoadsHandEditedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	content := "[HostConfig]\nBranch = develop\nInstanceName = \"My Sonarr\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	fields, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "develop", fields["Branch"])
	assert.Equal(t, "My Sonarr", fields["InstanceName"])
}
