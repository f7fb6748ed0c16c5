package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/ini.v1"
)

// FileSection is the INI section holding host configuration keys
const FileSection = "HostConfig"

// FileStore keeps host configuration fields in an INI file
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Load returns every stored field; a missing file yields an empty map
func (s *FileStore) Load(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	raw := f.Section(FileSection).KeysHash()
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = decodeValue(v)
	}
	return out, nil
}

// SaveFields merges fields into the file
func (s *FileStore) SaveFields(ctx context.Context, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	sec := f.Section(FileSection)
	for k, v := range fields {
		sec.Key(k).SetValue(encodeValue(v))
	}
	return s.write(f)
}

// ReplaceFields overwrites the section so it holds exactly fields
func (s *FileStore) ReplaceFields(ctx context.Context, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	f.DeleteSection(FileSection)
	sec := f.Section(FileSection)
	for k, v := range fields {
		sec.Key(k).SetValue(encodeValue(v))
	}
	return s.write(f)
}

func (s *FileStore) open() (*ini.File, error) {
	opts := ini.LoadOptions{
		IgnoreInlineComment: true,
		// Quoted values are decoded by decodeValue
		PreserveSurroundedQuote: true,
	}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return ini.LoadSources(opts, []byte{})
	}
	f, err := ini.LoadSources(opts, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", s.path, err)
	}
	return f, nil
}

// write replaces the file through a temp file in the same directory
func (s *FileStore) write(f *ini.File) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".hostconfig-*.ini")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp config file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to set config file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// encodeValue writes values ini cannot hold verbatim as a Go quoted string.
// Backticks are escaped too, so ini never wraps the result in its own quotes.
func encodeValue(v string) string {
	if !needsQuoting(v) {
		return v
	}
	return strings.ReplaceAll(strconv.Quote(v), "`", `\x60`)
}

// decodeValue reverses encodeValue. Values that are not a valid quoted
// string, such as hand-edited ones, are returned unchanged.
func decodeValue(v string) string {
	if len(v) < 2 || v[0] != '"' {
		return v
	}
	if unquoted, err := strconv.Unquote(v); err == nil {
		return unquoted
	}
	return v
}

func needsQuoting(v string) bool {
	if v == "" {
		return false
	}
	if strings.TrimSpace(v) != v {
		return true
	}
	if strings.ContainsAny(v, "\"`\\'") {
		return true
	}
	return strings.IndexFunc(v, unicode.IsControl) >= 0
}
