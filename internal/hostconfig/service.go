package hostconfig

import (
	"context"
	"fmt"
)

// Service is the entry point used by the HTTP layer
type Service struct {
	reader    *Reader
	validator *Validator
	writer    *Writer
}

// NewService wires the reader, rule engine and writer together
func NewService(reader *Reader, validator *Validator, writer *Writer) *Service {
	return &Service{reader: reader, validator: validator, writer: writer}
}

// Get returns the display-safe snapshot
func (s *Service) Get(ctx context.Context) (*Resource, error) {
	return s.reader.ReadSnapshot(ctx)
}

// Validate checks r without persisting anything
func (s *Service) Validate(ctx context.Context, r *Resource) (Result, error) {
	resolved, err := s.resolveSecrets(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(ctx, resolved)
}

// Save validates r and commits it when valid. A non-empty Result means
// nothing was persisted.
func (s *Service) Save(ctx context.Context, r *Resource) (int, Result, error) {
	resolved, err := s.resolveSecrets(ctx, r)
	if err != nil {
		return 0, nil, err
	}
	res, err := s.validator.Validate(ctx, resolved)
	if err != nil {
		return 0, nil, err
	}
	if !res.Valid() {
		return 0, res, nil
	}
	id, err := s.writer.Commit(ctx, resolved)
	if err != nil {
		return 0, nil, err
	}
	return id, nil, nil
}

// resolveSecrets returns a copy of r with masked secrets replaced by the
// stored values, enum names canonicalized and the singleton identifier set
func (s *Service) resolveSecrets(ctx context.Context, r *Resource) (*Resource, error) {
	out := *r
	out.ID = SingletonID
	out.Users = append([]UserEntry(nil), r.Users...)
	if m, err := ParseAuthenticationMethod(string(out.AuthenticationMethod)); err == nil {
		out.AuthenticationMethod = m
	}
	if m, err := ParseUpdateMechanism(string(out.UpdateMechanism)); err == nil {
		out.UpdateMechanism = m
	}
	if out.SSLCertPassword != SecretMask {
		return &out, nil
	}
	stored, err := s.reader.readStored(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stored secrets: %w", err)
	}
	out.SSLCertPassword = stored.SSLCertPassword
	return &out, nil
}
