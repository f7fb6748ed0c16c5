package cert

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"software.sslmate.com/src/go-pkcs12"
)

// CertStatus is the outcome of loading a certificate file
type CertStatus int

const (
	CertValid CertStatus = iota
	CertFileMissing
	CertBadFormat
	CertBadPassphrase
)

func (s CertStatus) String() string {
	switch s {
	case CertValid:
		return "valid"
	case CertFileMissing:
		return "file_missing"
	case CertBadFormat:
		return "bad_format"
	case CertBadPassphrase:
		return "bad_passphrase"
	default:
		return "unknown"
	}
}

// Verifier loads certificate files supplied for the HTTPS listener
type Verifier struct {
	logger *logrus.Entry
}

// NewVerifier creates a certificate verifier
func NewVerifier(logger *logrus.Entry) *Verifier {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Verifier{logger: logger.WithField("component", "cert-verifier")}
}

// Verify reports whether the file at path loads as a certificate with passphrase.
// The cause of a failure is logged, not returned.
func (v *Verifier) Verify(path, passphrase string) bool {
	status, err := Inspect(path, passphrase)
	if status != CertValid {
		v.logger.WithFields(logrus.Fields{
			"path":   path,
			"status": status.String(),
		}).WithError(err).Debug("Certificate rejected")
		return false
	}
	return true
}

// Inspect loads a PKCS#12 bundle or a PEM file and classifies the result.
// PEM certificates are not encrypted, so passphrase only applies to PKCS#12.
func Inspect(path, passphrase string) (CertStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CertFileMissing, err
		}
		return CertBadFormat, err
	}

	if cert := firstPEMCertificate(data); cert != nil {
		return CertValid, nil
	}

	_, cert, _, err := pkcs12.DecodeChain(data, passphrase)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return CertBadPassphrase, err
		}
		return CertBadFormat, err
	}
	if cert == nil {
		return CertBadFormat, errors.New("pkcs12 bundle has no certificate")
	}
	return CertValid, nil
}

func firstPEMCertificate(data []byte) *x509.Certificate {
	if !bytes.Contains(data, []byte("-----BEGIN")) {
		return nil
	}
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil
		}
		return cert
	}
}
