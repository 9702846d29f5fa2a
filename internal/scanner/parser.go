package scanner

import (
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/certwatch-app/cw-certcheck/internal/failure"
)

// ParseError reports a certificate that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse certificate: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes a DER certificate into CertificateFacts.
func Parse(der []byte) (*CertificateFacts, error) {
	if len(der) == 0 {
		return nil, &ParseError{Err: failure.ErrNoCertificate}
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		if strings.Contains(err.Error(), "version") {
			return nil, &ParseError{Err: fmt.Errorf("%w: %v", failure.ErrInvalidVersion, err)}
		}
		return nil, &ParseError{Err: fmt.Errorf("%w: %v", failure.ErrInvalidCertificate, err)}
	}

	return factsFrom(cert), nil
}

func factsFrom(cert *x509.Certificate) *CertificateFacts {
	return &CertificateFacts{
		Subject:          cert.Subject.String(),
		Issuer:           cert.Issuer.String(),
		IssuerCommonName: cert.Issuer.CommonName,
		ValidFrom:        cert.NotBefore.UTC().Format(TimestampLayout),
		ValidTo:          cert.NotAfter.UTC().Format(TimestampLayout),
		NotBefore:        cert.NotBefore.UTC(),
		NotAfter:         cert.NotAfter.UTC(),
	}
}
