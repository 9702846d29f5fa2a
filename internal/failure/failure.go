// Package failure maps probe errors to stable, user-facing categories.
package failure

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
)

// Certificate-level errors produced by the scanner.
var (
	ErrInvalidVersion         = errors.New("invalid X.509 version")
	ErrInvalidCertificate     = errors.New("invalid certificate")
	ErrNoCertificate          = errors.New("failed to retrieve certificate")
	ErrCertificateExpired     = errors.New("certificate has expired")
	ErrCertificateNotYetValid = errors.New("certificate is not yet valid")
)

// Kind is one category of the failure taxonomy.
type Kind int

// Failure kinds. KindUnexpected is the zero value so an unmatched error is never unclassified.
const (
	KindUnexpected Kind = iota
	KindCancelled
	KindInvalidVersion
	KindInvalidCertificate
	KindCertificateExpired
	KindCertificateNotYetValid
	KindSSL
	KindTimeout
	KindDNS
	KindConnectionRefused
	KindConnectionReset
	KindConnectionAborted
	KindConnection
	KindPermission
	KindMemory
	KindFileNotFound
	KindIO
	KindSocket
	KindOS
	KindType
	KindKey
	KindIndex
	KindAttribute
	KindRuntime
)

var kindInfo = map[Kind]struct {
	message   string
	label     string
	transient bool
}{
	KindUnexpected:             {"Unexpected Error", "unexpected", false},
	KindCancelled:              {"Operation Cancelled", "cancelled", false},
	KindInvalidVersion:         {"Invalid X.509 version", "invalid_version", false},
	KindInvalidCertificate:     {"Invalid certificate", "invalid_certificate", false},
	KindCertificateExpired:     {"Certificate Expired", "certificate_expired", false},
	KindCertificateNotYetValid: {"Certificate Not Yet Valid", "certificate_not_yet_valid", false},
	KindSSL:                    {"SSL Certificate Error", "ssl", false},
	KindTimeout:                {"Connection Timeout: The server took too long to respond.", "timeout", true},
	KindDNS:                    {"DNS Resolution Error", "dns", true},
	KindConnectionRefused:      {"Connection Refused", "connection_refused", true},
	KindConnectionReset:        {"Connection Reset", "connection_reset", true},
	KindConnectionAborted:      {"Connection Aborted", "connection_aborted", true},
	KindConnection:             {"Connection Error", "connection", true},
	KindPermission:             {"Permission Error", "permission", false},
	KindMemory:                 {"Memory Error: Not enough memory to complete the operation.", "memory", false},
	KindFileNotFound:           {"File Not Found Error", "file_not_found", false},
	KindIO:                     {"IO Error", "io", false},
	KindSocket:                 {"Socket Error", "socket", true},
	KindOS:                     {"OS Error", "os", false},
	KindType:                   {"Type Error", "type", false},
	KindKey:                    {"Key Error", "key", false},
	KindIndex:                  {"Index Error", "index", false},
	KindAttribute:              {"Attribute Error", "attribute", false},
	KindRuntime:                {"Runtime Error", "runtime", false},
}

// Message returns the user-facing category text.
func (k Kind) Message() string {
	if info, ok := kindInfo[k]; ok {
		return info.message
	}
	return kindInfo[KindUnexpected].message
}

// Label returns a short identifier suitable for metric labels.
func (k Kind) Label() string {
	if info, ok := kindInfo[k]; ok {
		return info.label
	}
	return kindInfo[KindUnexpected].label
}

// Transient reports whether failures of this kind may succeed on a later attempt.
func (k Kind) Transient() bool {
	return kindInfo[k].transient
}

func (k Kind) String() string {
	return k.Label()
}

// PanicError carries a value recovered from a panicking probe.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Unwrap exposes the recovered value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type rule struct {
	match func(err error, msg string) bool
	kind  Kind
}

// rules is evaluated top to bottom; the first match wins.
var rules = []rule{
	{kind: KindCancelled, match: func(err error, _ string) bool {
		return errors.Is(err, context.Canceled)
	}},
	{kind: KindInvalidVersion, match: func(err error, _ string) bool {
		return errors.Is(err, ErrInvalidVersion)
	}},
	{kind: KindInvalidCertificate, match: func(err error, _ string) bool {
		return errors.Is(err, ErrInvalidCertificate)
	}},
	{kind: KindCertificateExpired, match: func(err error, _ string) bool {
		return errors.Is(err, ErrCertificateExpired)
	}},
	{kind: KindCertificateNotYetValid, match: func(err error, _ string) bool {
		return errors.Is(err, ErrCertificateNotYetValid)
	}},
	{kind: KindSSL, match: isTLSError},
	{kind: KindTimeout, match: isTimeout},
	{kind: KindDNS, match: func(err error, msg string) bool {
		var dnsErr *net.DNSError
		return errors.As(err, &dnsErr) ||
			strings.Contains(msg, "no address associated with hostname") ||
			strings.Contains(msg, "no such host")
	}},
	{kind: KindConnectionRefused, match: func(err error, _ string) bool {
		return errors.Is(err, syscall.ECONNREFUSED)
	}},
	{kind: KindConnectionReset, match: func(err error, _ string) bool {
		return errors.Is(err, syscall.ECONNRESET)
	}},
	{kind: KindConnectionAborted, match: func(err error, _ string) bool {
		return errors.Is(err, syscall.ECONNABORTED)
	}},
	{kind: KindConnection, match: func(err error, _ string) bool {
		return errors.Is(err, syscall.EHOSTUNREACH) ||
			errors.Is(err, syscall.ENETUNREACH) ||
			errors.Is(err, syscall.EPIPE) ||
			errors.Is(err, io.EOF) ||
			errors.Is(err, io.ErrUnexpectedEOF) ||
			errors.Is(err, net.ErrClosed)
	}},
	{kind: KindPermission, match: func(err error, _ string) bool {
		return errors.Is(err, os.ErrPermission)
	}},
	{kind: KindMemory, match: func(err error, msg string) bool {
		return errors.Is(err, syscall.ENOMEM) ||
			errors.Is(err, syscall.ENOBUFS) ||
			strings.Contains(msg, "out of memory")
	}},
	{kind: KindFileNotFound, match: func(err error, _ string) bool {
		return errors.Is(err, os.ErrNotExist)
	}},
	{kind: KindIO, match: func(err error, _ string) bool {
		var pathErr *os.PathError
		return errors.As(err, &pathErr)
	}},
	{kind: KindSocket, match: func(err error, _ string) bool {
		var opErr *net.OpError
		return errors.As(err, &opErr)
	}},
	{kind: KindOS, match: func(err error, _ string) bool {
		var errno syscall.Errno
		var sysErr *os.SyscallError
		return errors.As(err, &errno) || errors.As(err, &sysErr)
	}},
	{kind: KindType, match: panicMatching("interface conversion", "type assertion")},
	{kind: KindKey, match: panicMatching("nil map", "key not found")},
	{kind: KindIndex, match: panicMatching("index out of range", "slice bounds out of range")},
	{kind: KindAttribute, match: panicMatching("nil pointer dereference", "invalid memory address")},
	{kind: KindRuntime, match: func(err error, _ string) bool {
		var p *PanicError
		return errors.As(err, &p)
	}},
}

// KindOf returns the first kind whose rule matches err, or KindUnexpected.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnexpected
	}
	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		if r.match(err, msg) {
			return r.kind
		}
	}
	return KindUnexpected
}

// Classify returns the category text for err. It returns "" only for a nil error.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	switch kind := KindOf(err); kind {
	case KindUnexpected:
		return kind.Message() + ": " + err.Error()
	case KindOS:
		return kind.Message() + ": " + rootCause(err).Error()
	default:
		return kind.Message()
	}
}

func isTLSError(err error, msg string) bool {
	var (
		recordErr  tls.RecordHeaderError
		alertErr   tls.AlertError
		verifyErr  *tls.CertificateVerificationError
		invalidErr x509.CertificateInvalidError
		hostErr    x509.HostnameError
		authErr    x509.UnknownAuthorityError
	)
	if errors.As(err, &recordErr) || errors.As(err, &alertErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &invalidErr) || errors.As(err, &hostErr) || errors.As(err, &authErr) {
		return true
	}
	return strings.Contains(msg, "tls: ") || strings.HasPrefix(msg, "x509: ")
}

func isTimeout(err error, msg string) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(msg, "i/o timeout")
}

func panicMatching(fragments ...string) func(error, string) bool {
	return func(err error, msg string) bool {
		var p *PanicError
		if !errors.As(err, &p) {
			return false
		}
		for _, f := range fragments {
			if strings.Contains(msg, f) {
				return true
			}
		}
		return false
	}
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
