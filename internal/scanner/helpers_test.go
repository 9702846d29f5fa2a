package scanner

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"sync"
	"testing"
	"time"
)

const testIssuerCN = "CertWatch Test Issuer"

// newCertificate returns a self-signed certificate valid between notBefore and notAfter.
func newCertificate(t *testing.T, notBefore, notAfter time.Time) tls.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject:      pkix.Name{CommonName: testIssuerCN, Organization: []string{"CertWatch"}},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}

// serve accepts connections on a loopback listener until the test ends and passes
// each one to handle. It returns the listener address as host:port.
func serve(t *testing.T, ln net.Listener, handle func(net.Conn)) string {
	t.Helper()

	var wg sync.WaitGroup
	t.Cleanup(func() {
		ln.Close()
		wg.Wait()
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				handle(conn)
			}()
		}
	}()

	return ln.Addr().String()
}

// newTLSServer serves a certificate valid between notBefore and notAfter.
func newTLSServer(t *testing.T, notBefore, notAfter time.Time) string {
	t.Helper()

	cert := newCertificate(t, notBefore, notAfter)
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		t.Fatalf("tls.Listen() error = %v", err)
	}

	return serve(t, ln, func(conn net.Conn) {
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
		_ = conn.(*tls.Conn).Handshake()
	})
}

// newValidTLSServer serves a certificate that is currently valid.
func newValidTLSServer(t *testing.T) string {
	t.Helper()
	now := time.Now()
	return newTLSServer(t, now.Add(-time.Hour), now.Add(24*time.Hour))
}

// newPlainServer answers every connection with plain text instead of a TLS handshake.
func newPlainServer(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	return serve(t, ln, func(conn net.Conn) {
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
		buf := make([]byte, 4096)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		_, _ = conn.Write([]byte("HTTP/1.0 400 Bad Request\r\n\r\n"))
		// drain until the client hangs up so the close is not a reset
		_, _ = io.Copy(io.Discard, conn)
	})
}

// newSilentServer accepts connections and never responds.
func newSilentServer(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	done := make(chan struct{})
	addr := serve(t, ln, func(conn net.Conn) {
		defer conn.Close()
		<-done
	})
	// cleanups run in reverse, so handlers are released before serve waits on them
	t.Cleanup(func() { close(done) })
	return addr
}

// closedAddr returns a loopback address with nothing listening on it.
func closedAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Timeout = 2 * time.Second
	opts.RetryDelay = 10 * time.Millisecond
	opts.MaxWorkers = 4
	return opts
}
