package cli

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var errCertExists = errors.New("cert.pem or key.pem already exists, use --force to replace")

type certOptions struct {
	dir          string
	ips          []string
	hosts        []string
	organization string
	bits         int
	validFor     time.Duration
	force        bool
}

// newCertgenCmd creates a self-signed CA and a server certificate issued by it
// for serving the arena over TLS on a local network.
func newCertgenCmd() *cobra.Command {
	opts := certOptions{
		dir:          ".",
		organization: "Football Arena",
		bits:         4096,
		validFor:     10 * 365 * 24 * time.Hour,
	}
	cmd := &cobra.Command{
		Use:   "certgen",
		Short: "Generate cert.pem and key.pem for server.tls_cert and server.tls_key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := generateCert(opts, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n",
				filepath.Join(opts.dir, "cert.pem"), filepath.Join(opts.dir, "key.pem"))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", opts.dir, "output directory")
	cmd.Flags().StringSliceVar(&opts.ips, "ip", nil, "IP addresses the certificate is valid for, loopback by default")
	cmd.Flags().StringSliceVar(&opts.hosts, "host", nil, "DNS names the certificate is valid for")
	cmd.Flags().StringVar(&opts.organization, "org", opts.organization, "subject organization")
	cmd.Flags().IntVar(&opts.bits, "bits", opts.bits, "RSA key size")
	cmd.Flags().DurationVar(&opts.validFor, "valid-for", opts.validFor, "certificate lifetime")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite existing files")
	return cmd
}

func generateCert(opts certOptions, now time.Time) error {
	certPath := filepath.Join(opts.dir, "cert.pem")
	keyPath := filepath.Join(opts.dir, "key.pem")
	if !opts.force && (exists(certPath) || exists(keyPath)) {
		return errCertExists
	}

	ips := []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}
	if len(opts.ips) > 0 {
		ips = ips[:0]
		for _, s := range opts.ips {
			ip := net.ParseIP(s)
			if ip == nil {
				return fmt.Errorf("invalid ip %q", s)
			}
			ips = append(ips, ip)
		}
	}
	subject := pkix.Name{Organization: []string{opts.organization}}

	ca := &x509.Certificate{
		SerialNumber:          serialNumber(),
		Subject:               subject,
		NotBefore:             now,
		NotAfter:              now.Add(opts.validFor),
		IsCA:                  true,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	caKey, err := rsa.GenerateKey(rand.Reader, opts.bits)
	if err != nil {
		return err
	}

	cert := &x509.Certificate{
		SerialNumber: serialNumber(),
		Subject:      subject,
		IPAddresses:  ips,
		DNSNames:     opts.hosts,
		NotBefore:    now,
		NotAfter:     now.Add(opts.validFor),
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	certKey, err := rsa.GenerateKey(rand.Reader, opts.bits)
	if err != nil {
		return err
	}
	certDER, err := x509.CreateCertificate(rand.Reader, cert, ca, &certKey.PublicKey, caKey)
	if err != nil {
		return err
	}

	certPEM, err := encodePEM("CERTIFICATE", certDER)
	if err != nil {
		return err
	}
	keyPEM, err := encodePEM("RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(certKey))
	if err != nil {
		return err
	}
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		return err
	}
	return os.WriteFile(keyPath, keyPEM, 0o600)
}

func encodePEM(blockType string, der []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func serialNumber() *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), 62)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		panic(err)
	}
	return n
}
