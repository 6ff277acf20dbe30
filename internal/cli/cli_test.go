package cli

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/goserg/arena/internal/config"
	"github.com/goserg/arena/internal/store/mem"
)

func TestGenerateCert(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	opts := certOptions{
		dir:          dir,
		ips:          []string{"192.168.1.10"},
		hosts:        []string{"arena.local"},
		organization: "Test Arena",
		bits:         1024,
		validFor:     time.Hour,
	}
	require.NoError(t, generateCert(opts, now))

	certPEM, err := os.ReadFile(filepath.Join(dir, "cert.pem"))
	require.NoError(t, err)
	keyPEM, err := os.ReadFile(filepath.Join(dir, "key.pem"))
	require.NoError(t, err)
	_, err = tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)

	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	require.Equal(t, []string{"arena.local"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	require.Equal(t, "192.168.1.10", cert.IPAddresses[0].String())
	require.Equal(t, []string{"Test Arena"}, cert.Subject.Organization)
	require.True(t, cert.NotAfter.Equal(now.Add(time.Hour)))

	require.ErrorIs(t, generateCert(opts, now), errCertExists)
	opts.force = true
	require.NoError(t, generateCert(opts, now))
}

func TestGenerateCertInvalidIP(t *testing.T) {
	opts := certOptions{dir: t.TempDir(), ips: []string{"not-an-ip"}, bits: 1024, validFor: time.Hour}
	require.ErrorContains(t, generateCert(opts, time.Now()), "invalid ip")
}

func TestOpenStore(t *testing.T) {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	s, closeStore, err := openStore(l, config.Store{Type: config.StoreMemory})
	require.NoError(t, err)
	require.IsType(t, &mem.Store{}, s)
	closeStore()

	s, closeStore, err = openStore(l, config.Store{Type: config.StoreSqlite, SqliteFile: filepath.Join(t.TempDir(), "arena.sqlite")})
	require.NoError(t, err)
	require.NotNil(t, s)
	closeStore()

	_, _, err = openStore(l, config.Store{Type: "etcd"})
	require.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd()
	for _, path := range [][]string{{"serve"}, {"operator", "add"}, {"certgen"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		require.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestOperatorAdd(t *testing.T) {
	dir := t.TempDir()
	serverConfig := filepath.Join(dir, "server.toml")
	require.NoError(t, os.WriteFile(serverConfig, []byte(`
[store]
type = "memory"

[auth]
sqlite_file = "`+filepath.ToSlash(filepath.Join(dir, "auth.sqlite"))+`"
operator_email = "Boss@Example.com"
token = "secret"
`), 0o600))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{
		"--server-config", serverConfig,
		"--bot-config", filepath.Join(dir, "missing.toml"),
		"--log-level", "panic",
		"operator", "add", "--password", "hunter2",
	})
	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "created boss@example.com")

	root = NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"--server-config", serverConfig,
		"--bot-config", filepath.Join(dir, "missing.toml"),
		"--log-level", "panic",
		"operator", "add",
	})
	t.Setenv("ARENA_OPERATOR_PASSWORD", "")
	require.ErrorContains(t, root.Execute(), "password")
}
