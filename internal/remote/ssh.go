package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fewx/gfsproc/types"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Transport runs one command on a remote host, streaming its output.
// It returns the remote exit status; err is only set when the command could
// not be run to completion (dial, auth, session failures).
type Transport interface {
	Run(ctx context.Context, host, command string, stdout, stderr io.Writer) (int, error)
}

// SSHTransport is a Transport over golang.org/x/crypto/ssh with public key auth.
type SSHTransport struct {
	port   int
	config *ssh.ClientConfig
}

func NewSSHTransport(cfg types.Remote, logger zerolog.Logger) (*SSHTransport, error) {
	keyPath, err := ExpandHome(cfg.KeyPath)
	if err != nil {
		return nil, err
	}

	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key %s: %w", keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key %s: %w", keyPath, err)
	}

	callback, err := hostKeyCallback(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &SSHTransport{
		port: cfg.Port,
		config: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: callback,
		},
	}, nil
}

// DefaultKnownHosts is checked when remote.known_hosts is not set, as OpenSSH does.
const DefaultKnownHosts = "~/.ssh/known_hosts"

// KnownHostsPath picks the known_hosts file used to verify host keys: the
// configured one, else the default one if it exists. It returns "" only when
// insecure_ignore_host_key is set and no file was configured.
func KnownHostsPath(cfg types.Remote) (string, error) {
	if cfg.KnownHosts != "" {
		return ExpandHome(cfg.KnownHosts)
	}
	if cfg.InsecureIgnoreHostKey {
		return "", nil
	}

	path, err := ExpandHome(DefaultKnownHosts)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no known_hosts file at %s; set remote.known_hosts, or remote.insecure_ignore_host_key to skip verification: %w", path, err)
	}
	return path, nil
}

func hostKeyCallback(cfg types.Remote, logger zerolog.Logger) (ssh.HostKeyCallback, error) {
	path, err := KnownHostsPath(cfg)
	if err != nil {
		return nil, err
	}

	if path == "" {
		logger.Warn().Msg("remote.insecure_ignore_host_key is set, host keys will not be verified")
		return ssh.InsecureIgnoreHostKey(), nil
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts %s: %w", path, err)
	}
	return callback, nil
}

func (t *SSHTransport) Run(ctx context.Context, host, command string, stdout, stderr io.Writer) (int, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(t.port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return -1, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, t.config)
	if err != nil {
		conn.Close()
		return -1, fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
	}
	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return -1, fmt.Errorf("failed to open SSH session on %s: %w", addr, err)
	}
	defer session.Close()

	session.Stdout = stdout
	session.Stderr = stderr

	err = session.Run(command)

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("remote command on %s failed: %w", addr, err)
	}
	return 0, nil
}

// ExpandHome resolves a leading "~/" against the local user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory for %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
