package deployment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"sync"

	"torn_tools/internal/config"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

// DefaultSSHPort is used when the deploy URL names no port
const DefaultSSHPort = "22"

// Target is a parsed deploy URL
type Target struct {
	User       string
	Host       string
	Port       string
	RemotePath string
}

// Addr returns host:port for dialing
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// ParseDeployURL parses a deploy URL in format user@host:path. A port may be
// given as user@host:port:path.
func ParseDeployURL(deployURL string) (Target, error) {
	if deployURL == "" {
		return Target{}, fmt.Errorf("deploy URL is empty")
	}

	user, hostPath, ok := strings.Cut(deployURL, "@")
	if !ok || user == "" {
		return Target{}, fmt.Errorf("invalid deploy URL format: expected user@host:path")
	}

	host, rest, ok := strings.Cut(hostPath, ":")
	if !ok || host == "" {
		return Target{}, fmt.Errorf("invalid deploy URL format: expected user@host:path")
	}

	target := Target{User: user, Host: host, Port: DefaultSSHPort, RemotePath: rest}
	if port, remotePath, found := strings.Cut(rest, ":"); found && isPort(port) {
		target.Port = port
		target.RemotePath = remotePath
	}
	if target.RemotePath == "" {
		target.RemotePath = "."
	}

	return target, nil
}

func isPort(s string) bool {
	if s == "" || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SSHDeployer handles deployment via SSH/SCP
type SSHDeployer struct {
	keyPath   string
	deployURL string
	client    *ssh.Client
	mu        sync.Mutex
}

// NewSSHDeployer creates a new SSH deployer authenticating with keyPath
func NewSSHDeployer(deployURL, keyPath string) *SSHDeployer {
	if keyPath == "" {
		keyPath = "deploy.pem"
	}
	return &SSHDeployer{
		keyPath:   keyPath,
		deployURL: deployURL,
	}
}

// connect establishes the SSH connection. Callers hold d.mu.
func (d *SSHDeployer) connect(ctx context.Context, target Target) error {
	if d.client != nil {
		return nil
	}

	keyData, err := os.ReadFile(d.keyPath)
	if err != nil {
		return fmt.Errorf("failed to read SSH key file %s: %w", d.keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return fmt.Errorf("failed to parse SSH private key: %w", err)
	}

	clientConfig := &ssh.ClientConfig{
		User: target.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // In production, use proper host key verification
		Timeout:         config.DefaultTimeouts.Deploy.Connect,
	}

	dialer := net.Dialer{Timeout: config.DefaultTimeouts.Deploy.Connect}
	conn, err := dialer.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return fmt.Errorf("failed to connect to SSH server %s: %w", target.Host, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, target.Addr(), clientConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open SSH session with %s: %w", target.Host, err)
	}
	d.client = ssh.NewClient(sshConn, chans, reqs)

	log.Info().
		Str("host", target.Host).
		Str("user", target.User).
		Msg("Successfully connected to SSH server")

	return nil
}

// Disconnect closes SSH connection
func (d *SSHDeployer) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// DeployContent uploads data to the remote directory as filename via SCP
func (d *SSHDeployer) DeployContent(ctx context.Context, filename string, data []byte) error {
	target, err := ParseDeployURL(d.deployURL)
	if err != nil {
		return fmt.Errorf("failed to parse deploy URL: %w", err)
	}
	if filename == "" || strings.ContainsAny(filename, "/\n") {
		return fmt.Errorf("invalid deploy file name %q", filename)
	}

	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeouts.Deploy.Request)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(ctx, target); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	session, err := d.client.NewSession()
	if err != nil {
		// Drop a dead connection so the next deploy redials
		d.client.Close()
		d.client = nil
		return fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer session.Close()

	remoteFilePath := path.Join(target.RemotePath, filename)

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	if err := session.Start(scpCommand(remoteFilePath)); err != nil {
		return fmt.Errorf("failed to start SCP session: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- writeSCP(stdin, filename, data, session.Wait)
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		session.Close()
		return fmt.Errorf("SCP upload of %s interrupted: %w", filename, ctx.Err())
	}

	log.Info().
		Str("remote_path", remoteFilePath).
		Int("size", len(data)).
		Msg("Successfully deployed file via SCP")

	return nil
}

// writeSCP speaks the sink side of the scp protocol for a single file
func writeSCP(stdin io.WriteCloser, filename string, data []byte, wait func() error) error {
	header := fmt.Sprintf("C0644 %d %s\n", len(data), filename)
	if _, err := io.WriteString(stdin, header); err != nil {
		return fmt.Errorf("failed to write SCP header: %w", err)
	}

	if _, err := io.Copy(stdin, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	// End marker
	if _, err := stdin.Write([]byte{0}); err != nil {
		return fmt.Errorf("failed to write SCP end marker: %w", err)
	}

	stdin.Close()
	if err := wait(); err != nil {
		return fmt.Errorf("SCP session failed: %w", err)
	}
	return nil
}

// scpCommand is the remote sink command for a single file upload
func scpCommand(remoteFilePath string) string {
	return "scp -t " + shellQuote(remoteFilePath)
}

// shellQuote wraps s in single quotes for a POSIX shell
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
