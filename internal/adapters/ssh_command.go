package adapters

import (
	"bytes"
	"context"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/shared"
)

const defaultSSHTimeout = 30 * time.Second

// SSHConfig describes how to authenticate against listing hosts. Keys
// come from KeyPath when set and from the ssh agent otherwise.
type SSHConfig struct {
	KeyPath         string
	KnownHostsPath  string
	InsecureHostKey bool
	Password        string
	Timeout         time.Duration
}

type SSHCommandAdapter struct {
	Config SSHConfig
}

func NewSSHCommandAdapter(cfg SSHConfig) SSHCommandAdapter {
	return SSHCommandAdapter{Config: cfg}
}

// Run executes command on target ("[user@]host[:port]") and returns its
// stdout.
func (a SSHCommandAdapter) Run(ctx context.Context, target string, command string) (string, error) {
	client, err := DialSSH(ctx, target, a.Config)
	if err != nil {
		return "", err
	}
	defer client.Close()
	session, err := client.NewSession()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open ssh session").
			WithCause(err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()
	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("remote command failed on " + target).
				WithCause(shared.CommandError(stderr.Bytes(), err))
		}
	}
	log.Ctx(ctx).Debug().Str("target", target).Str("command", command).Int("bytes", stdout.Len()).Msg("remote command finished")
	return stdout.String(), nil
}

// DialSSH opens an authenticated client connection to target.
func DialSSH(ctx context.Context, target string, cfg SSHConfig) (*ssh.Client, error) {
	userName, addr := splitSSHTarget(target)
	clientConfig, agentConn, err := sshClientConfig(userName, cfg)
	if err != nil {
		return nil, err
	}
	if agentConn != nil {
		// signing happens during the handshake only
		defer agentConn.Close()
	}
	dialer := net.Dialer{Timeout: clientConfig.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to connect to " + addr).
			WithCause(err)
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("ssh handshake with " + addr + " failed").
			WithCause(err)
	}
	return ssh.NewClient(clientConn, chans, reqs), nil
}

func splitSSHTarget(target string) (string, string) {
	target = strings.TrimPrefix(strings.TrimSpace(target), "ssh://")
	userName := ""
	if at := strings.LastIndex(target, "@"); at >= 0 {
		userName = target[:at]
		target = target[at+1:]
	}
	if userName == "" {
		if current, err := user.Current(); err == nil {
			userName = current.Username
		}
	}
	if _, _, err := net.SplitHostPort(target); err != nil {
		target = net.JoinHostPort(target, "22")
	}
	return userName, target
}

// sshClientConfig builds the client config for userName. The returned agent
// connection, when not nil, must be closed once the handshake is over.
func sshClientConfig(userName string, cfg SSHConfig) (*ssh.ClientConfig, net.Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSSHTimeout
	}
	hostKeys, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, nil, err
	}
	var methods []ssh.AuthMethod
	var agentConn net.Conn
	if cfg.KeyPath != "" {
		key, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("ssh key not found").
				WithCause(err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid ssh key " + cfg.KeyPath).
				WithCause(err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	} else if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" {
		if conn, err := net.Dial("unix", socket); err == nil {
			agentConn = conn
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}
	return &ssh.ClientConfig{
		User:            userName,
		Auth:            methods,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}, agentConn, nil
}

func hostKeyCallback(cfg SSHConfig) (ssh.HostKeyCallback, error) {
	if cfg.InsecureHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := cfg.KnownHostsPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("no known_hosts file configured").
				WithCause(err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("failed to load known_hosts " + path).
			WithCause(err)
	}
	return callback, nil
}

var _ ports.RemoteCommandPort = SSHCommandAdapter{}
