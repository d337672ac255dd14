package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPConfig holds connection details for a remote EIEP3 file.
type SFTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"`
}

// SFTPSource reads one EIEP3 file from a remote SFTP server.
type SFTPSource struct {
	cfg SFTPConfig
}

// NewSFTPSource constructs an SFTP source.
func NewSFTPSource(cfg SFTPConfig) (*SFTPSource, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Path == "" {
		return nil, errors.New("source: sftp host, username and path required")
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	return &SFTPSource{cfg: cfg}, nil
}

// Lines downloads the remote file and returns every line in order. The
// connection is opened and closed within the call; nothing is retained.
func (s *SFTPSource) Lines(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User: s.cfg.Username,
		Auth: []ssh.AuthMethod{ssh.Password(s.cfg.Password)},
		// Feed endpoints are provisioned without pinned host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("source: sftp dial %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("source: sftp session: %w", err)
	}
	defer client.Close()

	file, err := client.Open(s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("source: sftp open %s: %w", s.cfg.Path, err)
	}
	defer file.Close()

	return scanLines(file)
}
