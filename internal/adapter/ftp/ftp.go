package ftp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"path"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/Ning0612/mistergen/internal/domain"
)

const (
	// DefaultPort is the standard FTP control port
	DefaultPort = 21
	// DefaultTimeout bounds dialing the device
	DefaultTimeout = 10 * time.Second
)

// Options holds connection settings for the device's FTP server
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

// Addr returns host:port
func (o Options) Addr() string {
	port := o.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(port))
}

// conn is the subset of *ftp.ServerConn used by Session
type conn interface {
	ChangeDir(path string) error
	CurrentDir() (string, error)
	NameList(path string) ([]string, error)
	Quit() error
}

// Session implements adapter.Session over one FTP control connection.
// The server-side working directory is mirrored in cwd so position checks
// cost no round trip.
type Session struct {
	conn conn
	cwd  string
}

// Dial connects and logs in
func Dial(ctx context.Context, opts Options) (*Session, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("%w: ftp host is empty", domain.ErrInvalidConfiguration)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c, err := ftp.Dial(opts.Addr(),
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrConnectionFatal, opts.Addr(), err)
	}

	if err := c.Login(opts.User, opts.Password); err != nil {
		c.Quit()
		return nil, fmt.Errorf("%w: login as %s: %v", domain.ErrConnectionFatal, opts.User, err)
	}

	return newSession(c)
}

// newSession wraps an authenticated connection
func newSession(c conn) (*Session, error) {
	cwd, err := c.CurrentDir()
	if err != nil {
		c.Quit()
		return nil, fmt.Errorf("%w: pwd: %v", domain.ErrConnectionFatal, err)
	}
	if cwd == "" {
		cwd = "/"
	}
	return &Session{conn: c, cwd: path.Clean(cwd)}, nil
}

// abs resolves p against the current directory
func (s *Session) abs(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(s.cwd, p)
}

// ChangeDir sends CWD
func (s *Session) ChangeDir(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.abs(p)
	if err := s.conn.ChangeDir(target); err != nil {
		return mapError("cwd "+target, err)
	}
	s.cwd = target
	return nil
}

// CurrentDir returns the tracked working directory
func (s *Session) CurrentDir(ctx context.Context) (string, error) {
	return s.cwd, nil
}

// NameList sends NLST and returns base names
func (s *Session) NameList(ctx context.Context, p string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := s.abs(p)
	entries, err := s.conn.NameList(target)
	if err != nil {
		// Some servers answer NLST on an empty directory with 450
		if code(err) == ftp.StatusFileActionIgnored {
			return nil, nil
		}
		return nil, mapError("nlst "+target, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		// Servers differ on whether NLST returns names or paths
		name := path.Base(e)
		if name == "" || name == "." || name == ".." || name == "/" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Close sends QUIT
func (s *Session) Close() error {
	return s.conn.Quit()
}

// code returns the FTP reply code carried by err, or 0
func code(err error) int {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code
	}
	return 0
}

// mapError converts FTP replies to domain errors.
// Only "requested action not taken" replies are recoverable; transport
// failures and every other reply are fatal for the session.
func mapError(op string, err error) error {
	switch code(err) {
	case ftp.StatusFileUnavailable, ftp.StatusBadFileName:
		return fmt.Errorf("%w: %s: %v", domain.ErrNotDirectory, op, err)
	case ftp.StatusFileActionIgnored:
		return fmt.Errorf("%w: %s: %v", domain.ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrConnectionFatal, op, err)
}
