// Package directory talks to LDAP compatible directory servers.
//
// A Client opens connections, a Conn binds and streams search results. Connect and bind
// each run under their own timeout, and a Conn is closed at most once whatever path the
// caller takes.
package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPort is used for plain LDAP when the endpoint port is zero.
	DefaultPort = 389
	// DefaultTLSPort is used for LDAPS when the endpoint port is zero.
	DefaultTLSPort = 636
)

// Endpoint addresses one directory server.
type Endpoint struct {
	Host       string
	Port       int
	UseTLS     bool
	SkipVerify bool
}

// URL returns the ldap:// or ldaps:// URL of the endpoint.
func (e Endpoint) URL() string {
	port := e.Port
	if port == 0 {
		port = DefaultPort
		if e.UseTLS {
			port = DefaultTLSPort
		}
	}

	hostPort := net.JoinHostPort(e.Host, strconv.Itoa(port))
	if e.UseTLS {
		return "ldaps://" + hostPort
	}

	return "ldap://" + hostPort
}

// Options tune the client.
type Options struct {
	// ConnectTimeout bounds dialing, including the TLS handshake.
	ConnectTimeout time.Duration `default:"5s"`
	// BindTimeout bounds a single bind.
	BindTimeout time.Duration `default:"5s"`
	// SearchBuffer is the number of results buffered per running search.
	SearchBuffer int `default:"64"`
}

// SearchRequest describes one subtree search.
type SearchRequest struct {
	BaseDN     string
	Filter     string
	Attributes []string
}

// Stream is a lazy, finite and non restartable sequence of entries.
type Stream interface {
	// Next advances to the next entry. It returns false at the end or on error.
	Next() bool
	// Entry returns the current entry.
	Entry() *ldap.Entry
	// Err returns the error that ended the stream, if any.
	Err() error
}

// Session is a bound connection shared by concurrent searches.
type Session interface {
	Search(ctx context.Context, req SearchRequest) Stream
	Close() error
}

// Connector opens bound sessions.
type Connector interface {
	Open(ctx context.Context, ep Endpoint, principal, credential string) (Session, error)
}

// Client is the go-ldap backed Connector.
type Client struct {
	opts Options
}

// NewClient creates a client. Zero option fields take their defaults.
func NewClient(opts Options) (*Client, error) {
	if err := defaults.Set(&opts); err != nil {
		return nil, fmt.Errorf("failed to set default values: %w", err)
	}

	return &Client{opts: opts}, nil
}

// Connect dials the endpoint. Failure or expiry of the connect timeout yields a *ConnectionError.
func (c *Client) Connect(ctx context.Context, ep Endpoint) (*Conn, error) {
	url := ep.URL()

	var tlsConfig *tls.Config
	if ep.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: ep.SkipVerify, //nolint:gosec // per profile opt-in
			ServerName:         ep.Host,
		}
	}

	done := make(chan dialResult, 1)

	go func() {
		conn, err := ldap.DialURL(url,
			ldap.DialWithDialer(&net.Dialer{Timeout: c.opts.ConnectTimeout}),
			ldap.DialWithTLSConfig(tlsConfig),
		)
		done <- dialResult{conn: conn, err: err}
	}()

	timer := time.NewTimer(c.opts.ConnectTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, &ConnectionError{URL: url, Err: res.err}
		}

		log.Debug().Str("url", url).Msg("directory connection established")

		return &Conn{conn: res.conn, opts: c.opts}, nil
	case <-timer.C:
		go closeLate(done)

		return nil, &ConnectionError{URL: url, Err: ErrTimeout}
	case <-ctx.Done():
		go closeLate(done)

		return nil, &ConnectionError{URL: url, Err: ctx.Err()}
	}
}

type dialResult struct {
	conn *ldap.Conn
	err  error
}

// closeLate releases a connection whose dial finished after the caller gave up.
func closeLate(done <-chan dialResult) {
	if res := <-done; res.conn != nil {
		_ = res.conn.Close()
	}
}

// Open connects and binds. The connection is closed if the bind fails.
func (c *Client) Open(ctx context.Context, ep Endpoint, principal, credential string) (Session, error) {
	conn, err := c.Connect(ctx, ep)
	if err != nil {
		return nil, err
	}

	if err = conn.Bind(ctx, principal, credential); err != nil {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close directory connection")
		}

		return nil, err
	}

	return conn, nil
}

// Conn is one directory connection.
type Conn struct {
	conn     *ldap.Conn
	opts     Options
	once     sync.Once
	closeErr error
}

// Bind authenticates the connection. Rejection or expiry of the bind timeout yields an *AuthError.
// A timed out bind leaves the connection closed.
func (c *Conn) Bind(ctx context.Context, principal, credential string) error {
	done := make(chan error, 1)

	go func() {
		done <- c.conn.Bind(principal, credential)
	}()

	timer := time.NewTimer(c.opts.BindTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return &AuthError{Principal: principal, Code: resultCode(err), Err: err}
		}

		return nil
	case <-timer.C:
		_ = c.Close()

		return &AuthError{Principal: principal, Err: ErrTimeout}
	case <-ctx.Done():
		_ = c.Close()

		return &AuthError{Principal: principal, Err: ctx.Err()}
	}
}

// Search starts a subtree search. Cancelling ctx abandons it.
func (c *Conn) Search(ctx context.Context, req SearchRequest) Stream {
	sr := ldap.NewSearchRequest(
		req.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		0,
		false,
		req.Filter,
		req.Attributes,
		nil,
	)

	return &entryStream{
		resp:   c.conn.SearchAsync(ctx, sr, c.opts.SearchBuffer),
		baseDN: req.BaseDN,
	}
}

// Close closes the connection. Only the first call has an effect.
func (c *Conn) Close() error {
	c.once.Do(func() {
		c.closeErr = c.conn.Close()
	})

	return c.closeErr
}

// entryStream adapts ldap.Response to Stream, skipping referrals and control only results.
type entryStream struct {
	resp   ldap.Response
	baseDN string
	entry  *ldap.Entry
}

func (s *entryStream) Next() bool {
	for s.resp.Next() {
		if e := s.resp.Entry(); e != nil {
			s.entry = e

			return true
		}
	}

	s.entry = nil

	return false
}

func (s *entryStream) Entry() *ldap.Entry {
	return s.entry
}

func (s *entryStream) Err() error {
	err := s.resp.Err()
	if err == nil {
		return nil
	}

	return &SearchError{BaseDN: s.baseDN, Code: resultCode(err), Err: err}
}

var (
	_ Connector = (*Client)(nil)
	_ Session   = (*Conn)(nil)
)
