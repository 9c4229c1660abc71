package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cuemby/infod/pkg/dispatch"
)

// DefaultTimeout bounds a single request/reply round trip.
const DefaultTimeout = 10 * time.Second

// Client is a thin connection to an infod node speaking the framed text
// protocol. It is not safe for concurrent use by multiple goroutines — the
// server processes one request body per frame in order, and interleaving
// writes from multiple goroutines would corrupt the frame boundary.
type Client struct {
	conn    net.Conn
	timeout time.Duration
}

// Dial opens a TCP connection to addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, timeout: DefaultTimeout}, nil
}

// SetTimeout overrides the per-request round-trip timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Line is one parsed reply line: name and value split on the first tab,
// per spec.md 6's reply grammar.
type Line struct {
	Name  string
	Value string
}

// Request sends body as a single frame and returns the parsed reply lines.
// body should already be newline-terminated per-entry (e.g.
// "statistics\n" or "config-set:context=service;ticker-interval=2\n").
func (c *Client) Request(body string) ([]Line, error) {
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}

	header := make([]byte, dispatch.HeaderSize)
	dispatch.EncodeHeader(header, uint32(len(body)))
	if _, err := c.conn.Write(header); err != nil {
		return nil, fmt.Errorf("client: write header: %w", err)
	}
	if len(body) > 0 {
		if _, err := io.WriteString(c.conn, body); err != nil {
			return nil, fmt.Errorf("client: write body: %w", err)
		}
	}

	replyHeader := make([]byte, dispatch.HeaderSize)
	if _, err := io.ReadFull(c.conn, replyHeader); err != nil {
		return nil, fmt.Errorf("client: read reply header: %w", err)
	}
	replyLen, err := dispatch.DecodeHeader(replyHeader)
	if err != nil {
		return nil, fmt.Errorf("client: reply header: %w", err)
	}

	replyBody := make([]byte, replyLen)
	if replyLen > 0 {
		if _, err := io.ReadFull(c.conn, replyBody); err != nil {
			return nil, fmt.Errorf("client: read reply body: %w", err)
		}
	}

	return parseReply(string(replyBody)), nil
}

// Get sends a single bare lookup and returns its value, or an error if the
// name was not present in the reply.
func (c *Client) Get(name string) (string, error) {
	lines, err := c.Request(name + "\n")
	if err != nil {
		return "", err
	}
	for _, l := range lines {
		if l.Name == name {
			return l.Value, nil
		}
	}
	return "", fmt.Errorf("client: no reply for %q", name)
}

// Command sends a single command line ("name:params") and returns its
// value.
func (c *Client) Command(name, params string) (string, error) {
	wireName := name + ":" + params
	lines, err := c.Request(wireName + "\n")
	if err != nil {
		return "", err
	}
	for _, l := range lines {
		if l.Name == wireName {
			return l.Value, nil
		}
	}
	return "", fmt.Errorf("client: no reply for %q", wireName)
}

func parseReply(body string) []Line {
	scanner := bufio.NewScanner(strings.NewReader(body))
	var out []Line
	for scanner.Scan() {
		raw := scanner.Text()
		if raw == "" {
			continue
		}
		if i := strings.IndexByte(raw, '\t'); i >= 0 {
			out = append(out, Line{Name: raw[:i], Value: raw[i+1:]})
		} else {
			out = append(out, Line{Name: raw})
		}
	}
	return out
}
