// Package rest is a minimal HTTP/1.1 client for a Bitcoin node's REST
// interface (GET /rest/chaininfo.json, GET /rest/tx/{txid}.bin). It
// deliberately avoids general-purpose URL libraries: those pull in
// unicode-normalisation dependencies this client has no use for, so
// host/port parsing is reimplemented by hand, the way the node's own
// reference client does it internally.
package rest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/time/rate"
)

// DefaultPort is used when a URL carries neither an http/https scheme
// nor an explicit port.
const DefaultPort = 8332

// maxResponseBytes bounds how much of a response body this client
// will read when the server does not send Content-Length.
const maxResponseBytes = 1024 * 1024 * 1024

// Client speaks just enough HTTP/1.1 to drive a node's read-only REST
// endpoints, rate-limited on the caller's side so a misbehaving
// planner loop can't hammer a node.
type Client struct {
	addr        string
	dialTimeout time.Duration
	rateLimiter *rate.Limiter
}

// NewClient parses rawurl (accepting http://, https://, or a bare
// host[:port]) and returns a Client that dials addr fresh for every
// request. requestsPerSecond configures client-side rate limiting;
// pass 0 to disable limiting.
func NewClient(rawurl string, requestsPerSecond float64) (*Client, error) {
	addr, err := resolveAddr(rawurl)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &Client{addr: addr, dialTimeout: 10 * time.Second, rateLimiter: limiter}, nil
}

// ChainInfo is the subset of GET /rest/chaininfo.json this client
// decodes.
type ChainInfo struct {
	Chain         string `json:"chain"`
	Blocks        int64  `json:"blocks"`
	BestBlockHash string `json:"bestblockhash"`
}

// GetChainInfo fetches /rest/chaininfo.json.
func (c *Client) GetChainInfo(ctx context.Context) (*ChainInfo, error) {
	body, err := c.get(ctx, "/rest/chaininfo.json")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("rest: chaininfo not found")
	}

	var info ChainInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("rest: decode chaininfo: %w", err)
	}
	return &info, nil
}

// GetTransaction fetches GET /rest/tx/{txid}.bin and consensus-decodes
// it. A 404 response is reported as (nil, nil), matching the node's
// convention that a missing transaction is not an error condition for
// this read-only lookup.
func (c *Client) GetTransaction(ctx context.Context, txid chainhash.Hash) (*wire.MsgTx, error) {
	path := fmt.Sprintf("/rest/tx/%s.bin", txid.String())

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("rest: decode tx: %w", err)
	}
	return tx, nil
}

// get issues a GET request for path over a fresh connection and
// returns the response body, or (nil, nil) on a 404.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rest: rate limiter: %w", err)
		}
	}

	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("rest: dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := fmt.Sprintf("GET %s HTTP/1.1\r\nhost: %s\r\nconnection: close\r\n\r\n", path, c.addr)
	if _, err := conn.Write([]byte(req)); err != nil {
		return nil, fmt.Errorf("rest: write request: %w", err)
	}

	reader := bufio.NewReader(conn)

	statusLine, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("rest: read status line: %w", err)
	}
	if len(statusLine) < 12 || !strings.HasPrefix(statusLine, "HTTP/1.1 ") {
		return nil, fmt.Errorf("rest: malformed status line %q", statusLine)
	}
	statusCode, err := strconv.Atoi(statusLine[9:12])
	if err != nil {
		return nil, fmt.Errorf("rest: malformed status code in %q", statusLine)
	}

	contentLength := int64(-1)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("rest: read header: %w", err)
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		lower := strings.ToLower(line)
		const contentLengthHeader = "content-length: "
		if strings.HasPrefix(lower, contentLengthHeader) {
			n, err := strconv.ParseInt(strings.TrimSpace(lower[len(contentLengthHeader):]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("rest: malformed content-length: %w", err)
			}
			contentLength = n
		}
	}

	switch statusCode {
	case 404:
		return nil, nil
	case 401:
		return nil, fmt.Errorf("rest: unauthorized")
	}

	if contentLength > maxResponseBytes {
		return nil, fmt.Errorf("rest: content-length %d exceeds limit", contentLength)
	}

	var body []byte
	if contentLength >= 0 {
		body = make([]byte, contentLength)
		if _, err := readFull(reader, body); err != nil {
			return nil, fmt.Errorf("rest: read body: %w", err)
		}
	} else {
		body, err = readAll(reader, maxResponseBytes)
		if err != nil {
			return nil, fmt.Errorf("rest: read body: %w", err)
		}
	}

	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("rest: unexpected status %d", statusCode)
	}

	return body, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func readAll(r *bufio.Reader, limit int64) ([]byte, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for int64(len(buf)) < limit {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return buf, nil
}

// resolveAddr implements the scheme/host/port parsing described in
// simplehttp's check_url: recognize http:// (port 80) and https://
// (port 443), strip any path and userinfo, and fall back to
// DefaultPort when no scheme or explicit port is present.
func resolveAddr(rawurl string) (string, error) {
	fallbackPort := DefaultPort

	afterScheme := rawurl
	if idx := strings.Index(rawurl, "://"); idx >= 0 {
		scheme := rawurl[:idx]
		switch scheme {
		case "http":
			fallbackPort = 80
		case "https":
			fallbackPort = 443
		default:
			return "", fmt.Errorf("rest: url scheme should be http or https, got %q", scheme)
		}
		afterScheme = rawurl[idx+3:]
	}

	beforePath := afterScheme
	if slash := strings.Index(afterScheme, "/"); slash >= 0 {
		beforePath = afterScheme[:slash]
	}

	afterAuth := beforePath
	if at := strings.Index(beforePath, "@"); at >= 0 {
		afterAuth = beforePath[at+1:]
	}

	if afterAuth == "" {
		return "", fmt.Errorf("rest: empty hostname in %q", rawurl)
	}
	if _, _, err := net.SplitHostPort(afterAuth); err == nil {
		return afterAuth, nil
	}

	return fmt.Sprintf("%s:%d", afterAuth, fallbackPort), nil
}
