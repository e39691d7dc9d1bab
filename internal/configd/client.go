package configd

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultSocket is where the daemon listens on a stock install.
const DefaultSocket = "/run/vyatta/configd/main.sock"

type request struct {
	ID     uint64         `json:"id"`
	Method string         `json:"method"`
	Args   map[string]any `json:"args,omitempty"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// SocketClient speaks newline-delimited JSON frames over the daemon's
// Unix socket. One request is in flight at a time.
type SocketClient struct {
	mu     sync.Mutex
	conn   net.Conn
	enc    *json.Encoder
	dec    *json.Decoder
	nextID uint64
}

func Dial(socketPath string) (*SocketClient, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to configd at %s: %w", socketPath, err)
	}
	return &SocketClient{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}, nil
}

func (c *SocketClient) call(method string, args map[string]any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := request{ID: c.nextID, Method: method, Args: args}
	if err := c.enc.Encode(&req); err != nil {
		return fmt.Errorf("configd %s: %w", method, err)
	}
	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		return fmt.Errorf("configd %s: %w", method, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("configd %s: response id %d for request %d", method, resp.ID, req.ID)
	}
	if resp.Error != "" {
		return fmt.Errorf("configd %s: %s", method, resp.Error)
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("configd %s: decode result: %w", method, err)
		}
	}
	return nil
}

func (c *SocketClient) TreeGet(db Database, path []string) (map[string]any, error) {
	var tree map[string]any
	err := c.call("tree-get", map[string]any{
		"database": db.String(),
		"path":     path,
	}, &tree)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (c *SocketClient) NodeGetStatus(db Database, path []string) (Status, error) {
	var raw string
	err := c.call("node-get-status", map[string]any{
		"database": db.String(),
		"path":     path,
	}, &raw)
	if err != nil {
		return Unchanged, err
	}
	return ParseStatus(raw)
}

func (c *SocketClient) Close() error {
	return c.conn.Close()
}
