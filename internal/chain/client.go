package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hns-tools/auctionwatch/internal/common"
	"github.com/hns-tools/auctionwatch/internal/logger"
	"github.com/hns-tools/auctionwatch/internal/metrics"
	pkgchain "github.com/hns-tools/auctionwatch/pkg/chain"
	"github.com/hns-tools/auctionwatch/pkg/config"
)

const (
	requestTimeout   = 15 * time.Second
	dialTimeout      = 10 * time.Second
	reconnectBackoff = 5 * time.Second
)

var _ pkgchain.Gateway = (*Client)(nil)

// Client is the chain gateway backed by a Handshake-style node: JSON-RPC
// and REST for lookups, a websocket feed for block notifications.
//
// Block handlers run sequentially on the feed goroutine, so one block is
// fully handled before the next frame is read.
type Client struct {
	cfg  config.NodeConfig
	log  *logger.Logger
	http *http.Client

	rpcID atomic.Uint64

	mu                   sync.Mutex
	connectedHandlers    []pkgchain.BlockHandler
	disconnectedHandlers []pkgchain.BlockHandler
}

// NewClient creates a node client. No connection is made until Run.
func NewClient(cfg config.NodeConfig, log *logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: log,
		http: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// OnBlockConnected registers a handler for connected blocks.
func (c *Client) OnBlockConnected(handler pkgchain.BlockHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectedHandlers = append(c.connectedHandlers, handler)
}

// OnBlockDisconnected registers a handler for disconnected blocks.
func (c *Client) OnBlockDisconnected(handler pkgchain.BlockHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectedHandlers = append(c.disconnectedHandlers, handler)
}

// rpcRequest is a node JSON-RPC call.
type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     uint64        `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return e.Message
}

// call performs one JSON-RPC request with retry.
func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{
		Method: method,
		Params: params,
		ID:     c.rpcID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	return withRetry(ctx, c.cfg.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RPCURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.SetBasicAuth("x", c.cfg.APIKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
		}

		var rpcResp rpcResponse
		if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
			return fmt.Errorf("%s: decode response: %w", method, err)
		}
		if rpcResp.Error != nil {
			return fmt.Errorf("%s: %w", method, rpcResp.Error)
		}

		if result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("%s: decode result: %w", method, err)
			}
		}
		return nil
	})
}

// GetNameState resolves a name hash to its auction record.
func (c *Client) GetNameState(ctx context.Context, nameHash pkgchain.Hash) (*pkgchain.NameState, error) {
	var result struct {
		Name   string `json:"name"`
		Height uint64 `json:"height"`
	}

	if err := c.call(ctx, "getnamebyhash", []interface{}{nameHash.String()}, &result); err != nil {
		return nil, err
	}
	if result.Name == "" {
		return nil, pkgchain.ErrNotFound
	}

	return &pkgchain.NameState{
		Name:   result.Name,
		Height: result.Height,
	}, nil
}

// GetCoin looks up an unspent output through the node's REST coin view.
func (c *Client) GetCoin(ctx context.Context, outpoint pkgchain.Outpoint) (*pkgchain.Coin, error) {
	url := fmt.Sprintf("%s/coin/%s/%d", c.cfg.RPCURL, outpoint.Hash, outpoint.Index)

	var coin *pkgchain.Coin
	err := withRetry(ctx, c.cfg.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.cfg.APIKey != "" {
			req.SetBasicAuth("x", c.cfg.APIKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("getcoin: %w", err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusNotFound:
			coin = nil
			// drain so the connection can be reused
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		default:
			return fmt.Errorf("getcoin: unexpected status %d", resp.StatusCode)
		}

		var result struct {
			Value uint64 `json:"value"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("getcoin: decode response: %w", err)
		}
		coin = &pkgchain.Coin{Value: result.Value}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if coin == nil {
		return nil, pkgchain.ErrNotFound
	}
	return coin, nil
}

// wsFrame is one websocket notification from the node.
type wsFrame struct {
	Type  string     `json:"type"`
	Block *wireBlock `json:"block"`
}

// Run connects to the node's websocket feed and dispatches block
// notifications until the context is cancelled. Connection loss is
// retried with a fixed backoff; notifications missed while disconnected
// are not replayed (the classifier resumes from the persisted tip).
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.readFeed(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warnf("block feed disconnected, retrying: err=%v", err)
			metrics.ComponentHealthSet(common.ComponentNode, false)
			metrics.ErrorsInc(common.ComponentNode, "warning")
			feedReconnectsInc()
		}

		select {
		case <-time.After(reconnectBackoff):
		case <-ctx.Done():
			return nil
		}
	}
}

// readFeed runs one websocket session.
func (c *Client) readFeed(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}

	conn, resp, err := dialer.DialContext(ctx, c.cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.WSURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	c.log.Infof("connected to block feed: url=%s", c.cfg.WSURL)
	metrics.ComponentHealthSet(common.ComponentNode, true)

	// unblock ReadJSON on shutdown
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		if frame.Block == nil {
			continue
		}

		block, err := decodeBlock(frame.Block)
		if err != nil {
			c.log.Errorf("malformed block notification: type=%s err=%v", frame.Type, err)
			continue
		}

		switch frame.Type {
		case "block connect":
			c.dispatch(c.connectedSnapshot(), block)
		case "block disconnect":
			c.dispatch(c.disconnectedSnapshot(), block)
		default:
			c.log.Debugf("ignoring feed frame: type=%s", frame.Type)
		}
	}
}

func (c *Client) connectedSnapshot() []pkgchain.BlockHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]pkgchain.BlockHandler(nil), c.connectedHandlers...)
}

func (c *Client) disconnectedSnapshot() []pkgchain.BlockHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]pkgchain.BlockHandler(nil), c.disconnectedHandlers...)
}

// dispatch invokes handlers one at a time, preserving block order.
func (c *Client) dispatch(handlers []pkgchain.BlockHandler, block *pkgchain.Block) {
	for _, handler := range handlers {
		handler(block)
	}
}
