package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errAuthRevoked = errors.New("store: stream auth revoked")

// FirebaseOptions configures the Realtime Database REST driver.
type FirebaseOptions struct {
	DatabaseURL    string
	AuthToken      string
	RequestTimeout time.Duration
	ReconnectMin   time.Duration
	ReconnectMax   time.Duration
	// HTTPClient must not set a client-wide timeout; streams are long-lived.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Firebase talks to a Firebase Realtime Database over its REST API and
// event-stream protocol.
type Firebase struct {
	baseURL        string
	authToken      string
	http           *http.Client
	requestTimeout time.Duration
	reconnectMin   time.Duration
	reconnectMax   time.Duration
	logger         *zap.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*Subscription]struct{}
}

// NewFirebase builds the REST driver.
func NewFirebase(opts FirebaseOptions) *Firebase {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = 500 * time.Millisecond
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = opts.ReconnectMin
	}
	return &Firebase{
		baseURL:        strings.TrimRight(opts.DatabaseURL, "/"),
		authToken:      opts.AuthToken,
		http:           client,
		requestTimeout: opts.RequestTimeout,
		reconnectMin:   opts.ReconnectMin,
		reconnectMax:   opts.ReconnectMax,
		logger:         logger,
		subs:           make(map[*Subscription]struct{}),
	}
}

func (f *Firebase) endpoint(path string) string {
	segs := splitPath(path)
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	endpoint := f.baseURL + "/" + strings.Join(segs, "/") + ".json"
	if f.authToken != "" {
		endpoint += "?" + url.Values{"auth": {f.authToken}}.Encode()
	}
	return endpoint
}

func (f *Firebase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.requestTimeout)
}

// Read fetches the value at path.
func (f *Firebase) Read(ctx context.Context, path string) (Snapshot, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint(path), nil)
	if err != nil {
		return Snapshot{}, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := f.do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Snapshot{Path: Join(path), Value: json.RawMessage(body)}, nil
}

// Update merges fields into the node at path with a PATCH request.
func (f *Firebase) Update(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, f.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := f.do(req); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

func (f *Firebase) do(req *http.Request) ([]byte, error) {
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func statusError(code int, body []byte) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrPermissionDenied
	case code < 200 || code >= 300:
		return fmt.Errorf("firebase error %d: %s", code, strings.TrimSpace(string(body)))
	default:
		return nil
	}
}

// Subscribe opens an event stream on path. The local copy of the subtree is
// rebuilt from each stream's initial put and the whole value is delivered
// after every change. Dropped streams are reopened with backoff.
func (f *Firebase) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	path = Join(path)
	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(path, cancel)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	go f.stream(subCtx, sub)
	return sub, nil
}

// Close ends every open subscription.
func (f *Firebase) Close() {
	f.mu.Lock()
	f.closed = true
	subs := make([]*Subscription, 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		sub.finish(ErrClosed)
	}
}

func (f *Firebase) stream(ctx context.Context, sub *Subscription) {
	defer func() {
		f.mu.Lock()
		delete(f.subs, sub)
		f.mu.Unlock()
		sub.Close()
	}()

	backoff := f.reconnectMin
	for {
		err := f.streamOnce(ctx, sub, func() { backoff = f.reconnectMin })
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrPermissionDenied) {
			f.logger.Warn("store stream canceled", zap.String("path", sub.path), zap.Error(err))
			sub.finish(err)
			return
		}

		f.logger.Warn("store stream dropped; reconnecting",
			zap.String("path", sub.path),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		if backoff < f.reconnectMax {
			backoff *= 2
			if backoff > f.reconnectMax {
				backoff = f.reconnectMax
			}
		}
	}
}

type streamEvent struct {
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

func (f *Firebase) streamOnce(ctx context.Context, sub *Subscription, onData func()) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint(sub.path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := statusError(resp.StatusCode, body); err != nil {
			return err
		}
		return fmt.Errorf("firebase stream status %d", resp.StatusCode)
	}

	var (
		tree  any
		event string
		data  strings.Builder
	)
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if event == "" {
				continue
			}
			next, changed, err := applyEvent(tree, event, data.String())
			event = ""
			data.Reset()
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			tree = next
			raw, err := encodeTree(tree)
			if err != nil {
				return err
			}
			onData()
			sub.push(Snapshot{Path: sub.path, Value: raw})
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}

// applyEvent folds one stream event into the local tree.
func applyEvent(tree any, event, data string) (any, bool, error) {
	switch event {
	case "put", "patch":
		var msg streamEvent
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return tree, false, fmt.Errorf("decode %s event: %w", event, err)
		}
		segs := splitPath(msg.Path)
		if event == "put" {
			value, err := decodeTree(msg.Data)
			if err != nil {
				return tree, false, fmt.Errorf("decode put data: %w", err)
			}
			return setPath(tree, segs, value), true, nil
		}

		var raw map[string]json.RawMessage
		if err := json.Unmarshal(msg.Data, &raw); err != nil {
			return tree, false, fmt.Errorf("decode patch data: %w", err)
		}
		fields := make(map[string]any, len(raw))
		for k, v := range raw {
			value, err := decodeTree(v)
			if err != nil {
				return tree, false, fmt.Errorf("decode patch field %s: %w", k, err)
			}
			fields[k] = value
		}
		return mergePath(tree, segs, fields), true, nil
	case "keep-alive":
		return tree, false, nil
	case "cancel":
		return tree, false, ErrPermissionDenied
	case "auth_revoked":
		return tree, false, errAuthRevoked
	default:
		return tree, false, nil
	}
}
