package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// storeNode is one leaf of the document tree.
type storeNode struct {
	bun.BaseModel `bun:"table:store_nodes"`

	Path     string `bun:"path,pk"`
	Value    string `bun:"value,notnull"`
	Revision int64  `bun:"revision,notnull"`
}

// SQL keeps the document tree in a relational table, one row per leaf.
// Subscriptions poll the subtree's revision fingerprint.
type SQL struct {
	writer       *bun.DB
	reader       *bun.DB
	pollInterval time.Duration
	logger       *zap.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*Subscription]struct{}
}

// NewSQL builds the relational driver. reader may equal writer.
func NewSQL(writer, reader *bun.DB, pollInterval time.Duration, logger *zap.Logger) *SQL {
	if reader == nil {
		reader = writer
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQL{
		writer:       writer,
		reader:       reader,
		pollInterval: pollInterval,
		logger:       logger,
		subs:         make(map[*Subscription]struct{}),
	}
}

// subtree matches path and everything below it. The range comparison
// avoids LIKE escaping of keys containing '_' or '%'.
func subtree(path string) (string, []any) {
	if path == "" {
		return "1 = 1", nil
	}
	return "path = ? OR (path >= ? AND path < ?)", []any{path, path + "/", path + "0"}
}

// Read rebuilds the subtree at path from its leaves.
func (s *SQL) Read(ctx context.Context, path string) (Snapshot, error) {
	path = Join(path)
	snap, err := s.read(ctx, s.reader, path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return snap, nil
}

func (s *SQL) read(ctx context.Context, db bun.IDB, path string) (Snapshot, error) {
	var nodes []storeNode
	where, args := subtree(path)
	if err := db.NewSelect().
		Model(&nodes).
		Where(where, args...).
		OrderExpr("path ASC").
		Scan(ctx); err != nil {
		return Snapshot{}, err
	}

	var tree any
	base := len(splitPath(path))
	for _, n := range nodes {
		value, err := decodeTree([]byte(n.Value))
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode node %s: %w", n.Path, err)
		}
		tree = setPath(tree, splitPath(n.Path)[base:], value)
	}

	raw, err := encodeTree(tree)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Value: raw}, nil
}

// Update replaces each named child of path inside one transaction.
func (s *SQL) Update(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	path = Join(path)

	converted := make(map[string]any, len(fields))
	for k, v := range fields {
		tv, err := toTree(v)
		if err != nil {
			return err
		}
		converted[Join(path, k)] = tv
	}

	err := s.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var revision int64
		if err := tx.NewSelect().
			Model((*storeNode)(nil)).
			ColumnExpr("COALESCE(MAX(revision), 0)").
			Scan(ctx, &revision); err != nil {
			return fmt.Errorf("load revision: %w", err)
		}
		revision++

		targets := make([]string, 0, len(converted))
		for target := range converted {
			targets = append(targets, target)
		}
		sort.Strings(targets)

		for _, target := range targets {
			if err := replaceNode(ctx, tx, target, converted[target], revision); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

func replaceNode(ctx context.Context, tx bun.Tx, target string, value any, revision int64) error {
	where, args := subtree(target)
	del := tx.NewDelete().Model((*storeNode)(nil)).Where(where, args...)
	if ancestors := ancestorPaths(target); len(ancestors) > 0 {
		del = del.WhereOr("path IN (?)", bun.In(ancestors))
	}
	if _, err := del.Exec(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", target, err)
	}

	nodes, err := flatten(target, value, revision)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}
	if _, err := tx.NewInsert().Model(&nodes).Exec(ctx); err != nil {
		return fmt.Errorf("insert %s: %w", target, err)
	}
	return nil
}

// ancestorPaths lists the proper ancestors of path; a leaf stored at any of
// them is overwritten by the new subtree.
func ancestorPaths(path string) []string {
	segs := splitPath(path)
	out := make([]string, 0, len(segs))
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], "/"))
	}
	return out
}

func flatten(path string, value any, revision int64) ([]storeNode, error) {
	if value == nil {
		return nil, nil
	}
	if m, ok := value.(map[string]any); ok {
		var nodes []storeNode
		for k, v := range m {
			child, err := flatten(Join(path, k), v, revision)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, child...)
		}
		return nodes, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode leaf %s: %w", path, err)
	}
	return []storeNode{{Path: path, Value: string(raw), Revision: revision}}, nil
}

type fingerprint struct {
	Count    int64
	Revision int64
}

func (s *SQL) fingerprint(ctx context.Context, path string) (fingerprint, error) {
	var fp fingerprint
	where, args := subtree(path)
	if err := s.reader.NewSelect().
		Model((*storeNode)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(MAX(revision), 0)").
		Where(where, args...).
		Scan(ctx, &fp.Count, &fp.Revision); err != nil {
		return fingerprint{}, err
	}
	return fp, nil
}

// Subscribe polls path and delivers a snapshot whenever its fingerprint
// changes.
func (s *SQL) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	path = Join(path)
	fp, err := s.fingerprint(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}
	snap, err := s.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(path, cancel)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	sub.push(snap)
	go s.poll(subCtx, sub, fp)
	return sub, nil
}

func (s *SQL) poll(ctx context.Context, sub *Subscription, last fingerprint) {
	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		sub.Close()
	}()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		fp, err := s.fingerprint(ctx, sub.path)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("store poll failed", zap.String("path", sub.path), zap.Error(err))
			}
			continue
		}
		if fp == last {
			continue
		}
		snap, err := s.Read(ctx, sub.path)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("store poll read failed", zap.String("path", sub.path), zap.Error(err))
			}
			continue
		}
		last = fp
		if !sub.push(snap) {
			return
		}
	}
}

// Close ends every open subscription.
func (s *SQL) Close() {
	s.mu.Lock()
	s.closed = true
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.finish(ErrClosed)
	}
}
