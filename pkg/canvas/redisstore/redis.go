// Package redisstore keeps a canvas in Redis so several cardtree processes
// can share it.
//
// Layout of the keys below a prefix P:
//
//	P:node:<id>        JSON node
//	P:conn:<id>        JSON connector
//	P:nodes            list of node ids, insertion order
//	P:conns            list of connector ids, insertion order
//	P:attached:<id>    list of connector ids attached to node <id>
//
// Read-modify-write operations run inside WATCH/MULTI transactions and are
// retried when another client touches the same keys.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/cardtree/pkg/canvas"
)

// maxTxRetries bounds optimistic transaction retries.
const maxTxRetries = 16

// Store is a Redis-backed canvas.Store.
type Store struct {
	client *redis.Client
	prefix string
	owned  bool
}

// Open connects to addr and verifies the connection.
func Open(ctx context.Context, addr, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	s := New(client, prefix)
	s.owned = true
	return s, nil
}

// New wraps an existing client. Close leaves a client passed here open.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "cardtree"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) nodeKey(id string) string     { return s.prefix + ":node:" + id }
func (s *Store) connKey(id string) string     { return s.prefix + ":conn:" + id }
func (s *Store) attachedKey(id string) string { return s.prefix + ":attached:" + id }
func (s *Store) nodesKey() string             { return s.prefix + ":nodes" }
func (s *Store) connsKey() string             { return s.prefix + ":conns" }

// =============================================================================
// Nodes
// =============================================================================

func (s *Store) Node(ctx context.Context, id string) (*canvas.Node, error) {
	return getJSON[canvas.Node](ctx, s.client, s.nodeKey(id))
}

func (s *Store) Nodes(ctx context.Context) ([]*canvas.Node, error) {
	ids, err := s.client.LRange(ctx, s.nodesKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return mgetJSON[canvas.Node](ctx, s.client, ids, s.nodeKey)
}

func (s *Store) PutNode(ctx context.Context, n *canvas.Node) error {
	if n == nil || n.ID == "" {
		return canvas.ErrInvalidNodeID
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := s.nodeKey(n.ID)
	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if exists == 0 {
				pipe.RPush(ctx, s.nodesKey(), n.ID)
			}
			return nil
		})
		return err
	}, key)
}

func (s *Store) UpdateNode(ctx context.Context, id string, fn func(*canvas.Node)) (*canvas.Node, error) {
	key := s.nodeKey(id)
	var out *canvas.Node
	err := s.watch(ctx, func(tx *redis.Tx) error {
		n, err := getJSON[canvas.Node](ctx, tx, key)
		if err != nil {
			return err
		}
		if n == nil {
			return canvas.ErrNodeNotFound
		}
		fn(n)
		n.ID = id
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		out = n
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	key := s.nodeKey(id)
	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return canvas.ErrNodeNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.LRem(ctx, s.nodesKey(), 0, id)
			return nil
		})
		return err
	}, key)
}

// =============================================================================
// Connectors
// =============================================================================

func (s *Store) AttachedConnectors(ctx context.Context, nodeID string) ([]canvas.Connector, error) {
	ids, err := s.client.LRange(ctx, s.attachedKey(nodeID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.connectors(ctx, ids)
}

func (s *Store) Connectors(ctx context.Context) ([]canvas.Connector, error) {
	ids, err := s.client.LRange(ctx, s.connsKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.connectors(ctx, ids)
}

func (s *Store) connectors(ctx context.Context, ids []string) ([]canvas.Connector, error) {
	ptrs, err := mgetJSON[canvas.Connector](ctx, s.client, ids, s.connKey)
	if err != nil {
		return nil, err
	}
	out := make([]canvas.Connector, len(ptrs))
	for i, c := range ptrs {
		out[i] = *c
	}
	return out, nil
}

func (s *Store) PutConnector(ctx context.Context, c canvas.Connector) error {
	if c.ID == "" {
		return canvas.ErrInvalidNodeID
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	key := s.connKey(c.ID)
	return s.watch(ctx, func(tx *redis.Tx) error {
		old, err := getJSON[canvas.Connector](ctx, tx, key)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if old != nil {
				s.detach(ctx, pipe, *old)
			} else {
				pipe.RPush(ctx, s.connsKey(), c.ID)
			}
			pipe.Set(ctx, key, data, 0)
			s.attach(ctx, pipe, c)
			return nil
		})
		return err
	}, key)
}

func (s *Store) UpdateConnector(ctx context.Context, id string, fn func(*canvas.Connector)) error {
	key := s.connKey(id)
	return s.watch(ctx, func(tx *redis.Tx) error {
		cur, err := getJSON[canvas.Connector](ctx, tx, key)
		if err != nil {
			return err
		}
		if cur == nil {
			return canvas.ErrConnectorNotFound
		}
		next := *cur
		fn(&next)
		next.ID = id
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		moved := next.Start.NodeID != cur.Start.NodeID || next.End.NodeID != cur.End.NodeID
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if moved {
				s.detach(ctx, pipe, *cur)
				s.attach(ctx, pipe, next)
			}
			return nil
		})
		return err
	}, key)
}

func (s *Store) DeleteConnector(ctx context.Context, id string) error {
	key := s.connKey(id)
	return s.watch(ctx, func(tx *redis.Tx) error {
		cur, err := getJSON[canvas.Connector](ctx, tx, key)
		if err != nil {
			return err
		}
		if cur == nil {
			return canvas.ErrConnectorNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.LRem(ctx, s.connsKey(), 0, id)
			s.detach(ctx, pipe, *cur)
			return nil
		})
		return err
	}, key)
}

func (s *Store) attach(ctx context.Context, pipe redis.Pipeliner, c canvas.Connector) {
	pipe.RPush(ctx, s.attachedKey(c.Start.NodeID), c.ID)
	if c.End.NodeID != c.Start.NodeID {
		pipe.RPush(ctx, s.attachedKey(c.End.NodeID), c.ID)
	}
}

func (s *Store) detach(ctx context.Context, pipe redis.Pipeliner, c canvas.Connector) {
	pipe.LRem(ctx, s.attachedKey(c.Start.NodeID), 0, c.ID)
	pipe.LRem(ctx, s.attachedKey(c.End.NodeID), 0, c.ID)
}

// Clear deletes every key of this canvas.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 256).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Close closes the client if Open created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// watch runs fn in an optimistic transaction over keys, retrying when a
// watched key changes before EXEC.
func (s *Store) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis transaction on %v: %w", keys, redis.TxFailedErr)
}

// =============================================================================
// JSON helpers
// =============================================================================

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func getJSON[T any](ctx context.Context, c getter, key string) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

// mgetJSON loads ids in order, skipping keys that vanished between the list
// read and the MGET.
func mgetJSON[T any](ctx context.Context, c getter, ids []string, key func(string) string) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	vals, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(vals))
	for i, raw := range vals {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// Ensure Store implements canvas.Store.
var _ canvas.Store = (*Store)(nil)
