package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Store persists entities of one resource type.
//
// FindAll never returns a nil slice. FindByID reports a missing entity with
// ok == false and a nil error. Save inserts when the entity's generated key is
// unset, assigning one, and otherwise replaces the stored record.
type Store[E Entity[E, K], K comparable] interface {
	FindAll(ctx context.Context) ([]E, error)
	FindByID(ctx context.Context, key K) (E, bool, error)
	Save(ctx context.Context, entity E) (E, error)
	Delete(ctx context.Context, entity E) error
}

// RedisStore provides entity persistence in Redis. Each entity is a JSON blob
// under "<resource>:<key>"; a sorted set "<resource>:index" keeps insertion
// order and "<resource>:seq" counts inserts.
type RedisStore[E Entity[E, K], K comparable] struct {
	client *redis.Client
	def    *ResourceDef[E, K]
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore[E Entity[E, K], K comparable](client *redis.Client, def *ResourceDef[E, K]) *RedisStore[E, K] {
	return &RedisStore[E, K]{client: client, def: def}
}

func (s *RedisStore[E, K]) entityKey(key K) string {
	return fmt.Sprintf("%s:%v", s.def.Name, key)
}

func (s *RedisStore[E, K]) indexKey() string { return s.def.Name + ":index" }

func (s *RedisStore[E, K]) seqKey() string { return s.def.Name + ":seq" }

// Save stores a new or updated entity in Redis.
func (s *RedisStore[E, K]) Save(ctx context.Context, entity E) (E, error) {
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return entity, fmt.Errorf("redis: next %s sequence: %w", s.def.Name, err)
	}
	var zero K
	if s.def.generated() && entity.Key() == zero {
		entity = entity.WithKey(s.def.NextKey(seq))
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return entity, err
	}
	member := fmt.Sprint(entity.Key())
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.entityKey(entity.Key()), data, 0)
	// NX keeps the first insertion position of an updated entity
	pipe.ZAddNX(ctx, s.indexKey(), &redis.Z{Score: float64(seq), Member: member})
	if _, err := pipe.Exec(ctx); err != nil {
		return entity, fmt.Errorf("redis: save %s: %w", s.entityKey(entity.Key()), err)
	}
	return entity, nil
}

// FindByID retrieves an entity by key.
func (s *RedisStore[E, K]) FindByID(ctx context.Context, key K) (E, bool, error) {
	var entity E
	data, err := s.client.Get(ctx, s.entityKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return entity, false, nil
		}
		return entity, false, fmt.Errorf("redis: get %s: %w", s.entityKey(key), err)
	}
	if err := json.Unmarshal(data, &entity); err != nil {
		return entity, false, err
	}
	return entity, true, nil
}

// Delete removes an entity and its index entry.
func (s *RedisStore[E, K]) Delete(ctx context.Context, entity E) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.entityKey(entity.Key()))
	pipe.ZRem(ctx, s.indexKey(), fmt.Sprint(entity.Key()))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: delete %s: %w", s.entityKey(entity.Key()), err)
	}
	return nil
}

// FindAll returns every entity of the resource in insertion order.
func (s *RedisStore[E, K]) FindAll(ctx context.Context) ([]E, error) {
	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list %s: %w", s.def.Name, err)
	}
	if len(members) == 0 {
		return []E{}, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(members))
	for i, member := range members {
		cmds[i] = pipe.Get(ctx, s.def.Name+":"+member)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis: list %s: %w", s.def.Name, err)
	}
	entities := make([]E, 0, len(members))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var entity E
		if err := json.Unmarshal(data, &entity); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
