package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/dex-proxy/internal/constants"
	"github.com/aman-zulfiqar/dex-proxy/internal/fees"
	"github.com/aman-zulfiqar/dex-proxy/internal/proxy"
)

var ErrNotFound = errors.New("engine state not found")

// record is the JSON document stored under constants.RedisKeyState. The
// membership sets live in their own Redis sets.
type record struct {
	Owner  common.Address `json:"owner"`
	Params fees.Params    `json:"params"`
}

// ConfigStore persists the engine configuration so a restarted server resumes
// with the same owner, rates and whitelists.
type ConfigStore struct {
	client redis.Cmdable
}

func NewConfigStore(client redis.Cmdable) (*ConfigStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &ConfigStore{client: client}, nil
}

// Save replaces the stored state atomically.
func (s *ConfigStore) Save(ctx context.Context, st proxy.State) error {
	b, err := json.Marshal(record{Owner: st.Owner, Params: st.Params})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, constants.RedisKeyState, b, 0)
	pipe.Del(ctx, constants.RedisKeyFeeValues, constants.RedisKeyRouters)
	if len(st.FeeValues) > 0 {
		members := make([]interface{}, len(st.FeeValues))
		for i, v := range st.FeeValues {
			members[i] = strconv.FormatUint(v, 10)
		}
		pipe.SAdd(ctx, constants.RedisKeyFeeValues, members...)
	}
	if len(st.Routers) > 0 {
		members := make([]interface{}, len(st.Routers))
		for i, r := range st.Routers {
			members[i] = r.Hex()
		}
		pipe.SAdd(ctx, constants.RedisKeyRouters, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *ConfigStore) Load(ctx context.Context) (proxy.State, error) {
	val, err := s.client.Get(ctx, constants.RedisKeyState).Result()
	if err == redis.Nil {
		return proxy.State{}, ErrNotFound
	}
	if err != nil {
		return proxy.State{}, fmt.Errorf("get state: %w", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return proxy.State{}, fmt.Errorf("unmarshal state: %w", err)
	}

	values, err := s.client.SMembers(ctx, constants.RedisKeyFeeValues).Result()
	if err != nil {
		return proxy.State{}, fmt.Errorf("list fee values: %w", err)
	}
	routers, err := s.client.SMembers(ctx, constants.RedisKeyRouters).Result()
	if err != nil {
		return proxy.State{}, fmt.Errorf("list routers: %w", err)
	}

	st := proxy.State{
		Owner:     rec.Owner,
		Params:    rec.Params,
		FeeValues: make([]uint64, 0, len(values)),
		Routers:   make([]common.Address, 0, len(routers)),
	}
	for _, v := range values {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return proxy.State{}, fmt.Errorf("fee value %q: %w", v, err)
		}
		st.FeeValues = append(st.FeeValues, n)
	}
	for _, r := range routers {
		if !common.IsHexAddress(r) {
			return proxy.State{}, fmt.Errorf("router %q is not an address", r)
		}
		st.Routers = append(st.Routers, common.HexToAddress(r))
	}
	sort.Slice(st.FeeValues, func(i, j int) bool { return st.FeeValues[i] < st.FeeValues[j] })
	sort.Slice(st.Routers, func(i, j int) bool { return st.Routers[i].Hex() < st.Routers[j].Hex() })
	return st, nil
}

func (s *ConfigStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, constants.RedisKeyState, constants.RedisKeyFeeValues, constants.RedisKeyRouters).Err(); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}
