package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AngeluzFranco/OrbitSave/src/model"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	ledgerKeyPrefix = "orbitsave:ledger:"
	walletKeyPrefix = "orbitsave:wallet:"
)

// RedisPersistence stores one JSON blob per session key, whole-state replace
// on every write. Dates round-trip as RFC 3339 strings via encoding/json.
type RedisPersistence struct {
	client *redis.Client
}

func NewRedisPersistence(client *redis.Client) *RedisPersistence {
	return &RedisPersistence{client: client}
}

func (r *RedisPersistence) LoadState(ctx context.Context, key string) (*model.LedgerState, error) {
	raw, err := r.client.Get(ctx, ledgerKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed reading ledger blob")
	}
	return decodeState(raw)
}

func (r *RedisPersistence) SaveState(ctx context.Context, key string, state *model.LedgerState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, ledgerKeyPrefix+key, raw, 0).Err(); err != nil {
		return errors.Wrap(err, "failed writing ledger blob")
	}
	return nil
}

func (r *RedisPersistence) ClearState(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, ledgerKeyPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "failed deleting ledger blob")
	}
	return nil
}

func (r *RedisPersistence) LoadWallet(ctx context.Context, key string) (*model.WalletSession, error) {
	raw, err := r.client.Get(ctx, walletKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed reading wallet session")
	}
	return decodeWallet(raw)
}

func (r *RedisPersistence) SaveWallet(ctx context.Context, key string, session *model.WalletSession) error {
	raw, err := encodeWallet(session)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, walletKeyPrefix+key, raw, 0).Err(); err != nil {
		return errors.Wrap(err, "failed writing wallet session")
	}
	return nil
}

func (r *RedisPersistence) ClearWallet(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, walletKeyPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "failed deleting wallet session")
	}
	return nil
}

func encodeState(state *model.LedgerState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshaling ledger state")
	}
	return raw, nil
}

func decodeState(raw []byte) (*model.LedgerState, error) {
	state := &model.LedgerState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, errors.Wrap(err, "failed unmarshaling ledger state")
	}
	return state, nil
}

func encodeWallet(session *model.WalletSession) ([]byte, error) {
	raw, err := json.Marshal(session)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshaling wallet session")
	}
	return raw, nil
}

func decodeWallet(raw []byte) (*model.WalletSession, error) {
	session := &model.WalletSession{}
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, errors.Wrap(err, "failed unmarshaling wallet session")
	}
	return session, nil
}

// ConfigureRedis builds a client for the given address using the defaults
// the rest of the codebase expects.
func ConfigureRedis(address string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: address,
		DB:   0, // use default DB
	})
}

// PingRedis verifies connectivity, wrapping the address into the error.
func PingRedis(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to connect to redis at %s", client.Options().Addr))
	}
	return nil
}
