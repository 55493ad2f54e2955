package service

import (
	"ben-bank-api/model"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookCache is a map-backed ICacheClient that can run a hook before a Set
// lands, and counts how often it is used.
type hookCache struct {
	data      map[string]string
	beforeSet func()
	calls     int
}

func (c *hookCache) Get(ctx context.Context, key string) *redis.StringCmd {
	c.calls++
	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *hookCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.calls++
	if c.beforeSet != nil {
		hook := c.beforeSet
		c.beforeSet = nil
		hook()
	}
	c.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func TestAccountService_OwnerCache(t *testing.T) {
	ctx := context.Background()
	ttl := 2 * time.Minute

	newCachedService := func(t *testing.T) (*AccountService, *memStore, redismock.ClientMock, *model.Account) {
		store := newMemStore()
		client, cacheMock := redismock.NewClientMock()
		t.Cleanup(func() {
			assert.NoError(t, cacheMock.ExpectationsWereMet())
		})
		svc, _ := newTestAccountService(t, store, AccountOptions{Cache: client, CacheTTL: ttl})
		user := store.addUser(t)
		account := store.addAccount(t, user.ID, 2200000050, "75", "1234")
		return svc, store, cacheMock, account
	}
	ownerData := func(t *testing.T, account *model.Account) []byte {
		data, err := json.Marshal(accountOwner{ID: account.ID, OwnerID: account.OwnerID})
		require.NoError(t, err)
		return data
	}

	t.Run("miss loads from the store and caches the owner", func(t *testing.T) {
		svc, store, cacheMock, account := newCachedService(t)
		key := accountOwnerCacheKey(account.ID)

		cacheMock.ExpectGet(key).RedisNil()
		cacheMock.ExpectSet(key, ownerData(t, account), ttl).SetVal("OK")

		history, err := svc.GetHistory(ctx, account.OwnerID, account.ID)

		require.NoError(t, err)
		assert.Empty(t, history)
		assert.Equal(t, 1, store.getByID)
	})

	t.Run("hit skips the store", func(t *testing.T) {
		svc, store, cacheMock, account := newCachedService(t)

		cacheMock.ExpectGet(accountOwnerCacheKey(account.ID)).SetVal(string(ownerData(t, account)))

		_, err := svc.GetHistory(ctx, account.OwnerID, account.ID)

		require.NoError(t, err)
		assert.Zero(t, store.getByID)
	})

	t.Run("cached owner still rejects other callers", func(t *testing.T) {
		svc, _, cacheMock, account := newCachedService(t)

		cacheMock.ExpectGet(accountOwnerCacheKey(account.ID)).SetVal(string(ownerData(t, account)))

		_, err := svc.GetHistory(ctx, account.ID, account.ID)

		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("cache errors fall back to the store", func(t *testing.T) {
		svc, _, cacheMock, account := newCachedService(t)
		key := accountOwnerCacheKey(account.ID)

		cacheMock.ExpectGet(key).SetErr(errors.New("connection refused"))
		cacheMock.ExpectSet(key, ownerData(t, account), ttl).SetErr(errors.New("connection refused"))

		_, err := svc.GetHistory(ctx, account.OwnerID, account.ID)

		require.NoError(t, err)
	})

	t.Run("balance reads the row, not the cache", func(t *testing.T) {
		store := newMemStore()
		cache := &hookCache{data: map[string]string{}}
		svc, _ := newTestAccountService(t, store, AccountOptions{Cache: cache, CacheTTL: ttl})
		user := store.addUser(t)
		account := store.addAccount(t, user.ID, 2200000051, "75", "1234")

		balance, err := svc.GetBalance(ctx, user.ID, account.ID)

		require.NoError(t, err)
		assert.True(t, balance.Equal(amount("75")))
		assert.Zero(t, cache.calls)
	})

	t.Run("transfer reads the sender from the store", func(t *testing.T) {
		store := newMemStore()
		cache := &hookCache{data: map[string]string{}}
		svc, mock := newTestAccountService(t, store, AccountOptions{Cache: cache, CacheTTL: ttl})
		owner, other := store.addUser(t), store.addUser(t)
		sender := store.addAccount(t, owner.ID, 2200000053, "75", "1234")
		receiver := store.addAccount(t, other.ID, 2200000054, "0", "9999")
		store.resetCalls()

		expectCommit(mock)
		err := svc.Transfer(ctx, owner.ID, sender.ID, model.TransferRequest{Amount: amount("25"), Pin: "1234", AccountNumber: receiver.Number})

		require.NoError(t, err)
		assert.Zero(t, cache.calls)
		require.NotEmpty(t, store.calls)
		assert.Equal(t, "GetAccountByID", store.calls[0])
		assert.True(t, store.account(receiver.ID).Balance.Equal(amount("25")))
	})

	t.Run("deposit committed while the owner is being cached", func(t *testing.T) {
		store := newMemStore()
		cache := &hookCache{data: map[string]string{}}
		svc, mock := newTestAccountService(t, store, AccountOptions{Cache: cache, CacheTTL: ttl})
		user := store.addUser(t)
		account := store.addAccount(t, user.ID, 2200000052, "75", "1234")

		expectCommit(mock)
		cache.beforeSet = func() {
			_, err := svc.Deposit(ctx, user.ID, account.ID, model.DepositRequest{Amount: amount("25")})
			require.NoError(t, err)
		}

		_, err := svc.GetHistory(ctx, user.ID, account.ID)
		require.NoError(t, err)
		require.Nil(t, cache.beforeSet)

		balance, err := svc.GetBalance(ctx, user.ID, account.ID)

		require.NoError(t, err)
		assert.True(t, store.account(account.ID).Balance.Equal(amount("100")))
		assert.True(t, balance.Equal(amount("100")))

		history, err := svc.GetHistory(ctx, user.ID, account.ID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})
}
