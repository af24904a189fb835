package cache

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/prathoseraaj/papit/backend/internal/room"
)

// PresenceCache mirrors room membership into a shared store so operators (or
// sibling services) can observe who is online without asking the process that
// owns the room. It is strictly a mirror: the in-process registry remains the
// source of truth for broadcasts.
type PresenceCache interface {
	AddMember(ctx context.Context, roomID string, u room.User, ttl time.Duration) error
	RemoveMember(ctx context.Context, roomID, userID string) error
	AliveMembers(ctx context.Context, roomID string) ([]Member, error)
	SetCursor(ctx context.Context, roomID, userID string, jsonData []byte, ttl time.Duration) error
	GetCursor(ctx context.Context, roomID, userID string) ([]byte, error)
}

type Member struct {
	UserID string
	Name   string
}

type redisPresence struct {
	rdb redis.UniversalClient
}

func NewRedisPresence(rdb redis.UniversalClient) PresenceCache {
	return &redisPresence{rdb: rdb}
}

func (p *redisPresence) AddMember(ctx context.Context, roomID string, u room.User, ttl time.Duration) error {
	// re-adding refreshes the logical TTL
	tx := p.rdb.TxPipeline()
	expireAt := time.Now().Add(ttl).Unix()
	tx.ZAdd(ctx, roomKey(roomID), redis.Z{Score: float64(expireAt), Member: u.ID})
	tx.HSet(ctx, namesKey(roomID), u.ID, u.Name)
	_, err := tx.Exec(ctx)
	return err
}

func (p *redisPresence) RemoveMember(ctx context.Context, roomID, userID string) error {
	tx := p.rdb.TxPipeline()
	tx.ZRem(ctx, roomKey(roomID), userID)
	tx.HDel(ctx, namesKey(roomID), userID)
	tx.Del(ctx, cursorKey(roomID, userID))
	_, err := tx.Exec(ctx)
	return err
}

func (p *redisPresence) SetCursor(ctx context.Context, roomID, userID string, jsonData []byte, ttl time.Duration) error {
	return p.rdb.Set(ctx, cursorKey(roomID, userID), jsonData, ttl).Err()
}

func (p *redisPresence) GetCursor(ctx context.Context, roomID, userID string) ([]byte, error) {
	return p.rdb.Get(ctx, cursorKey(roomID, userID)).Bytes()
}

// expireScript drops members whose logical TTL (score=expireAt, unix seconds)
// has passed, together with their name entries.
var expireScript = redis.NewScript(`
local expired = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
if #expired > 0 then
	redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
	redis.call("HDEL", KEYS[2], unpack(expired))
end
return #expired
`)

func (p *redisPresence) AliveMembers(ctx context.Context, roomID string) ([]Member, error) {
	now := time.Now().Unix()
	_, err := expireScript.Run(ctx, p.rdb, []string{roomKey(roomID), namesKey(roomID)}, now).Int()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	aliveIDs, err := p.rdb.ZRangeByScore(ctx, roomKey(roomID), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(now, 10),
		Max: "+inf",
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if len(aliveIDs) == 0 {
		return nil, nil
	}

	names, err := p.rdb.HMGet(ctx, namesKey(roomID), aliveIDs...).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	members := make([]Member, 0, len(aliveIDs))
	for i, id := range aliveIDs {
		name := ""
		if i < len(names) && names[i] != nil {
			name, _ = names[i].(string)
		}
		members = append(members, Member{UserID: id, Name: name})
	}
	return members, nil
}
