package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"collabcore/internal/collab"
)

// PresenceCache tracks which users are active in which documents and their
// last-known cursor position, all backed by Redis so presence survives
// individual gateway instance restarts.
type PresenceCache interface {
	AddMember(ctx context.Context, docID string, userID uint64, username string, ttl time.Duration) error
	GetDocuments(ctx context.Context) ([]string, error)
	GetAliveMembersWithNames(ctx context.Context, docID string) ([]PresenceMember, error)
	SetCursor(ctx context.Context, docID string, userID uint64, pos collab.Position, ttl time.Duration) error
	GetCursor(ctx context.Context, docID string, userID uint64) (collab.Position, error)
}

type redisPresence struct {
	rdb *redis.Client
}

type PresenceMember struct {
	UserID   uint64
	Username string
}

func NewRedisPresence(rdb *redis.Client) PresenceCache {
	return &redisPresence{rdb: rdb}
}

func (p *redisPresence) AddMember(ctx context.Context, docID string, userID uint64, username string, ttl time.Duration) error {
	tx := p.rdb.TxPipeline()
	// score = expireAt (unix seconds), giving the ZSET a logical TTL per
	// member independent of the key's own TTL.
	expireAt := time.Now().Add(ttl).Unix()
	tx.ZAdd(ctx, roomKey(docID), redis.Z{Score: float64(expireAt), Member: userID})
	tx.HSet(ctx, namesKey(docID), userID, username)
	_, err := tx.Exec(ctx)
	return err
}

func (p *redisPresence) GetDocuments(ctx context.Context) ([]string, error) {
	var documents []string
	iter := p.rdb.Scan(ctx, 0, "presence:room:*", 0).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		// namesKey also starts with "presence:room:" (presence:room:names:{docID})
		// and must be filtered out.
		if strings.Contains(k, ":names:") {
			continue
		}
		docID := strings.TrimSuffix(strings.TrimPrefix(k, "presence:room:{docID:"), "}")
		if docID != "" {
			documents = append(documents, docID)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return documents, nil
}

func (p *redisPresence) SetCursor(ctx context.Context, docID string, userID uint64, pos collab.Position, ttl time.Duration) error {
	b, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	key := "presence:cursor:" + docID + ":" + strconv.FormatUint(userID, 10)
	return p.rdb.Set(ctx, key, b, ttl).Err()
}

func (p *redisPresence) GetCursor(ctx context.Context, docID string, userID uint64) (collab.Position, error) {
	key := "presence:cursor:" + docID + ":" + strconv.FormatUint(userID, 10)
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return collab.Position{}, err
	}
	var pos collab.Position
	if err := json.Unmarshal(b, &pos); err != nil {
		return collab.Position{}, err
	}
	return pos, nil
}

func (p *redisPresence) GetAliveMembersWithNames(ctx context.Context, docID string) ([]PresenceMember, error) {
	// step 1: sweep expired members (score = expireAt <= now) and drop them
	// from both the room ZSET and the names Hash in one round trip.
	now := time.Now().Unix()
	luaScript := `
	-- KEYS[1] = roomKey(docID)   e.g. presence:room:{docID}
	-- KEYS[2] = namesKey(docID)  e.g. presence:room:names:{docID}
	-- ARGV[1] = now (unix seconds)

	local expired = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
	if #expired > 0 then
		redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
		redis.call("HDEL", KEYS[2], unpack(expired))
	end
	return #expired
	`

	script := redis.NewScript(luaScript)
	_, err := script.Run(ctx, p.rdb, []string{roomKey(docID), namesKey(docID)}, now).Int()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	// step 2: fetch the members still alive.
	aliveIDs, err := p.rdb.ZRangeByScore(ctx, roomKey(docID), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(now, 10),
		Max: "+inf",
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if len(aliveIDs) == 0 {
		return nil, nil
	}
	aliveIDsUint64 := make([]uint64, 0, len(aliveIDs))
	for _, aliveID := range aliveIDs {
		uid, err := strconv.ParseUint(aliveID, 10, 64)
		if err != nil && err != redis.Nil {
			return nil, err
		}
		aliveIDsUint64 = append(aliveIDsUint64, uid)
	}

	// step 3: batch-fetch display names.
	names, err := p.rdb.HMGet(ctx, namesKey(docID), aliveIDs...).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	members := make([]PresenceMember, 0, len(aliveIDsUint64))
	for i, v := range names {
		name := ""
		if v != nil {
			name, _ = v.(string)
		}
		members = append(members, PresenceMember{UserID: aliveIDsUint64[i], Username: name})
	}
	return members, nil
}
