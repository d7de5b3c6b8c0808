package clickguard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard отсекает повторное нажатие той же кнопки тем же пользователем в пределах TTL.
// Acquire возвращает true, если нажатие первое и его надо обрабатывать.
type Guard interface {
	Acquire(ctx context.Context, userID int64, data string) (bool, error)
}

func key(userID int64, data string) string {
	return fmt.Sprintf("tennisbot:click:%d:%s", userID, data)
}

// Redis — общий для нескольких реплик бота замок на SET NX PX.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (g *Redis) Acquire(ctx context.Context, userID int64, data string) (bool, error) {
	if g.ttl <= 0 {
		return true, nil
	}
	ok, err := g.rdb.SetNX(ctx, key(userID, data), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("click guard: %w", err)
	}
	return ok, nil
}

// Memory — для одного процесса без Redis.
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

func (g *Memory) Acquire(_ context.Context, userID int64, data string) (bool, error) {
	if g.ttl <= 0 {
		return true, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	k := key(userID, data)
	if until, ok := g.seen[k]; ok && now.Before(until) {
		return false, nil
	}
	g.seen[k] = now.Add(g.ttl)

	// чистим протухшие, чтобы карта не росла
	if len(g.seen) > 1024 {
		for k, until := range g.seen {
			if !now.Before(until) {
				delete(g.seen, k)
			}
		}
	}
	return true, nil
}
