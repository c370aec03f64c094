package session

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Pusher signals a user's live sessions over redis pub/sub. Persistence of
// the notification itself is handled elsewhere; this channel is best-effort.
type Pusher struct {
	rdb *redis.Client
}

func NewPusher(addr string) *Pusher {
	return &Pusher{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (p *Pusher) Push(ctx context.Context, userID string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, "sessions:"+userID, b).Err()
}

func (p *Pusher) Close() error {
	return p.rdb.Close()
}
