package studentlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "tutorly:student-lock:"
	DefaultTTL      = 30 * time.Second
	defaultPollWait = 50 * time.Millisecond
)

// ErrLockLost is passed to OnRelease when the key expired or changed owner
// before unlock ran.
var ErrLockLost = errors.New("studentlock: lock expired before release")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process pointed at the same redis. A
// holder that dies leaves the key until the TTL expires.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	poll   time.Duration
	// OnRelease, if set, receives the result of each unlock.
	OnRelease func(student string, err error)
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, poll: defaultPollWait}
}

func (r *Redis) Lock(ctx context.Context, student string) (func(), error) {
	key := keyPrefix + student
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock for %q: %w", student, err)
		}
		if ok {
			break
		}
		t := time.NewTimer(r.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	return func() {
		// The caller's ctx may already be cancelled; release anyway.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := releaseScript.Run(rctx, r.client, []string{key}, token).Int()
		if err == nil && n == 0 {
			err = ErrLockLost
		}
		if r.OnRelease != nil {
			r.OnRelease(student, err)
		}
	}, nil
}
