package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// admitScript checks every key against its limit and only increments when
// all of them have room. Returns {0, index, count, pttl} on rejection or
// {1, 0, count1, pttl1, count2, pttl2, ...} on admission.
//
// KEYS: window keys. ARGV: limits for each key, then window lengths in ms.
var admitScript = redis.NewScript(`
local n = #KEYS
for i = 1, n do
  local count = tonumber(redis.call('GET', KEYS[i]) or '0')
  if count >= tonumber(ARGV[i]) then
    return {0, i, count, redis.call('PTTL', KEYS[i])}
  end
end
local out = {1, 0}
for i = 1, n do
  local count = redis.call('INCR', KEYS[i])
  if count == 1 then
    redis.call('PEXPIRE', KEYS[i], ARGV[n + i])
  end
  table.insert(out, count)
  table.insert(out, redis.call('PTTL', KEYS[i]))
end
return out
`)

// RedisStore shares window counters between instances. Keys expire with
// their window, so Sweep has nothing to do.
//
// All keys carry the same hash tag so the script stays on one cluster slot.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, prefix: "leadchat:{rl}:"}
}

// Admit runs the admission script. Reset instants are derived from the
// remaining key TTL relative to now.
func (s *RedisStore) Admit(ctx context.Context, now time.Time, checks []Check) (Outcome, error) {
	keys := make([]string, len(checks))
	args := make([]any, 0, 2*len(checks))
	for i, c := range checks {
		keys[i] = s.prefix + c.Key
		args = append(args, c.Limit)
	}
	for _, c := range checks {
		args = append(args, c.Window.Milliseconds())
	}

	res, err := admitScript.Run(ctx, s.client, keys, args...).Int64Slice()
	if err != nil {
		return Outcome{}, fmt.Errorf("redis admit: %w", err)
	}
	if len(res) < 2 {
		return Outcome{}, fmt.Errorf("redis admit: unexpected reply length %d", len(res))
	}

	out := Outcome{Rejected: -1, Windows: make([]WindowState, len(checks))}
	if res[0] == 0 {
		idx := int(res[1]) - 1
		if idx < 0 || idx >= len(checks) || len(res) < 4 {
			return Outcome{}, fmt.Errorf("redis admit: malformed rejection %v", res)
		}
		out.Rejected = idx
		out.Windows[idx] = WindowState{
			Count:   int(res[2]),
			ResetAt: resetFromTTL(now, res[3], checks[idx].Window),
		}
		return out, nil
	}

	if len(res) != 2+2*len(checks) {
		return Outcome{}, fmt.Errorf("redis admit: unexpected reply length %d", len(res))
	}
	for i := range checks {
		out.Windows[i] = WindowState{
			Count:   int(res[2+2*i]),
			ResetAt: resetFromTTL(now, res[3+2*i], checks[i].Window),
		}
	}
	out.Allowed = true
	return out, nil
}

// Sweep is a no-op; Redis expires keys itself.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func resetFromTTL(now time.Time, pttl int64, window time.Duration) time.Time {
	if pttl <= 0 {
		return now.Add(window)
	}
	return now.Add(time.Duration(pttl) * time.Millisecond)
}
