package distributed

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	glcontext "github.com/vnykmshr/golazy/pkg/common/context"
	glerrors "github.com/vnykmshr/golazy/pkg/common/errors"
	"github.com/vnykmshr/golazy/pkg/metrics"
)

// claimResult values returned by the claim script.
const (
	claimDone     = "done"
	claimHeld     = "claimed"
	claimAcquired = "acquired"
)

// luaClaim atomically inspects the completion marker and the claim,
// acquiring the claim when both are free.
//
// KEYS[1] = done key, KEYS[2] = claim key
// ARGV[1] = instance id, ARGV[2] = claim TTL in milliseconds
const luaClaim = `
local performer = redis.call('GET', KEYS[1])
if performer then
	return {'done', performer}
end
local holder = redis.call('GET', KEYS[2])
if holder then
	return {'claimed', holder}
end
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
return {'acquired', ARGV[1]}
`

// luaComplete publishes the completion marker and drops the claim in one
// atomic step, so no instance can observe "claim gone, not done".
//
// KEYS[1] = done key, KEYS[2] = claim key
// ARGV[1] = instance id, ARGV[2] = done TTL in milliseconds
const luaComplete = `
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
redis.call('DEL', KEYS[2])
return 1
`

// luaRelease drops the claim only if this instance still holds it.
//
// KEYS[1] = claim key
// ARGV[1] = instance id
const luaRelease = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('DEL', KEYS[1])
end
return 1
`

// redisOnce implements Once using Redis for cross-process coordination.
type redisOnce struct {
	config Config
	keys   map[string]string

	claimScript    *redis.Script
	completeScript *redis.Script
	releaseScript  *redis.Script

	// local fallback state, used when Redis is unreachable and
	// FallbackToLocal is set.
	localMu   sync.Mutex
	localDone bool

	metrics *metrics.Registry

	closedMu sync.Mutex
	closed   bool
}

// newRedisOnce creates a Redis-backed once and registers this instance.
func newRedisOnce(config Config) (*redisOnce, error) {
	ro := &redisOnce{
		config:         config,
		keys:           onceKeys(config.Key),
		claimScript:    redis.NewScript(luaClaim),
		completeScript: redis.NewScript(luaComplete),
		releaseScript:  redis.NewScript(luaRelease),
	}

	if err := ro.register(context.Background()); err != nil {
		if !config.FallbackToLocal {
			return nil, err
		}
		// Redis may come back before Do is called; registration is
		// best effort under fallback.
	}

	return ro, nil
}

// register adds this instance to the instances set.
func (ro *redisOnce) register(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ro.config.RedisTimeout)
	defer cancel()

	pipe := ro.config.Redis.Pipeline()
	pipe.SAdd(ctx, ro.keys["instances"], ro.config.InstanceID)
	pipe.Expire(ctx, ro.keys["instances"], ro.config.KeyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return &RedisError{"register", err}
	}
	return nil
}

func (ro *redisOnce) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return &ConfigError{"fn is required"}
	}
	if err := ro.checkClosed(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		state, err := ro.tryClaim(ctx)
		if err != nil {
			if ro.config.FallbackToLocal {
				return ro.doLocal(ctx, fn)
			}
			return err
		}

		ro.countAttempt()

		switch state {
		case claimDone:
			return nil

		case claimAcquired:
			ro.countWin()
			return ro.runClaimed(ctx, fn)

		case claimHeld:
			// Another instance holds the claim; wait for it to finish
			// or for its claim to expire, then re-evaluate.
			ro.countWait()
			if err := glcontext.Sleep(ctx, ro.config.PollInterval); err != nil {
				return err
			}

		default:
			return &RedisError{"claim", errors.New("unexpected claim state " + state)}
		}
	}
}

// tryClaim runs the claim script and decodes its result.
func (ro *redisOnce) tryClaim(ctx context.Context) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, ro.config.RedisTimeout)
	defer cancel()

	raw, err := ro.claimScript.Run(opCtx, ro.config.Redis,
		[]string{ro.keys["done"], ro.keys["claim"]},
		ro.config.InstanceID, ro.config.ClaimTTL.Milliseconds(),
	).Result()
	if err != nil {
		return "", &RedisError{"claim", err}
	}

	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 2 {
		return "", &RedisError{"claim", errors.New("malformed script reply")}
	}

	state, _ := reply[0].(string)
	return state, nil
}

// runClaimed executes fn while holding the claim, then publishes the
// completion marker or releases the claim on failure.
func (ro *redisOnce) runClaimed(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		ro.release(ctx)
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, ro.config.RedisTimeout)
	defer cancel()

	if err := ro.completeScript.Run(opCtx, ro.config.Redis,
		[]string{ro.keys["done"], ro.keys["claim"]},
		ro.config.InstanceID, ro.config.KeyTTL.Milliseconds(),
	).Err(); err != nil {
		return &RedisError{"complete", err}
	}
	return nil
}

// release drops this instance's claim after a failed fn so another
// instance can retry immediately instead of waiting for the TTL.
func (ro *redisOnce) release(ctx context.Context) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ro.config.RedisTimeout)
	defer cancel()

	_ = ro.releaseScript.Run(opCtx, ro.config.Redis,
		[]string{ro.keys["claim"]}, ro.config.InstanceID).Err()
}

// doLocal degrades to process-local once semantics when Redis is down.
// A failed fn does not mark completion, mirroring the claim release on the
// Redis path, so a later Do retries.
func (ro *redisOnce) doLocal(ctx context.Context, fn func(ctx context.Context) error) error {
	ro.localMu.Lock()
	defer ro.localMu.Unlock()

	if ro.localDone {
		return nil
	}
	if err := fn(ctx); err != nil {
		return err
	}
	ro.localDone = true
	return nil
}

func (ro *redisOnce) Done(ctx context.Context) (bool, error) {
	performer, err := ro.Performer(ctx)
	if err != nil {
		return false, err
	}
	return performer != "", nil
}

func (ro *redisOnce) Performer(ctx context.Context) (string, error) {
	if err := ro.checkClosed(); err != nil {
		return "", err
	}

	opCtx, cancel := context.WithTimeout(ctx, ro.config.RedisTimeout)
	defer cancel()

	performer, err := ro.config.Redis.Get(opCtx, ro.keys["done"]).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", &RedisError{"performer", err}
	}
	return performer, nil
}

func (ro *redisOnce) Stats(ctx context.Context) (*Stats, error) {
	if err := ro.checkClosed(); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, ro.config.RedisTimeout)
	defer cancel()

	pipe := ro.config.Redis.Pipeline()
	doneCmd := pipe.Get(opCtx, ro.keys["done"])
	statsCmd := pipe.HGetAll(opCtx, ro.keys["stats"])
	instancesCmd := pipe.SMembers(opCtx, ro.keys["instances"])

	if _, err := pipe.Exec(opCtx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, &RedisError{"stats", err}
	}

	stats := &Stats{}

	if performer, err := doneCmd.Result(); err == nil {
		stats.Done = true
		stats.Performer = performer
	}

	counters := statsCmd.Val()
	stats.ClaimAttempts = parseCounter(counters["claim_attempts"])
	stats.ClaimWins = parseCounter(counters["claim_wins"])
	stats.ClaimWaits = parseCounter(counters["claim_waits"])
	stats.ActiveInstances = instancesCmd.Val()

	return stats, nil
}

func (ro *redisOnce) Reset(ctx context.Context) error {
	if err := ro.checkClosed(); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, ro.config.RedisTimeout)
	defer cancel()

	if err := ro.config.Redis.Del(opCtx,
		ro.keys["done"], ro.keys["claim"], ro.keys["stats"]).Err(); err != nil {
		return &RedisError{"reset", err}
	}

	ro.localMu.Lock()
	ro.localDone = false
	ro.localMu.Unlock()

	return nil
}

func (ro *redisOnce) Close() error {
	ro.closedMu.Lock()
	defer ro.closedMu.Unlock()
	ro.closed = true
	return nil
}

func (ro *redisOnce) checkClosed() error {
	ro.closedMu.Lock()
	defer ro.closedMu.Unlock()
	if ro.closed {
		return glerrors.ErrClosed
	}
	return nil
}

// countAttempt records a claim attempt in Redis stats and local metrics.
func (ro *redisOnce) countAttempt() {
	ro.incrStat("claim_attempts")
	if ro.metrics != nil {
		ro.metrics.ClaimAttempts.WithLabelValues(ro.config.Key).Inc()
	}
}

func (ro *redisOnce) countWin() {
	ro.incrStat("claim_wins")
	if ro.metrics != nil {
		ro.metrics.ClaimWins.WithLabelValues(ro.config.Key).Inc()
	}
}

func (ro *redisOnce) countWait() {
	ro.incrStat("claim_waits")
	if ro.metrics != nil {
		ro.metrics.ClaimWaits.WithLabelValues(ro.config.Key).Inc()
	}
}

// incrStat is best effort; coordination correctness never depends on stats.
func (ro *redisOnce) incrStat(field string) {
	ctx, cancel := context.WithTimeout(context.Background(), ro.config.RedisTimeout)
	defer cancel()

	pipe := ro.config.Redis.Pipeline()
	pipe.HIncrBy(ctx, ro.keys["stats"], field, 1)
	pipe.Expire(ctx, ro.keys["stats"], ro.config.KeyTTL)
	_, _ = pipe.Exec(ctx)
}
