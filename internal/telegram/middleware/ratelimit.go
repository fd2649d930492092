package middleware

import (
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	// Buckets of users idle for this long are evicted
	inactiveUserTTL = time.Hour
	cleanupInterval = 10 * time.Minute
	warningInterval = 30 * time.Second
)

// NotifyFunc delivers a warning to a chat
type NotifyFunc func(chatID int64, warningCount int)

// userLimit tracks rate limit state for a single user
type userLimit struct {
	mu            sync.Mutex
	tokens        float64
	lastRefill    time.Time
	warningsSent  int
	lastWarningAt time.Time
}

// RateLimiterMiddleware implements token bucket rate limiting per user
type RateLimiterMiddleware struct {
	limits     *cache.Cache
	maxTokens  float64 // Maximum tokens in bucket
	refillRate float64 // Tokens added per second
	notify     NotifyFunc
	now        func() time.Time
	logger     *zap.Logger
}

// NewRateLimiterMiddleware creates a limiter that refills requestsPerMinute tokens per minute.
// A bucket holds at most burstSize tokens, so a quiet user can send burstSize messages at once.
func NewRateLimiterMiddleware(
	requestsPerMinute int,
	burstSize int,
	notify NotifyFunc,
	logger *zap.Logger,
) *RateLimiterMiddleware {
	if burstSize <= 0 {
		burstSize = 1
	}
	return &RateLimiterMiddleware{
		limits:     cache.New(inactiveUserTTL, cleanupInterval),
		maxTokens:  float64(burstSize),
		refillRate: float64(requestsPerMinute) / 60.0,
		notify:     notify,
		now:        time.Now,
		logger:     logger,
	}
}

// Handle processes the update through rate limiting
func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	if update.Message == nil || update.Message.From == nil {
		// Unknown update type, allow it
		next(update)
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !rl.allowRequest(userID, chatID) {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
		)
		return
	}

	next(update)
}

// allowRequest checks if request is allowed under rate limit
func (rl *RateLimiterMiddleware) allowRequest(userID, chatID int64) bool {
	limit := rl.bucket(userID)

	limit.mu.Lock()
	defer limit.mu.Unlock()

	now := rl.now()

	// Refill tokens based on elapsed time
	elapsed := now.Sub(limit.lastRefill).Seconds()
	limit.tokens += elapsed * rl.refillRate
	if limit.tokens > rl.maxTokens {
		limit.tokens = rl.maxTokens
	}
	limit.lastRefill = now

	if limit.tokens >= 1.0 {
		limit.tokens -= 1.0
		limit.warningsSent = 0
		return true
	}

	// Rate limit exceeded - send warning if not sent recently
	if now.Sub(limit.lastWarningAt) > warningInterval {
		limit.warningsSent++
		limit.lastWarningAt = now

		if rl.notify != nil {
			rl.notify(chatID, limit.warningsSent)
		}
	}

	return false
}

// bucket returns the user's bucket, creating a full one on first sight.
// Every lookup pushes the eviction deadline forward.
func (rl *RateLimiterMiddleware) bucket(userID int64) *userLimit {
	key := strconv.FormatInt(userID, 10)

	fresh := &userLimit{
		tokens:     rl.maxTokens,
		lastRefill: rl.now(),
	}
	if err := rl.limits.Add(key, fresh, cache.DefaultExpiration); err == nil {
		return fresh
	}

	if v, ok := rl.limits.Get(key); ok {
		limit := v.(*userLimit)
		rl.limits.Set(key, limit, cache.DefaultExpiration)
		return limit
	}

	// Evicted between Add and Get
	rl.limits.Set(key, fresh, cache.DefaultExpiration)
	return fresh
}
