package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	otpPrefix   = "otp:"
	resetPrefix = "pwreset:"
	streamFeed  = "clubwize.feed"

	otpTTL   = 10 * time.Minute
	resetTTL = 30 * time.Minute
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

func SetOTP(ctx context.Context, rdb *redis.Client, email, code string) error {
	return rdb.Set(ctx, otpPrefix+email, code, otpTTL).Err()
}

// GetOTP peeks at the code without consuming it; delete only after a
// successful match so a typo does not burn the code.
func GetOTP(ctx context.Context, rdb *redis.Client, email string) (string, error) {
	return rdb.Get(ctx, otpPrefix+email).Result()
}

func DelOTP(ctx context.Context, rdb *redis.Client, email string) {
	rdb.Del(ctx, otpPrefix+email)
}

func SetResetToken(ctx context.Context, rdb *redis.Client, token, email string) error {
	return rdb.Set(ctx, resetPrefix+token, email, resetTTL).Err()
}

func GetAndDelResetToken(ctx context.Context, rdb *redis.Client, token string) (string, error) {
	return rdb.GetDel(ctx, resetPrefix+token).Result()
}

// PublishFeedEvent pushes a feed entry onto the stream consumed by the
// notification workers.
func PublishFeedEvent(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamFeed,
		Values: payload,
	}).Result()
	return err
}
