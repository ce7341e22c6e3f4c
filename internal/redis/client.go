package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient は Redis クライアントを生成し、疎通を確認する
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
