package config

import (
	"log"

	"github.com/go-redis/redis"

	"agriaid/global"
)

func initRedis() {
	addr := AppConfig.Redis.Addr
	if addr == "" {
		log.Println("redis addr empty, skipping redis init")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: AppConfig.Redis.Password,
		DB:       AppConfig.Redis.DB,
	})

	if _, err := client.Ping().Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	global.RedisDB = client
	log.Println("Redis initialized")
}
