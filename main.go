package main

import (
	"context"
	"log"
	"time"

	"agriaid/config"
	"agriaid/controllers"
	"agriaid/global"
	"agriaid/router"
	"agriaid/services"
	"agriaid/store"
)

func main() {
	config.InitConfig()

	var notifier *store.Notifier
	if global.RabbitChannel != nil {
		n, err := store.NewNotifier(global.RabbitChannel, config.AppConfig.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to set up change notifier: %v", err)
		}
		notifier = n
	}

	var st store.Store
	if global.Db != nil {
		sqlStore, err := store.NewSQLStore(global.Db, notifier)
		if err != nil {
			log.Fatalf("Failed to set up question store: %v", err)
		}
		st = sqlStore
	} else {
		// no database configured; run on the in-memory store
		log.Println("running with in-memory question store")
		st = store.NewMemStore()
	}

	cache := services.NewQuestionCache()
	forum := services.NewForumService(st, cache)
	auth := services.NewAuthService(global.Db, global.RedisDB,
		config.AppConfig.Auth.JwtSecret,
		time.Duration(config.AppConfig.Auth.TokenTTLMin)*time.Minute)
	chat := services.NewChatService(cache)
	predictor := services.NewCropPredictor(config.AppConfig.Predictor.BaseURL)

	ctx := context.Background()
	go syncCache(ctx, st, cache)

	controllers.Init(forum, cache, auth, chat, predictor, st)

	r := router.SetupRouter(auth)

	port := config.AppConfig.App.Port
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// syncCache keeps the process-wide question cache fed from the change feed.
// A failed subscription is reopened after a short delay; the cache keeps its
// last good snapshot in the meantime.
func syncCache(ctx context.Context, st store.Store, cache *services.QuestionCache) {
	for {
		feed, err := services.OpenChangeFeed(ctx, st)
		if err != nil {
			log.Printf("open change feed: %v", err)
		} else {
			for ev := range feed.Events() {
				if ev.Err != nil {
					log.Printf("change feed failed: %v", ev.Err)
					break
				}
				cache.Replace(ev.Snapshot)
			}
			feed.Close()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
	}
}
