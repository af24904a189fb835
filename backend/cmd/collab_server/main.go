package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/prathoseraaj/papit/backend/config"
	"github.com/prathoseraaj/papit/backend/internal/cache"
	"github.com/prathoseraaj/papit/backend/internal/events"
	"github.com/prathoseraaj/papit/backend/internal/httpapi/handlers"
	"github.com/prathoseraaj/papit/backend/internal/httpapi/middleware"
	"github.com/prathoseraaj/papit/backend/internal/room"
	"github.com/prathoseraaj/papit/backend/internal/store"
	"github.com/prathoseraaj/papit/backend/internal/ws"
)

func initConfig() (*config.Config, error) {
	cfg := &config.Config{}
	v := viper.New()
	v.SetConfigName("collabConfig")
	v.SetConfigType("yaml")
	// works from the repo root or from backend/
	v.AddConfigPath("./backend/config")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	cfg, err := initConfig()
	if err != nil {
		log.Fatalf("init config failed: %v", err)
	}

	// --- optional presence mirror (Redis) ---
	var presence cache.PresenceCache
	if len(cfg.Redis.Addrs) > 0 {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		defer rdb.Close()
		presence = cache.NewRedisPresence(rdb)
	}

	// --- optional snapshot store (MySQL via gorm) ---
	var snapshots *store.SnapshotStore
	if cfg.Mysql.DSN != "" {
		db, err := store.InitMySQL(cfg.Mysql.DSN)
		if err != nil {
			log.Fatalf("mysql init failed: %v", err)
		}
		snapshots = store.NewSnapshotStore(db)
	}

	// --- optional event stream (Kafka) ---
	var dispatcher *events.Dispatcher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaCfg := sarama.NewConfig()
		kafkaCfg.Producer.Return.Successes = true
		kafkaCfg.Producer.RequiredAcks = sarama.WaitForLocal
		producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaCfg)
		if err != nil {
			log.Fatalf("kafka connect failed: %v", err)
		}
		defer producer.Close()
		dispatcher = events.NewDispatcher(producer, cfg.Kafka.Topic, events.NewSemaphore(100), events.Options{
			QueueSize:   10_000,
			Workers:     4,
			MaxRetry:    3,
			BaseBackoff: 50 * time.Millisecond,
			MaxBackoff:  1 * time.Second,
		})
		defer dispatcher.Close()
	}

	var registryOpts []room.Option
	if snapshots != nil {
		registryOpts = append(registryOpts, room.WithSeed(func(roomID string) (string, bool) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			content, ok, err := snapshots.Load(ctx, roomID)
			if err != nil {
				log.Printf("snapshot seed failed (room=%s): %v", roomID, err)
				return "", false
			}
			return content, ok
		}))
	}
	registry := room.NewRegistry(registryOpts...)
	hub := ws.NewHub()
	manager := ws.NewManager(hub, registry, ws.Sidecars{Presence: presence, Events: dispatcher})

	var identity middleware.IdentityPolicy = middleware.ClientAsserted{}
	if cfg.Auth.Mode == "token" {
		if cfg.Auth.Secret == "" {
			log.Fatalf("auth.mode=token requires auth.secret")
		}
		identity = middleware.TokenIdentity{Secret: []byte(cfg.Auth.Secret)}
	}

	if cfg.Rooms.SweepInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Rooms.SweepInterval)
			defer ticker.Stop()
			for range ticker.C {
				if n := registry.SweepIdle(cfg.Rooms.MaxIdle); n > 0 {
					log.Printf("evicted %d idle rooms", n)
				}
			}
		}()
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	collab := r.Group("/collab")
	collab.GET("/ws", middleware.Identify(identity), manager.WebSocketConnect)
	collab.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})
	if snapshots != nil {
		sh := handlers.NewSnapshotHandler(registry, snapshots, dispatcher)
		collab.POST("/rooms/:room/snapshot", sh.Save)
		collab.GET("/rooms/:room/snapshot", sh.Load)
	}
	if presence != nil {
		ph := handlers.NewPresenceHandler(hub, presence)
		collab.GET("/rooms/:room/presence", ph.Room)
	}

	log.Printf("collab server listening on :%d", cfg.Running.Port)
	_ = r.Run(fmt.Sprintf(":%d", cfg.Running.Port))
}
