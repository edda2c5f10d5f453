package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"collabcore/internal/cache"
	"collabcore/internal/collab"
	"collabcore/internal/httpapi/handlers"
	"collabcore/internal/httpapi/middleware"
	"collabcore/internal/store"
	"collabcore/internal/ws"
)

type CollabConfig struct {
	Running struct {
		Port int `mapstructure:"Port"`
	} `mapstructure:"Running"`
	Mysql struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"Mysql"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"Redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"Kafka"`
	Auth struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"Auth"`
	JWT struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"JWT"`
}

func initConfig() (*CollabConfig, error) {
	cfg := &CollabConfig{}
	v := viper.New()
	v.SetConfigName("collabConfig")
	v.SetConfigType("yaml")
	// accept being launched from either the repo root or backend/
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
	log.Printf("config: %+v", cfg)

	if cfg.JWT.Secret != "" {
		os.Setenv("JWT_SECRET", cfg.JWT.Secret)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	db, err := gorm.Open(mysql.Open(cfg.Mysql.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&store.Document{}, &store.DocumentSnapshot{}, &store.User{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	kafkaCfg := sarama.NewConfig()
	// SyncProducer requires Return.Successes.
	kafkaCfg.Producer.Return.Successes = true
	kafkaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaCfg)
	if err != nil {
		log.Fatalf("failed to connect kafka: %v", err)
	}
	defer producer.Close()

	presenceCache := cache.NewRedisPresence(rdb)
	hub := ws.NewHub(presenceCache)
	snapshotStore := store.NewSnapshotStore(db)
	documentStore := store.NewDocumentStore(db)
	userStore := store.NewUserStore(db)

	kafkaSem := collab.NewSemaphoreControl()
	wsSem := collab.NewSemaphoreControl()

	kafkaDispatcher := collab.NewKafkaDispatcher(
		producer,
		cfg.Kafka.Topic,
		kafkaSem,
		collab.KafkaDispatcherOptions{
			QueueSize:   10_000,
			Workers:     4,
			MaxRetry:    3,
			BaseBackoff: 50 * time.Millisecond,
			MaxBackoff:  1 * time.Second,
		},
	)

	svc := collab.NewInMemoryService(snapshotStore, documentStore, userStore, kafkaDispatcher)
	manager := ws.NewManager(hub, svc, wsSem)
	docHandlers := handlers.NewDocuments(svc)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	collabGroup := r.Group("/collab")
	collabGroup.Use(middleware.AuthMiddleware(cfg.Auth.Path))
	collabGroup.GET("/ws", func(c *gin.Context) { manager.WebSocketConnect(c, hub) })
	collabGroup.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})
	collabGroup.POST("/documents", docHandlers.Create)
	collabGroup.GET("/documents/:title", docHandlers.Get)

	port := cfg.Running.Port
	_ = r.Run(fmt.Sprintf(":%d", port))
}
