package main

import (
	"context"
	"fmt"
	"log"

	"github.com/mkblog/comment_server/config"
	"github.com/mkblog/comment_server/internal/api"
	"github.com/mkblog/comment_server/internal/api/handler"
	"github.com/mkblog/comment_server/internal/database"
	"github.com/mkblog/comment_server/internal/pkg/contentfilter"
	"github.com/mkblog/comment_server/internal/pkg/email"
	"github.com/mkblog/comment_server/internal/pkg/notify"
	"github.com/mkblog/comment_server/internal/pkg/oauth"
	"github.com/mkblog/comment_server/internal/pkg/pubsub"
	"github.com/mkblog/comment_server/internal/pkg/ratelimit"
	"github.com/mkblog/comment_server/internal/pkg/ws"
	"github.com/mkblog/comment_server/internal/repository"
	"github.com/mkblog/comment_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化内容过滤器
	filter, err := contentfilter.New(&cfg.Moderation)
	if err != nil {
		log.Fatalf("Failed to build content filter: %v", err)
	}

	// 初始化限流器
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewRedisLimiter(rdb, &cfg.RateLimit)
		log.Println("Rate limiter: redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(&cfg.RateLimit)
		log.Println("Rate limiter: memory")
	}

	// 初始化通知队列和 Pub/Sub
	notifyQueue := notify.NewQueue(rdb, cfg.Notify.QueueName)
	publisher := pubsub.NewPublisher(rdb)

	// 初始化 WebSocket Hub，订阅审核事件并推送给在线用户
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.ModerationMessage) {
			if !wsHub.IsOnline(msg.UserID) {
				return
			}
			if err := wsHub.SendToUser(msg.UserID, &ws.Message{
				Type: msg.Type,
				Data: msg,
			}); err != nil {
				log.Printf("Failed to push moderation event to user %d: %v", msg.UserID, err)
			}
		})
		if err != nil {
			log.Printf("Pub/Sub subscription stopped: %v", err)
		}
	}()
	log.Println("WebSocket hub started")

	// 初始化邮件服务（可选）
	var emailSvc *email.Service
	if cfg.Email.SMTPHost != "" {
		emailSvc = email.NewService(&cfg.Email)
		log.Println("Email service initialized")
	}

	// 初始化 OAuth state 存储
	stateStore := oauth.NewStateStore(rdb)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	recordRepo := repository.NewModerationRecordRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, emailSvc, cfg)
	userService := service.NewUserService(userRepo, cfg)
	moderationService := service.NewModerationService(
		commentRepo, recordRepo, userRepo,
		filter, limiter, notifyQueue, publisher, cfg,
	)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService, stateStore)
	userHandler := handler.NewUserHandler(userService)
	commentHandler := handler.NewCommentHandler(moderationService)
	moderationHandler := handler.NewModerationHandler(moderationService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		commentHandler,
		moderationHandler,
		websocketHandler,
		authService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
