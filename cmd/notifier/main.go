package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkblog/comment_server/config"
	"github.com/mkblog/comment_server/internal/database"
	"github.com/mkblog/comment_server/internal/notifier"
	"github.com/mkblog/comment_server/internal/pkg/email"
	"github.com/mkblog/comment_server/internal/pkg/notify"
	"github.com/mkblog/comment_server/internal/repository"
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

	// 初始化发送器，未配置 SMTP 时只记录日志
	var sender notifier.Sender
	if cfg.Email.SMTPHost != "" {
		sender = email.NewService(&cfg.Email)
		log.Println("Email sender initialized")
	} else {
		sender = notifier.NewNoopSender()
		log.Println("SMTP not configured, running in dry-run mode")
	}

	// 初始化队列和处理器
	eventQueue := notify.NewQueue(rdb, cfg.Notify.QueueName)
	processor := notifier.NewProcessor(
		repository.NewCommentRepository(db),
		repository.NewUserRepository(db),
		sender,
		cfg,
	)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	log.Printf("Notifier started, max workers: %d", cfg.Notify.MaxWorkers)

	// 启动 worker 循环
	for i := 0; i < cfg.Notify.MaxWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Worker %d shutting down", workerID)
					return
				default:
					evt, err := eventQueue.Pop(ctx, 5*time.Second)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("Worker %d: failed to pop event: %v", workerID, err)
						continue
					}

					if evt == nil {
						continue // 超时，继续等待
					}

					log.Printf("Worker %d: processing %s event for comment %d", workerID, evt.Kind, evt.CommentID)
					if err := processor.Process(ctx, evt); err != nil {
						log.Printf("Worker %d: event for comment %d failed: %v", workerID, evt.CommentID, err)
					}
				}
			}
		}(i)
	}

	// 等待 context 取消
	<-ctx.Done()
	log.Println("Notifier shutdown complete")
}
