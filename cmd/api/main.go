package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/handler"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ensureInitialAdmin 确保数据库中存在初始管理员，已存在时不做修改
func ensureInitialAdmin(cfg *config.Config, repo *repository.Repository) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("无法生成初始管理员密码哈希: %w", err)
	}

	admin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,
	}
	if err := repo.CreateUser(admin); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key" {
			return nil
		}
		return fmt.Errorf("无法创建初始管理员: %w", err)
	}

	return nil
}

// openMailChannel 建立到 rabbitmq 的通道并声明邮件队列，队列参数需要和 mail worker 保持一致
func openMailChannel(cfg *config.Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("无法连接到 rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("无法建立通道: %w", err)
	}

	if _, err := ch.QueueDeclare("email_queue", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("无法声明队列: %w", err)
	}

	return conn, ch, nil
}

// openRedis 连接保存排课进度的 redis
func openRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("无法连接到 redis: %w", err)
	}

	return rdb, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 数据库：连接、初始管理员、清理上次遗留的任务
	 **********************************************/
	dbpool, err := repository.OpenDB(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	if err := ensureInitialAdmin(cfg, repo); err != nil {
		logger.Error("初始化管理员失败", "error", err)
		return
	}

	// 排课在 API 进程内执行，上次退出时没有完成的任务不会再有结果
	stale, err := repo.FailStaleTimetableRuns()
	if err != nil {
		logger.Error("无法清理未完成的排课任务", "error", err)
		return
	}
	if stale > 0 {
		logger.Warn("已将未完成的排课任务标记为失败", slog.Int64("count", stale))
	}

	/**********************************************
	 * 邮件队列和进度缓存
	 **********************************************/
	conn, ch, err := openMailChannel(cfg)
	if err != nil {
		logger.Error("无法初始化邮件队列", "error", err)
		return
	}
	defer conn.Close()
	defer ch.Close()

	rdb, err := openRedis(cfg)
	if err != nil {
		logger.Error("无法初始化进度缓存", "error", err)
		return
	}
	defer rdb.Close()

	/**********************************************
	 * HTTP 服务
	 **********************************************/
	h, err := handler.NewHandler(cfg, repo, ch, rdb)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	h.RegisterRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("无法启动服务器", "error", err)
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", "error", err)
	}

	// 和关闭服务器共用同一个超时，超时后仍在运行的任务直接标记为失败
	if err := h.WaitBackground(ctx); err != nil {
		logger.Warn("等待排课任务超时", "error", err)
		if _, err := repo.FailStaleTimetableRuns(); err != nil {
			logger.Error("无法将未完成的排课任务标记为失败", "error", err)
		}
	}
	logger.Info("服务器已成功关闭")
}
