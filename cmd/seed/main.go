package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/repository"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/utils"
)

func main() {
	var op int
	var n int
	var name string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 执行一次排课并保存结果)")
	flag.IntVar(&n, "n", 5, "要插入的用户数量")
	flag.StringVar(&name, "name", "", "排课任务名称，为空时随机生成")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置", "error", err)
		os.Exit(1)
	}

	dbpool, err := repository.OpenDB(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		seedUsers(logger, cfg, repo, n)
	case 2:
		seedTimetable(logger, cfg, repo, name)
	default:
		logger.Error("指定的操作非法")
	}
}

func seedUsers(logger *slog.Logger, cfg *config.Config, repo *repository.Repository, n int) {
	if n <= 0 {
		logger.Error("请输入合法的用户数量")
		return
	}

	cnt := 0
	for range n {
		user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			logger.Error("无法生成随机用户", "error", err)
			continue
		}

		if err := repo.CreateUser(user); err != nil {
			logger.Error("无法插入用户", "username", user.Username, "error", err)
			continue
		}

		cnt++
	}

	logger.Info("插入用户成功", slog.Int("count", cnt))
}

// seedTimetable 以初始管理员的身份同步执行一次排课，并把结果保存为已完成的任务
func seedTimetable(logger *slog.Logger, cfg *config.Config, repo *repository.Repository, name string) {
	admin, err := repo.GetUserByUsername(cfg.InitialAdmin.Username)
	if err != nil {
		logger.Error("无法获取初始管理员，请先启动一次 API 服务", "error", err)
		return
	}

	parameters, problem, weights := cfg.SchedulerConfig.Build()

	seed := cfg.GA.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	instance, err := scheduler.NewRandomInstance(problem, rng)
	if err != nil {
		logger.Error("无法生成问题实例", "error", err)
		return
	}
	s, err := scheduler.New(parameters, weights, instance, rng)
	if err != nil {
		logger.Error("排课参数非法", "error", err)
		return
	}
	s.OnProgress(func(p scheduler.Progress) {
		logger.Info("排课进度", slog.Int("generation", p.Generation), slog.Float64("best_penalty", p.BestPenalty))
	})

	if name == "" {
		name = utils.GenerateRandomRunName()
	}
	run := &domain.TimetableRun{
		Name:       name,
		Seed:       seed,
		Parameters: scheduler.JoinParameters(parameters, problem, weights),
		Instance:   instance.ToDomain(),
		CreatedBy:  admin.ID,
	}
	if err := repo.CreateTimetableRun(run); err != nil {
		logger.Error("无法创建排课任务", "error", err)
		return
	}

	res := s.Schedule()
	run.Lessons = res.Best.ToDomain()
	run.Penalty = &res.Penalty

	if err := repo.SaveTimetableResult(run); err != nil {
		logger.Error("无法保存排课结果", "error", err)
		if err := repo.MarkTimetableRunFailed(run.ID); err != nil {
			logger.Error("无法将排课任务标记为失败", "error", err)
		}
		return
	}

	logger.Info("插入排课结果成功", slog.Int64("id", run.ID), slog.Int64("seed", seed), slog.Float64("penalty", res.Penalty), slog.Int("lessons", len(run.Lessons)))
}
