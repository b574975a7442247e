package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/utils"
)

// 不依赖数据库和消息队列，只根据环境变量中的排课配置生成一份课表
func main() {
	var seed int64
	var csvPath string

	flag.Int64Var(&seed, "seed", 0, "随机数种子，为 0 时使用 GA_SEED，仍为 0 时使用当前时间")
	flag.StringVar(&csvPath, "csv", "", "将最优课表导出为 CSV 文件的路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadSchedulerConfig()
	if err != nil {
		logger.Error("无法读取配置", "error", err)
		os.Exit(1)
	}

	if seed == 0 {
		seed = cfg.GA.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	parameters, problem, weights := cfg.Build()
	rng := rand.New(rand.NewSource(seed))

	instance, err := scheduler.NewRandomInstance(problem, rng)
	if err != nil {
		logger.Error("无法生成问题实例", "error", err)
		os.Exit(1)
	}

	s, err := scheduler.New(parameters, weights, instance, rng)
	if err != nil {
		logger.Error("排课参数非法", "error", err)
		os.Exit(1)
	}
	s.OnProgress(func(p scheduler.Progress) {
		logger.Info("排课进度", slog.Int("generation", p.Generation), slog.Float64("best_penalty", p.BestPenalty))
	})

	logger.Info("开始排课", slog.Int64("seed", seed), slog.Int("population_size", int(parameters.PopulationSize)), slog.Int("max_generations", int(parameters.MaxGenerations)))
	start := time.Now()
	res := s.Schedule()
	logger.Info("排课完成", slog.Float64("penalty", res.Penalty), slog.Int("lessons", res.Best.Len()), slog.Duration("duration", time.Since(start)))

	lessons := res.Best.ToDomain()

	if err := utils.RenderTimetable(os.Stdout, lessons, problem.NumDays, problem.NumSlots); err != nil {
		logger.Error("无法打印课表", "error", err)
		os.Exit(1)
	}

	conflicts := utils.TabulateConflicts(lessons, problem.NumTeachers, problem.NumGroups, problem.NumRooms)
	conflicts.Penalty = res.Penalty
	if err := utils.RenderConflicts(os.Stdout, conflicts); err != nil {
		logger.Error("无法打印冲突分析", "error", err)
		os.Exit(1)
	}

	if csvPath == "" {
		return
	}

	f, err := os.Create(csvPath)
	if err != nil {
		logger.Error("无法创建 CSV 文件", "path", csvPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&lessons, f); err != nil {
		logger.Error("无法导出 CSV", "error", err)
		os.Exit(1)
	}
	logger.Info("课表已导出", "path", csvPath)
}
