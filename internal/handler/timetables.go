package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/utils"
)

func progressKey(runID int64) string {
	return fmt.Sprintf("timetable_progress_%d", runID)
}

// 未指定的参数使用配置中的默认值
type createTimetableRunRequest struct {
	Name           string   `json:"name" validate:"omitempty,max=64"`
	Seed           *int64   `json:"seed"`
	PopulationSize *int32   `json:"populationSize" validate:"omitempty,min=1"`
	MaxGenerations *int32   `json:"maxGenerations" validate:"omitempty,min=1"`
	CrossoverRate  *float64 `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	MutationRate   *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	TournamentSize *int32   `json:"tournamentSize" validate:"omitempty,min=1"`
	EliteCount     *int32   `json:"eliteCount" validate:"omitempty,min=0"`
}

// runParameters 把请求中的参数覆盖到配置的默认值上，并校验合并后的结果
// 例如精英数量不能超过种群大小，这类约束只有在合并之后才能检查
func (h *Handler) runParameters(req *createTimetableRunRequest) (*scheduler.Parameters, *scheduler.Problem, *scheduler.Weights, error) {
	parameters, problem, weights := h.config.SchedulerConfig.Build()
	if req.PopulationSize != nil {
		parameters.PopulationSize = *req.PopulationSize
	}
	if req.MaxGenerations != nil {
		parameters.MaxGenerations = *req.MaxGenerations
	}
	if req.CrossoverRate != nil {
		parameters.CrossoverRate = *req.CrossoverRate
	}
	if req.MutationRate != nil {
		parameters.MutationRate = *req.MutationRate
	}
	if req.TournamentSize != nil {
		parameters.TournamentSize = *req.TournamentSize
	}
	if req.EliteCount != nil {
		parameters.EliteCount = *req.EliteCount
	}

	if err := h.validate.Struct(parameters); err != nil {
		return nil, nil, nil, err
	}

	return parameters, problem, weights, nil
}

func (h *Handler) CreateTimetableRun(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req createTimetableRunRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	parameters, problem, weights, err := h.runParameters(&req)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	seed := h.config.GA.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))
	instance, err := scheduler.NewRandomInstance(problem, rng)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	s, err := scheduler.New(parameters, weights, instance, rng)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	name := req.Name
	if name == "" {
		name = utils.GenerateRandomRunName()
	}

	run := &domain.TimetableRun{
		Name:       name,
		Seed:       seed,
		Parameters: scheduler.JoinParameters(parameters, problem, weights),
		Instance:   instance.ToDomain(),
		CreatedBy:  myInfo.ID,
	}

	if err := h.repository.CreateTimetableRun(run); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "timetable_runs_name_key":
			h.errorResponse(w, r, "课表名称已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 后台任务会修改 run，这里传入副本，避免和下面的响应序列化产生数据竞争
	background := *run
	h.goBackground(func() { h.runTimetable(&background, s, myInfo) })

	h.successResponse(w, r, "排课任务已开始", run)
}

// runTimetable 在后台执行遗传算法，结束后保存结果并通知发起人
func (h *Handler) runTimetable(run *domain.TimetableRun, s *scheduler.Scheduler, owner *domain.User) {
	logger := slog.With("run", run.ID, "name", run.Name)

	defer func() {
		if err := recover(); err != nil {
			logger.Error("排课过程中发生 panic", "error", err)
			h.failTimetableRun(logger, run, owner)
		}
	}()

	key := progressKey(run.ID)
	total := int(run.Parameters.MaxGenerations)
	s.OnProgress(func(p scheduler.Progress) {
		logger.Info("排课进度", "generation", p.Generation, "best_penalty", p.BestPenalty)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
		defer cancel()

		_, err := h.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "generation", p.Generation, "best_penalty", p.BestPenalty, "total", total)
			pipe.Expire(ctx, key, time.Duration(h.config.Redis.ProgressExpiration)*time.Second)
			return nil
		})
		if err != nil {
			// 进度只是辅助信息，写入失败不影响排课
			logger.Warn("无法写入排课进度", "error", err)
		}
	})

	start := time.Now()
	res := s.Schedule()
	logger.Info("排课完成", "penalty", res.Penalty, "generations", res.Generations, "lessons", res.Best.Len(), "duration", time.Since(start))

	run.Lessons = res.Best.ToDomain()
	run.Penalty = &res.Penalty
	if err := h.repository.SaveTimetableResult(run); err != nil {
		logger.Error("无法保存排课结果", "error", err)
		h.failTimetableRun(logger, run, owner)
		return
	}

	h.notifyTimetableReady(logger, run, owner)
}

func (h *Handler) failTimetableRun(logger *slog.Logger, run *domain.TimetableRun, owner *domain.User) {
	if err := h.repository.MarkTimetableRunFailed(run.ID); err != nil {
		logger.Error("无法将排课任务标记为失败", "error", err)
		return
	}
	run.Status = domain.TimetableRunFailed
	run.Penalty = nil

	h.notifyTimetableReady(logger, run, owner)
}

func (h *Handler) notifyTimetableReady(logger *slog.Logger, run *domain.TimetableRun, owner *domain.User) {
	data := domain.TimetableReadyMailData{
		FullName: owner.FullName,
		RunID:    run.ID,
		Name:     run.Name,
		Status:   run.Status,
	}
	if run.Penalty != nil {
		data.Penalty = *run.Penalty
	}

	if err := h.publishMail(domain.MailMessage{Type: "timetable_ready", To: owner.Email, Data: data}); err != nil {
		logger.Error("无法发送排课完成通知", "error", err)
	}
}

func (h *Handler) GetAllTimetableRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repository.GetAllTimetableRuns()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取课表列表成功", runs)
}

func (h *Handler) GetTimetableRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(TimetableRunCtx).(*domain.TimetableRun)
	h.successResponse(w, r, "获取课表成功", run)
}

func (h *Handler) DeleteTimetableRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(TimetableRunCtx).(*domain.TimetableRun)

	if run.Status == domain.TimetableRunRunning {
		h.errorResponse(w, r, "排课任务正在进行中，无法删除")
		return
	}

	if err := h.repository.DeleteTimetableRun(run.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Del(ctx, progressKey(run.ID)).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除课表成功", nil)
}

func (h *Handler) GetTimetableProgress(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(TimetableRunCtx).(*domain.TimetableRun)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	fields, err := h.redisClient.HGetAll(ctx, progressKey(run.ID)).Result()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if len(fields) == 0 {
		h.errorResponse(w, r, "暂无排课进度")
		return
	}

	progress, err := decodeProgress(fields)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排课进度成功", progress)
}

// decodeProgress 把 redis 中以字符串保存的进度字段解析为结构体
func decodeProgress(fields map[string]string) (*domain.TimetableProgress, error) {
	progress := &domain.TimetableProgress{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           progress,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, err
	}

	return progress, nil
}

func (h *Handler) GetTimetableConflicts(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(TimetableRunCtx).(*domain.TimetableRun)

	if run.Status != domain.TimetableRunFinished {
		h.errorResponse(w, r, "排课尚未完成")
		return
	}

	conflicts, err := analyzeTimetable(run, run.Lessons)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取冲突分析成功", conflicts)
}

func (h *Handler) UpdateTimetableLessons(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(TimetableRunCtx).(*domain.TimetableRun)

	var req struct {
		Lessons []domain.TimetableLesson `json:"lessons" validate:"required,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if run.Status != domain.TimetableRunFinished {
		h.errorResponse(w, r, "只能修改已完成的课表")
		return
	}

	if err := utils.ValidateTimetableLessons(req.Lessons, &run.Parameters, run.Instance); err != nil {
		h.badRequest(w, r, err)
		return
	}

	conflicts, err := analyzeTimetable(run, req.Lessons)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	run.Lessons = req.Lessons
	run.Penalty = &conflicts.Penalty
	if err := h.repository.SaveTimetableResult(run); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新课表失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新课表成功", run)
}

// analyzeTimetable 使用任务保存的问题实例和惩罚权重重新计算课表的冲突和惩罚值
func analyzeTimetable(run *domain.TimetableRun, lessons []domain.TimetableLesson) (*domain.TimetableConflicts, error) {
	if run.Instance == nil {
		return nil, errors.New("课表缺少问题实例")
	}

	_, problem, weights := scheduler.SplitParameters(&run.Parameters)
	instance, err := scheduler.InstanceFromDomain(problem, run.Instance)
	if err != nil {
		return nil, err
	}

	conflicts := utils.TabulateConflicts(lessons, problem.NumTeachers, problem.NumGroups, problem.NumRooms)
	conflicts.Penalty = scheduler.CalculatePenalty(scheduler.ScheduleFromDomain(instance, lessons), weights)

	return conflicts, nil
}
