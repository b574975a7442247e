package handler

import (
	"context"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/repository"
)

const tokenCookieName = "__class_timetable_token"

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	// 正在后台执行的排课任务
	runs sync.WaitGroup

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

// goBackground 在后台执行 fn，并在 WaitBackground 中等待它结束
func (h *Handler) goBackground(fn func()) {
	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		fn()
	}()
}

// WaitBackground 等待所有后台排课任务结束，ctx 结束时返回 ctx.Err()
func (h *Handler) WaitBackground(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.runs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 可以排课或修改课表的角色
	planners := []domain.Role{domain.RoleAdmin, domain.RoleAcademic}

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
		})

		r.Route("/timetables", func(r chi.Router) {
			r.With(h.RequiredRole(planners)).With(h.myInfo).Post("/", h.CreateTimetableRun)
			r.Get("/", h.GetAllTimetableRuns)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.timetableRun)
				r.Get("/", h.GetTimetableRun)
				r.With(h.RequiredRole(planners)).Delete("/", h.DeleteTimetableRun)
				r.Get("/progress", h.GetTimetableProgress)
				r.Get("/conflicts", h.GetTimetableConflicts)
				r.With(h.RequiredRole(planners)).Put("/lessons", h.UpdateTimetableLessons)
			})
		})
	})
}
