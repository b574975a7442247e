package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
)

func (r *Repository) CreateTimetableRun(run *domain.TimetableRun) error {
	parameters, err := json.Marshal(run.Parameters)
	if err != nil {
		return err
	}
	instance, err := json.Marshal(run.Instance)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO timetable_runs (name, seed, parameters, instance, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at, version
	`

	args := []any{run.Name, run.Seed, parameters, instance, run.CreatedBy}
	dst := []any{&run.ID, &run.Status, &run.CreatedAt, &run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

// SaveTimetableResult 用 run.Lessons 替换排课任务原有的课表，并把任务标记为已完成
func (r *Repository) SaveTimetableResult(run *domain.TimetableRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的课表删除
	query := `DELETE FROM timetable_lessons WHERE timetable_run_id = $1`
	if _, err := tx.ExecContext(ctx, query, run.ID); err != nil {
		return err
	}

	for i, lesson := range run.Lessons {
		query := `
			INSERT INTO timetable_lessons (timetable_run_id, position, teacher_id, group_id, subject, room_id, day, slot)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		args := []any{run.ID, i, lesson.TeacherID, lesson.GroupID, lesson.Subject, lesson.RoomID, lesson.Day, lesson.Slot}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	query = `
		UPDATE timetable_runs
		SET
			status = $1,
			penalty = $2,
			finished_at = COALESCE(finished_at, NOW()),
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING status, finished_at, version
	`

	var finishedAt sql.NullTime
	args := []any{domain.TimetableRunFinished, run.Penalty, run.ID, run.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&run.Status, &finishedAt, &run.Version); err != nil {
		return err
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) MarkTimetableRunFailed(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE timetable_runs
		SET status = $1, finished_at = NOW(), version = version + 1
		WHERE id = $2
	`

	if _, err := r.dbpool.ExecContext(ctx, query, domain.TimetableRunFailed, id); err != nil {
		return err
	}

	return nil
}

// FailStaleTimetableRuns 把所有仍处于运行中的任务标记为失败，返回受影响的任务数量
// 排课在 API 进程内执行，进程退出后这些任务不会再有结果
func (r *Repository) FailStaleTimetableRuns() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE timetable_runs
		SET status = $1, finished_at = NOW(), version = version + 1
		WHERE status = $2
	`

	res, err := r.dbpool.ExecContext(ctx, query, domain.TimetableRunFailed, domain.TimetableRunRunning)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r *Repository) GetTimetableRunByID(id int64) (*domain.TimetableRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT name, status, seed, parameters, instance, penalty, created_by, created_at, finished_at, version
		FROM timetable_runs WHERE id = $1
	`

	run := &domain.TimetableRun{
		ID: id,
	}

	var (
		parameters []byte
		instance   []byte
		penalty    sql.NullFloat64
		finishedAt sql.NullTime
	)

	dst := []any{&run.Name, &run.Status, &run.Seed, &parameters, &instance, &penalty, &run.CreatedBy, &run.CreatedAt, &finishedAt, &run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
		return nil, err
	}
	if len(instance) > 0 {
		if err := json.Unmarshal(instance, &run.Instance); err != nil {
			return nil, err
		}
	}
	if penalty.Valid {
		run.Penalty = &penalty.Float64
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	query = `
		SELECT teacher_id, group_id, subject, room_id, day, slot
		FROM timetable_lessons
		WHERE timetable_run_id = $1
		ORDER BY position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.Lessons = make([]domain.TimetableLesson, 0)
	for rows.Next() {
		var lesson domain.TimetableLesson
		dst := []any{&lesson.TeacherID, &lesson.GroupID, &lesson.Subject, &lesson.RoomID, &lesson.Day, &lesson.Slot}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		run.Lessons = append(run.Lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return run, nil
}

// GetAllTimetableRuns 只返回元数据，不包含问题实例和课表
func (r *Repository) GetAllTimetableRuns() ([]*domain.TimetableRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, status, seed, parameters, penalty, created_by, created_at, finished_at, version
		FROM timetable_runs
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.TimetableRun, 0)
	for rows.Next() {
		run := &domain.TimetableRun{}

		var (
			parameters []byte
			penalty    sql.NullFloat64
			finishedAt sql.NullTime
		)

		dst := []any{&run.ID, &run.Name, &run.Status, &run.Seed, &parameters, &penalty, &run.CreatedBy, &run.CreatedAt, &finishedAt, &run.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
			return nil, err
		}
		if penalty.Valid {
			run.Penalty = &penalty.Float64
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func (r *Repository) DeleteTimetableRun(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `DELETE FROM timetable_runs WHERE id = $1`
	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
