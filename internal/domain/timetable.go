package domain

import "time"

type TimetableRunStatus string

const (
	TimetableRunRunning  TimetableRunStatus = "running"
	TimetableRunFinished TimetableRunStatus = "finished"
	TimetableRunFailed   TimetableRunStatus = "failed"
)

type TimetableLesson struct {
	TeacherID int    `json:"teacherID" csv:"teacher_id" validate:"min=0"`
	GroupID   int    `json:"groupID" csv:"group_id" validate:"min=0"`
	Subject   string `json:"subject" csv:"subject" validate:"required"`
	RoomID    int    `json:"roomID" csv:"room_id" validate:"min=0"`
	Day       int    `json:"day" csv:"day" validate:"min=0"`
	Slot      int    `json:"slot" csv:"slot" validate:"min=0"`
}

// 生成课表时使用的全部参数
type TimetableParameters struct {
	PopulationSize   int32   `json:"populationSize"`
	MaxGenerations   int32   `json:"maxGenerations"`
	CrossoverRate    float64 `json:"crossoverRate"`
	MutationRate     float64 `json:"mutationRate"`
	TournamentSize   int32   `json:"tournamentSize"`
	EliteCount       int32   `json:"eliteCount"`
	Epsilon          float64 `json:"epsilon"`
	ProgressInterval int32   `json:"progressInterval"`

	NumDays              int      `json:"numDays"`
	NumSlots             int      `json:"numSlots"`
	NumRooms             int      `json:"numRooms"`
	NumTeachers          int      `json:"numTeachers"`
	NumGroups            int      `json:"numGroups"`
	SubjectCatalog       []string `json:"subjectCatalog"`
	TeacherSubjectsMin   int      `json:"teacherSubjectsMin"`
	TeacherSubjectsMax   int      `json:"teacherSubjectsMax"`
	GroupSubjectsMin     int      `json:"groupSubjectsMin"`
	GroupSubjectsMax     int      `json:"groupSubjectsMax"`
	PreferredDays        int      `json:"preferredDays"`
	MaxPlacementAttempts int      `json:"maxPlacementAttempts"`

	PenaltyTeacherConflict   float64 `json:"penaltyTeacherConflict"`
	PenaltyGroupConflict     float64 `json:"penaltyGroupConflict"`
	PenaltyRoomConflict      float64 `json:"penaltyRoomConflict"`
	PenaltyTeacherPreference float64 `json:"penaltyTeacherPreference"`
}

// 问题实例（教师可教授的科目、偏好日以及班级需要学习的科目）
type TimetableInstance struct {
	TeacherSubjects [][]string `json:"teacherSubjects"`
	TeacherDays     [][]int    `json:"teacherDays"`
	GroupSubjects   [][]string `json:"groupSubjects"`
}

type TimetableRun struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Status     TimetableRunStatus  `json:"status"`
	Seed       int64               `json:"seed"`
	Parameters TimetableParameters `json:"parameters"`
	Instance   *TimetableInstance  `json:"instance,omitempty"`
	Penalty    *float64            `json:"penalty"` // 还没有结果时为空
	Lessons    []TimetableLesson   `json:"lessons,omitempty"`
	CreatedBy  int64               `json:"createdBy"`
	CreatedAt  time.Time           `json:"createdAt"`
	FinishedAt *time.Time          `json:"finishedAt"`
	Version    int32               `json:"-"`
}

type TimetableProgress struct {
	Generation  int     `json:"generation" mapstructure:"generation"`
	BestPenalty float64 `json:"bestPenalty" mapstructure:"best_penalty"`
	Total       int     `json:"total" mapstructure:"total"`
}

type TimetableConflicts struct {
	Teachers []int   `json:"teachers"`
	Groups   []int   `json:"groups"`
	Rooms    []int   `json:"rooms"`
	Penalty  float64 `json:"penalty"`
}
