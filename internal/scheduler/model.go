package scheduler

import "github.com/samber/lo"

// Lesson: 一次排课（教师、班级、科目、教室、星期、节次）
type Lesson struct {
	TeacherID int
	GroupID   int
	Subject   string
	RoomID    int
	Day       int
	Slot      int
}

// 同一天同一节次，且教师、班级或教室有一个相同，即为冲突
func (l Lesson) collidesWith(other Lesson) bool {
	if l.Day != other.Day || l.Slot != other.Slot {
		return false
	}
	return l.TeacherID == other.TeacherID || l.GroupID == other.GroupID || l.RoomID == other.RoomID
}

// Schedule: 一个候选课表（即染色体）
// instance 是整个运行过程中不变的问题数据，所有候选课表共享同一份只读实例
type Schedule struct {
	lessons  []Lesson
	instance *Instance
}

func NewSchedule(instance *Instance) *Schedule {
	return &Schedule{
		lessons:  make([]Lesson, 0),
		instance: instance,
	}
}

func (sch *Schedule) Instance() *Instance {
	return sch.instance
}

// Lessons 返回课表中的所有排课，调用方不应修改返回的切片
func (sch *Schedule) Lessons() []Lesson {
	return sch.lessons
}

func (sch *Schedule) Len() int {
	return len(sch.lessons)
}

// AddLesson 不做任何校验，是否冲突由调用方通过 HasConflict 自行判断
func (sch *Schedule) AddLesson(lesson Lesson) {
	sch.lessons = append(sch.lessons, lesson)
}

func (sch *Schedule) TeacherLessons(teacherID int) []Lesson {
	return lo.Filter(sch.lessons, func(l Lesson, _ int) bool { return l.TeacherID == teacherID })
}

func (sch *Schedule) GroupLessons(groupID int) []Lesson {
	return lo.Filter(sch.lessons, func(l Lesson, _ int) bool { return l.GroupID == groupID })
}

func (sch *Schedule) RoomLessons(roomID int) []Lesson {
	return lo.Filter(sch.lessons, func(l Lesson, _ int) bool { return l.RoomID == roomID })
}

// HasConflict 判断把 lesson 加入课表后是否会和已有的排课冲突
func (sch *Schedule) HasConflict(lesson Lesson) bool {
	for _, l := range sch.lessons {
		if l.collidesWith(lesson) {
			return true
		}
	}
	return false
}

// conflictsAt 判断第 i 节课是否和课表中的其他任意一节课冲突（不和自己比较）
func (sch *Schedule) conflictsAt(i int) bool {
	for j, l := range sch.lessons {
		if j != i && l.collidesWith(sch.lessons[i]) {
			return true
		}
	}
	return false
}

// Clone 深拷贝排课列表，问题实例是只读的，直接共享
func (sch *Schedule) Clone() *Schedule {
	lessons := make([]Lesson, len(sch.lessons))
	copy(lessons, sch.lessons)
	return &Schedule{
		lessons:  lessons,
		instance: sch.instance,
	}
}

// 遗传算法参数
type Parameters struct {
	PopulationSize   int32   `validate:"min=1"`                        // 种群大小
	MaxGenerations   int32   `validate:"min=1"`                        // 迭代次数
	CrossoverRate    float64 `validate:"min=0,max=1"`                  // 交叉概率
	MutationRate     float64 `validate:"min=0,max=1"`                  // 变异概率
	TournamentSize   int32   `validate:"min=1"`                        // 锦标赛规模
	EliteCount       int32   `validate:"min=0,ltefield=PopulationSize"` // 精英数量
	Epsilon          float64 `validate:"gt=0"`                         // 防止除零
	ProgressInterval int32   `validate:"min=1"`                        // 每隔多少代报告一次进度
	Workers          int     `validate:"min=0"`                        // 并行计算适应度的协程数，0 表示 GOMAXPROCS
}

// 惩罚权重
type Weights struct {
	TeacherConflict   float64 `validate:"min=0"`
	GroupConflict     float64 `validate:"min=0"`
	RoomConflict      float64 `validate:"min=0"`
	TeacherPreference float64 `validate:"min=0"`
}

func (w *Weights) conflictCost() float64 {
	return w.TeacherConflict + w.GroupConflict + w.RoomConflict
}

// Progress: 一次进度观测
type Progress struct {
	Generation  int
	BestPenalty float64
}

// Result: 整个运行过程中最好的候选课表
type Result struct {
	Best        *Schedule
	Penalty     float64
	Generations int
}
