package scheduler

import (
	"fmt"
	"math/rand"
)

// 默认的科目列表
var DefaultSubjectCatalog = []string{
	"数学", "物理", "信息技术", "英语",
	"历史", "文学", "化学", "生物",
	"地理", "社会学", "体育", "安全教育",
	"代数", "几何", "程序设计", "数据库",
	"计算机网络", "操作系统", "计算机体系结构",
	"概率论", "统计学", "经济学",
	"法学", "哲学", "心理学", "外语",
}

// Problem: 问题规模以及生成问题实例时使用的参数
type Problem struct {
	NumDays              int      `validate:"min=1"`
	NumSlots             int      `validate:"min=1"`
	NumRooms             int      `validate:"min=1"`
	NumTeachers          int      `validate:"min=1"`
	NumGroups            int      `validate:"min=1"`
	SubjectCatalog       []string `validate:"required,min=1,dive,required"`
	TeacherSubjectsMin   int      `validate:"min=1"`
	TeacherSubjectsMax   int      `validate:"gtefield=TeacherSubjectsMin"`
	GroupSubjectsMin     int      `validate:"min=1"`
	GroupSubjectsMax     int      `validate:"gtefield=GroupSubjectsMin"`
	PreferredDays        int      `validate:"min=0"`
	MaxPlacementAttempts int      `validate:"min=1"`
}

// Instance: 问题实例，生成后在整个运行过程中只读
type Instance struct {
	problem            *Problem
	teacherPreferences [][]bool   // teacherID -> day -> 是否偏好
	teacherSubjects    [][]string // teacherID -> 可以教授的科目
	groupSubjects      [][]string // groupID -> 需要学习的科目
	qualifiedTeachers  map[string][]int
}

// NewInstance 使用给定的数据构造问题实例
func NewInstance(problem *Problem, teacherSubjects [][]string, groupSubjects [][]string, preferredDays [][]int) (*Instance, error) {
	if err := validate.Struct(problem); err != nil {
		return nil, err
	}
	if len(teacherSubjects) != problem.NumTeachers || len(preferredDays) != problem.NumTeachers {
		return nil, fmt.Errorf("教师数据的数量和教师数量 %d 不匹配", problem.NumTeachers)
	}
	if len(groupSubjects) != problem.NumGroups {
		return nil, fmt.Errorf("班级数据的数量和班级数量 %d 不匹配", problem.NumGroups)
	}

	in := &Instance{
		problem:            problem,
		teacherPreferences: make([][]bool, problem.NumTeachers),
		teacherSubjects:    make([][]string, problem.NumTeachers),
		groupSubjects:      make([][]string, problem.NumGroups),
	}

	for teacherID, days := range preferredDays {
		in.teacherPreferences[teacherID] = make([]bool, problem.NumDays)
		for _, day := range days {
			if day < 0 || day >= problem.NumDays {
				return nil, fmt.Errorf("教师 %d 的偏好日 %d 超出范围", teacherID, day)
			}
			in.teacherPreferences[teacherID][day] = true
		}
		in.teacherSubjects[teacherID] = append([]string{}, teacherSubjects[teacherID]...)
	}
	for groupID, subjects := range groupSubjects {
		in.groupSubjects[groupID] = append([]string{}, subjects...)
	}

	in.buildQualifiedTeachers()
	return in, nil
}

// NewRandomInstance 随机生成问题实例：
// 每个教师随机分配若干可教授的科目和偏好日，每个班级随机分配若干需要学习的科目
func NewRandomInstance(problem *Problem, rng *rand.Rand) (*Instance, error) {
	if err := validate.Struct(problem); err != nil {
		return nil, err
	}

	in := &Instance{
		problem:            problem,
		teacherPreferences: make([][]bool, problem.NumTeachers),
		teacherSubjects:    make([][]string, problem.NumTeachers),
		groupSubjects:      make([][]string, problem.NumGroups),
	}

	for teacherID := 0; teacherID < problem.NumTeachers; teacherID++ {
		n := problem.TeacherSubjectsMin + rng.Intn(problem.TeacherSubjectsMax-problem.TeacherSubjectsMin+1)
		in.teacherSubjects[teacherID] = sampleSubjects(rng, problem.SubjectCatalog, n)

		in.teacherPreferences[teacherID] = make([]bool, problem.NumDays)
		for _, day := range sampleIndices(rng, problem.NumDays, problem.PreferredDays) {
			in.teacherPreferences[teacherID][day] = true
		}
	}

	for groupID := 0; groupID < problem.NumGroups; groupID++ {
		n := problem.GroupSubjectsMin + rng.Intn(problem.GroupSubjectsMax-problem.GroupSubjectsMin+1)
		in.groupSubjects[groupID] = sampleSubjects(rng, problem.SubjectCatalog, n)
	}

	in.buildQualifiedTeachers()
	return in, nil
}

// 按教师编号顺序建立 科目 -> 可以教授该科目的教师 的索引
func (in *Instance) buildQualifiedTeachers() {
	in.qualifiedTeachers = make(map[string][]int)
	for teacherID, subjects := range in.teacherSubjects {
		for _, subject := range subjects {
			in.qualifiedTeachers[subject] = append(in.qualifiedTeachers[subject], teacherID)
		}
	}
}

func (in *Instance) Problem() *Problem {
	return in.problem
}

// QualifiedTeachers 返回可以教授 subject 的教师，没有时 ok 为 false
func (in *Instance) QualifiedTeachers(subject string) (teachers []int, ok bool) {
	teachers = in.qualifiedTeachers[subject]
	return teachers, len(teachers) > 0
}

// Prefers 判断教师是否偏好在 day 上课，未知的教师没有任何偏好日
func (in *Instance) Prefers(teacherID int, day int) bool {
	if teacherID < 0 || teacherID >= len(in.teacherPreferences) {
		return false
	}
	if day < 0 || day >= len(in.teacherPreferences[teacherID]) {
		return false
	}
	return in.teacherPreferences[teacherID][day]
}

func (in *Instance) PreferredDays(teacherID int) []int {
	days := make([]int, 0)
	for day, preferred := range in.teacherPreferences[teacherID] {
		if preferred {
			days = append(days, day)
		}
	}
	return days
}

func (in *Instance) TeacherSubjects(teacherID int) []string {
	return in.teacherSubjects[teacherID]
}

func (in *Instance) GroupSubjects(groupID int) []string {
	return in.groupSubjects[groupID]
}

// 不放回地随机抽取 k 个 [0, n) 中的下标，k 超过 n 时取 n
func sampleIndices(rng *rand.Rand, n int, k int) []int {
	return rng.Perm(n)[:min(k, n)]
}

func sampleSubjects(rng *rand.Rand, catalog []string, k int) []string {
	indices := sampleIndices(rng, len(catalog), k)
	subjects := make([]string, len(indices))
	for i, idx := range indices {
		subjects[i] = catalog[idx]
	}
	return subjects
}
