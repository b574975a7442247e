package scheduler

import "github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"

func (sch *Schedule) ToDomain() []domain.TimetableLesson {
	lessons := make([]domain.TimetableLesson, len(sch.lessons))
	for i, l := range sch.lessons {
		lessons[i] = domain.TimetableLesson{
			TeacherID: l.TeacherID,
			GroupID:   l.GroupID,
			Subject:   l.Subject,
			RoomID:    l.RoomID,
			Day:       l.Day,
			Slot:      l.Slot,
		}
	}
	return lessons
}

func (in *Instance) ToDomain() *domain.TimetableInstance {
	ti := &domain.TimetableInstance{
		TeacherSubjects: make([][]string, len(in.teacherSubjects)),
		TeacherDays:     make([][]int, len(in.teacherPreferences)),
		GroupSubjects:   make([][]string, len(in.groupSubjects)),
	}
	for teacherID := range in.teacherSubjects {
		ti.TeacherSubjects[teacherID] = append([]string{}, in.teacherSubjects[teacherID]...)
		ti.TeacherDays[teacherID] = in.PreferredDays(teacherID)
	}
	for groupID := range in.groupSubjects {
		ti.GroupSubjects[groupID] = append([]string{}, in.groupSubjects[groupID]...)
	}
	return ti
}

func InstanceFromDomain(problem *Problem, ti *domain.TimetableInstance) (*Instance, error) {
	return NewInstance(problem, ti.TeacherSubjects, ti.GroupSubjects, ti.TeacherDays)
}

func ScheduleFromDomain(instance *Instance, lessons []domain.TimetableLesson) *Schedule {
	sch := NewSchedule(instance)
	for _, l := range lessons {
		sch.AddLesson(Lesson{
			TeacherID: l.TeacherID,
			GroupID:   l.GroupID,
			Subject:   l.Subject,
			RoomID:    l.RoomID,
			Day:       l.Day,
			Slot:      l.Slot,
		})
	}
	return sch
}

// SplitParameters 把持久化的参数拆分成遗传算法参数、问题规模和惩罚权重
func SplitParameters(tp *domain.TimetableParameters) (*Parameters, *Problem, *Weights) {
	parameters := &Parameters{
		PopulationSize:   tp.PopulationSize,
		MaxGenerations:   tp.MaxGenerations,
		CrossoverRate:    tp.CrossoverRate,
		MutationRate:     tp.MutationRate,
		TournamentSize:   tp.TournamentSize,
		EliteCount:       tp.EliteCount,
		Epsilon:          tp.Epsilon,
		ProgressInterval: tp.ProgressInterval,
	}
	problem := &Problem{
		NumDays:              tp.NumDays,
		NumSlots:             tp.NumSlots,
		NumRooms:             tp.NumRooms,
		NumTeachers:          tp.NumTeachers,
		NumGroups:            tp.NumGroups,
		SubjectCatalog:       tp.SubjectCatalog,
		TeacherSubjectsMin:   tp.TeacherSubjectsMin,
		TeacherSubjectsMax:   tp.TeacherSubjectsMax,
		GroupSubjectsMin:     tp.GroupSubjectsMin,
		GroupSubjectsMax:     tp.GroupSubjectsMax,
		PreferredDays:        tp.PreferredDays,
		MaxPlacementAttempts: tp.MaxPlacementAttempts,
	}
	weights := &Weights{
		TeacherConflict:   tp.PenaltyTeacherConflict,
		GroupConflict:     tp.PenaltyGroupConflict,
		RoomConflict:      tp.PenaltyRoomConflict,
		TeacherPreference: tp.PenaltyTeacherPreference,
	}
	return parameters, problem, weights
}

// JoinParameters 是 SplitParameters 的逆操作
func JoinParameters(parameters *Parameters, problem *Problem, weights *Weights) domain.TimetableParameters {
	return domain.TimetableParameters{
		PopulationSize:   parameters.PopulationSize,
		MaxGenerations:   parameters.MaxGenerations,
		CrossoverRate:    parameters.CrossoverRate,
		MutationRate:     parameters.MutationRate,
		TournamentSize:   parameters.TournamentSize,
		EliteCount:       parameters.EliteCount,
		Epsilon:          parameters.Epsilon,
		ProgressInterval: parameters.ProgressInterval,

		NumDays:              problem.NumDays,
		NumSlots:             problem.NumSlots,
		NumRooms:             problem.NumRooms,
		NumTeachers:          problem.NumTeachers,
		NumGroups:            problem.NumGroups,
		SubjectCatalog:       problem.SubjectCatalog,
		TeacherSubjectsMin:   problem.TeacherSubjectsMin,
		TeacherSubjectsMax:   problem.TeacherSubjectsMax,
		GroupSubjectsMin:     problem.GroupSubjectsMin,
		GroupSubjectsMax:     problem.GroupSubjectsMax,
		PreferredDays:        problem.PreferredDays,
		MaxPlacementAttempts: problem.MaxPlacementAttempts,

		PenaltyTeacherConflict:   weights.TeacherConflict,
		PenaltyGroupConflict:     weights.GroupConflict,
		PenaltyRoomConflict:      weights.RoomConflict,
		PenaltyTeacherPreference: weights.TeacherPreference,
	}
}
