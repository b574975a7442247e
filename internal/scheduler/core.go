package scheduler

// randomInitSchedule 随机初始化一个候选课表
// 对每个 (班级, 班级需要学习的科目) 尝试若干次随机放置，只有不冲突时才放入课表
// 没有教师能教授的科目，或者尝试次数用完仍然冲突的，直接跳过
func (s *Scheduler) randomInitSchedule() *Schedule {
	problem := s.instance.problem
	sch := NewSchedule(s.instance)

	for groupID := 0; groupID < problem.NumGroups; groupID++ {
		for _, subject := range s.instance.groupSubjects[groupID] {
			teachers, ok := s.instance.QualifiedTeachers(subject)
			if !ok {
				continue
			}

			for attempt := 0; attempt < problem.MaxPlacementAttempts; attempt++ {
				lesson := Lesson{
					TeacherID: teachers[s.rng.Intn(len(teachers))],
					GroupID:   groupID,
					Subject:   subject,
					Day:       s.rng.Intn(problem.NumDays),
					Slot:      s.rng.Intn(problem.NumSlots),
					RoomID:    s.rng.Intn(problem.NumRooms),
				}

				if !sch.HasConflict(lesson) {
					sch.AddLesson(lesson)
					break
				}
			}
		}
	}

	return sch
}

/**
 * 计算课表的惩罚值
 * penalty = 冲突课数 * (教师冲突 + 班级冲突 + 教室冲突) + 不在偏好日上课的课数 * 偏好惩罚
 * 其中:
 * 		1. 每节课只要和任意一节其他课冲突，就计一次完整的冲突惩罚，与冲突对象的数量和原因无关
 * 		   （三节课互相冲突会计三次）
 * 		2. 偏好惩罚按每节课单独计算
 */
func CalculatePenalty(sch *Schedule, weights *Weights) float64 {
	penalty := 0.0

	for i := range sch.lessons {
		if sch.conflictsAt(i) {
			penalty += weights.conflictCost()
		}
	}

	for _, lesson := range sch.lessons {
		if !sch.instance.Prefers(lesson.TeacherID, lesson.Day) {
			penalty += weights.TeacherPreference
		}
	}

	return penalty
}

// Fitness 把惩罚值转换为适应度，惩罚越小适应度越高
func Fitness(penalty float64, epsilon float64) float64 {
	return 1.0 / (penalty + epsilon)
}

// 锦标赛选择：不放回地随机抽取若干个体，返回其中适应度最高者的拷贝
// 适应度相同时取抽样顺序中先出现的
func (s *Scheduler) selectByTournament(pop []*Schedule, fitnesses []float64) *Schedule {
	size := min(int(s.parameters.TournamentSize), len(pop))
	chosen := s.rng.Perm(len(pop))[:size]

	best := chosen[0]
	for _, idx := range chosen[1:] {
		if fitnesses[idx] > fitnesses[best] {
			best = idx
		}
	}

	return pop[best].Clone()
}

// 交叉：把两个父本的排课合并后打乱，从中间切开分给两个子代
// 子代 1 继承父本 1 的问题实例，子代 2 继承父本 2 的
func (s *Scheduler) crossover(p1 *Schedule, p2 *Schedule) (*Schedule, *Schedule) {
	pool := make([]Lesson, 0, len(p1.lessons)+len(p2.lessons))
	pool = append(pool, p1.lessons...)
	pool = append(pool, p2.lessons...)

	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	mid := len(pool) / 2

	ch1 := &Schedule{
		lessons:  append([]Lesson{}, pool[:mid]...),
		instance: p1.instance,
	}
	ch2 := &Schedule{
		lessons:  append([]Lesson{}, pool[mid:]...),
		instance: p2.instance,
	}

	return ch1, ch2
}

// 变异：随机选一节课，各一半的概率重新随机它的星期或节次，不检查冲突
// 课表为空时什么也不做，返回 false
func (s *Scheduler) mutate(sch *Schedule) bool {
	if len(sch.lessons) == 0 {
		return false
	}

	problem := sch.instance.problem
	lesson := &sch.lessons[s.rng.Intn(len(sch.lessons))]

	if s.rng.Float64() < 0.5 {
		lesson.Day = s.rng.Intn(problem.NumDays)
	} else {
		lesson.Slot = s.rng.Intn(problem.NumSlots)
	}

	return true
}
