package scheduler

import (
	"math/rand"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 三个教师、三个班级，所有教师都只偏好星期 0
func fixedInstance(t *testing.T) *Instance {
	t.Helper()

	problem := testProblem()
	problem.NumTeachers = 3
	problem.NumGroups = 3

	instance, err := NewInstance(problem,
		[][]string{{"数学"}, {"物理"}, {"化学"}},
		[][]string{{"数学", "物理"}, {"化学"}, {"数学"}},
		[][]int{{0}, {0}, {0}},
	)
	require.NoError(t, err)
	return instance
}

func TestCalculatePenaltyZeroForCleanSchedule(t *testing.T) {
	sch := NewSchedule(fixedInstance(t))
	sch.AddLesson(Lesson{TeacherID: 0, GroupID: 0, Subject: "数学", RoomID: 0, Day: 0, Slot: 0})
	sch.AddLesson(Lesson{TeacherID: 1, GroupID: 0, Subject: "物理", RoomID: 0, Day: 0, Slot: 1})
	sch.AddLesson(Lesson{TeacherID: 2, GroupID: 1, Subject: "化学", RoomID: 1, Day: 0, Slot: 0})

	assert.Equal(t, 0.0, CalculatePenalty(sch, testWeights()))
}

func TestCalculatePenaltyCountsEveryConflictingLesson(t *testing.T) {
	// Arrange: 三节课同一时间同一教室，教师和班级各不相同
	sch := NewSchedule(fixedInstance(t))
	sch.AddLesson(Lesson{TeacherID: 0, GroupID: 0, Subject: "数学", RoomID: 4, Day: 0, Slot: 2})
	sch.AddLesson(Lesson{TeacherID: 1, GroupID: 1, Subject: "物理", RoomID: 4, Day: 0, Slot: 2})
	sch.AddLesson(Lesson{TeacherID: 2, GroupID: 2, Subject: "化学", RoomID: 4, Day: 0, Slot: 2})

	// Act
	penalty := CalculatePenalty(sch, testWeights())

	// Assert
	assert.Equal(t, 3*3000.0, penalty)
}

func TestCalculatePenaltyTeacherPreference(t *testing.T) {
	sch := NewSchedule(fixedInstance(t))
	sch.AddLesson(Lesson{TeacherID: 0, GroupID: 0, Subject: "数学", RoomID: 0, Day: 1, Slot: 0})
	sch.AddLesson(Lesson{TeacherID: 1, GroupID: 0, Subject: "物理", RoomID: 0, Day: 0, Slot: 0})

	assert.Equal(t, 100.0, CalculatePenalty(sch, testWeights()))
}

func TestCalculatePenaltyDuplicateLessonsConflict(t *testing.T) {
	sch := NewSchedule(fixedInstance(t))
	lesson := Lesson{TeacherID: 0, GroupID: 0, Subject: "数学", RoomID: 0, Day: 0, Slot: 0}
	sch.AddLesson(lesson)
	sch.AddLesson(lesson)

	assert.Equal(t, 2*3000.0, CalculatePenalty(sch, testWeights()))
}

func TestCalculatePenaltyNonNegative(t *testing.T) {
	s := newTestScheduler(t, 23)

	for range 50 {
		sch := s.randomInitSchedule()
		for range 20 {
			s.mutate(sch)
		}
		assert.GreaterOrEqual(t, CalculatePenalty(sch, s.weights), 0.0)
	}
}

func TestFitnessDecreasesWithPenalty(t *testing.T) {
	penalties := []float64{0, 1e-9, 1, 100, 3000, 1e6}
	for i := 1; i < len(penalties); i++ {
		assert.Greater(t, Fitness(penalties[i-1], 1e-10), Fitness(penalties[i], 1e-10))
	}
}

func TestHasConflict(t *testing.T) {
	sch := NewSchedule(fixedInstance(t))
	sch.AddLesson(Lesson{TeacherID: 0, GroupID: 0, Subject: "数学", RoomID: 0, Day: 2, Slot: 3})

	testCases := []struct {
		name     string
		lesson   Lesson
		conflict bool
	}{
		{"same teacher", Lesson{TeacherID: 0, GroupID: 1, RoomID: 1, Day: 2, Slot: 3}, true},
		{"same group", Lesson{TeacherID: 1, GroupID: 0, RoomID: 1, Day: 2, Slot: 3}, true},
		{"same room", Lesson{TeacherID: 1, GroupID: 1, RoomID: 0, Day: 2, Slot: 3}, true},
		{"other slot", Lesson{TeacherID: 0, GroupID: 0, RoomID: 0, Day: 2, Slot: 4}, false},
		{"other day", Lesson{TeacherID: 0, GroupID: 0, RoomID: 0, Day: 1, Slot: 3}, false},
		{"disjoint resources", Lesson{TeacherID: 1, GroupID: 1, RoomID: 1, Day: 2, Slot: 3}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.conflict, sch.HasConflict(tc.lesson))
		})
	}
}

func TestResourceLessons(t *testing.T) {
	sch := NewSchedule(fixedInstance(t))
	sch.AddLesson(Lesson{TeacherID: 0, GroupID: 0, Subject: "数学", RoomID: 0, Day: 0, Slot: 0})
	sch.AddLesson(Lesson{TeacherID: 1, GroupID: 0, Subject: "物理", RoomID: 1, Day: 0, Slot: 1})
	sch.AddLesson(Lesson{TeacherID: 0, GroupID: 2, Subject: "数学", RoomID: 1, Day: 0, Slot: 2})

	assert.Len(t, sch.TeacherLessons(0), 2)
	assert.Len(t, sch.GroupLessons(0), 2)
	assert.Len(t, sch.RoomLessons(1), 2)
	assert.Empty(t, sch.TeacherLessons(2))
}

func TestRandomInitScheduleIsConflictFree(t *testing.T) {
	s := newTestScheduler(t, 31)

	for range 20 {
		sch := s.randomInitSchedule()

		for i, lesson := range sch.Lessons() {
			assert.False(t, sch.conflictsAt(i))
			assert.Contains(t, s.instance.GroupSubjects(lesson.GroupID), lesson.Subject)
			assert.Contains(t, s.instance.TeacherSubjects(lesson.TeacherID), lesson.Subject)
		}
	}
}

func TestRandomInitScheduleSkipsSubjectsWithoutTeachers(t *testing.T) {
	problem := testProblem()
	problem.NumTeachers = 1
	problem.NumGroups = 1
	instance, err := NewInstance(problem, [][]string{{"数学"}}, [][]string{{"哲学", "法学"}}, [][]int{{0}})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	s, err := New(testParameters(), testWeights(), instance, rng)
	require.NoError(t, err)

	assert.Equal(t, 0, s.randomInitSchedule().Len())
}

func TestSelectByTournamentReturnsBestCopy(t *testing.T) {
	s := newTestScheduler(t, 2)
	s.parameters.TournamentSize = 100 // 超过种群大小时抽取整个种群

	pop := []*Schedule{s.randomInitSchedule(), s.randomInitSchedule(), s.randomInitSchedule()}
	fitnesses := []float64{0.1, 0.5, 0.3}

	selected := s.selectByTournament(pop, fitnesses)

	assert.NotSame(t, pop[1], selected)
	assert.Equal(t, pop[1].Lessons(), selected.Lessons())

	original := pop[1].Lessons()[0]
	selected.lessons[0].Day = -1
	assert.Equal(t, original, pop[1].Lessons()[0])
}

func TestCrossoverConservesLessons(t *testing.T) {
	g := NewWithT(t)
	s := newTestScheduler(t, 13)

	for range 50 {
		p1 := s.randomInitSchedule()
		p2 := s.randomInitSchedule()
		if s.rng.Intn(4) == 0 {
			p2 = NewSchedule(s.instance)
		}

		ch1, ch2 := s.crossover(p1, p2)

		g.Expect(ch1.Len() + ch2.Len()).To(Equal(p1.Len() + p2.Len()))
		g.Expect(ch1.Len()).To(Equal((p1.Len() + p2.Len()) / 2))
		g.Expect(ch1.Instance()).To(BeIdenticalTo(p1.Instance()))
		g.Expect(ch2.Instance()).To(BeIdenticalTo(p2.Instance()))

		merged := append(append([]Lesson{}, ch1.Lessons()...), ch2.Lessons()...)
		g.Expect(merged).To(ConsistOf(append(append([]Lesson{}, p1.Lessons()...), p2.Lessons()...)))
	}
}

func TestCrossoverDoesNotAliasParents(t *testing.T) {
	s := newTestScheduler(t, 17)
	p1 := s.randomInitSchedule()
	p2 := s.randomInitSchedule()
	before := append([]Lesson{}, p1.Lessons()...)

	ch1, ch2 := s.crossover(p1, p2)
	for i := range ch1.lessons {
		ch1.lessons[i].Day = -1
	}
	for i := range ch2.lessons {
		ch2.lessons[i].Day = -1
	}

	assert.Equal(t, before, p1.Lessons())
}

func TestMutateChangesOnlyDayOrSlotOfOneLesson(t *testing.T) {
	s := newTestScheduler(t, 29)

	for range 200 {
		sch := s.randomInitSchedule()
		before := append([]Lesson{}, sch.Lessons()...)

		require.True(t, s.mutate(sch))

		changed := 0
		for i, after := range sch.Lessons() {
			if after == before[i] {
				continue
			}
			changed++

			dayChanged := after.Day != before[i].Day
			slotChanged := after.Slot != before[i].Slot
			assert.True(t, dayChanged != slotChanged)

			after.Day, after.Slot = before[i].Day, before[i].Slot
			assert.Equal(t, before[i], after)
		}
		assert.LessOrEqual(t, changed, 1)
	}
}

func TestMutateEmptySchedule(t *testing.T) {
	s := newTestScheduler(t, 1)
	sch := NewSchedule(s.instance)

	assert.False(t, s.mutate(sch))
	assert.Equal(t, 0, sch.Len())
}
