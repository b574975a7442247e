package scheduler

import (
	"math/rand"
	"slices"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProblem() *Problem {
	return &Problem{
		NumDays:              5,
		NumSlots:             6,
		NumRooms:             10,
		NumTeachers:          15,
		NumGroups:            12,
		SubjectCatalog:       DefaultSubjectCatalog,
		TeacherSubjectsMin:   5,
		TeacherSubjectsMax:   7,
		GroupSubjectsMin:     10,
		GroupSubjectsMax:     12,
		PreferredDays:        3,
		MaxPlacementAttempts: 100,
	}
}

func testParameters() *Parameters {
	return &Parameters{
		PopulationSize:   30,
		MaxGenerations:   20,
		CrossoverRate:    0.8,
		MutationRate:     0.1,
		TournamentSize:   3,
		EliteCount:       2,
		Epsilon:          1e-10,
		ProgressInterval: 5,
		Workers:          4,
	}
}

func testWeights() *Weights {
	return &Weights{
		TeacherConflict:   1000,
		GroupConflict:     1000,
		RoomConflict:      1000,
		TeacherPreference: 100,
	}
}

func newTestScheduler(t *testing.T, seed int64) *Scheduler {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	instance, err := NewRandomInstance(testProblem(), rng)
	require.NoError(t, err)

	s, err := New(testParameters(), testWeights(), instance, rng)
	require.NoError(t, err)
	return s
}

func TestScheduleDeterministicWithSeed(t *testing.T) {
	// Arrange
	s1 := newTestScheduler(t, 42)
	s2 := newTestScheduler(t, 42)

	// Act
	res1 := s1.Schedule()
	res2 := s2.Schedule()

	// Assert
	assert.Equal(t, res1.Penalty, res2.Penalty)
	assert.Equal(t, res1.Best.Lessons(), res2.Best.Lessons())
	assert.Equal(t, 20, res1.Generations)
}

func TestSchedulePenaltyMatchesBest(t *testing.T) {
	s := newTestScheduler(t, 7)

	res := s.Schedule()

	require.NotNil(t, res.Best)
	assert.Equal(t, CalculatePenalty(res.Best, s.weights), res.Penalty)
	assert.GreaterOrEqual(t, res.Penalty, 0.0)
}

func TestScheduleReportsProgress(t *testing.T) {
	// Arrange
	s := newTestScheduler(t, 3)
	var observed []Progress
	s.OnProgress(func(p Progress) {
		observed = append(observed, p)
	})

	// Act
	res := s.Schedule()

	// Assert
	generations := make([]int, len(observed))
	for i, p := range observed {
		generations[i] = p.Generation
	}
	assert.Equal(t, []int{0, 5, 10, 15, 19}, generations)

	for i := 1; i < len(observed); i++ {
		assert.LessOrEqual(t, observed[i].BestPenalty, observed[i-1].BestPenalty)
	}
	assert.Equal(t, res.Penalty, observed[len(observed)-1].BestPenalty)
}

func TestEvolveKeepsBestFitness(t *testing.T) {
	g := NewWithT(t)
	s := newTestScheduler(t, 11)

	pop := make([]*Schedule, s.parameters.PopulationSize)
	for i := range pop {
		pop[i] = s.randomInitSchedule()
	}

	fitnesses := s.evaluate(pop)
	for range 10 {
		oldBest := slices.Max(fitnesses)

		newPop, newFitnesses := s.evolve(pop, fitnesses)

		g.Expect(newPop).To(HaveLen(int(s.parameters.PopulationSize)))
		g.Expect(newFitnesses).To(Equal(s.evaluate(newPop)))
		g.Expect(slices.Max(newFitnesses)).To(BeNumerically(">=", oldBest))
		pop, fitnesses = newPop, newFitnesses
	}
}

func TestEvolveFillsOddPopulation(t *testing.T) {
	s := newTestScheduler(t, 5)
	s.parameters.PopulationSize = 7
	s.parameters.EliteCount = 0

	pop := make([]*Schedule, 7)
	for i := range pop {
		pop[i] = s.randomInitSchedule()
	}

	newPop, fitnesses := s.evolve(pop, s.evaluate(pop))

	assert.Len(t, newPop, 7)
	assert.Len(t, fitnesses, 7)
}

func TestEvolveDoesNotShareCandidates(t *testing.T) {
	s := newTestScheduler(t, 19)
	s.parameters.MutationRate = 1

	pop := make([]*Schedule, s.parameters.PopulationSize)
	for i := range pop {
		pop[i] = s.randomInitSchedule()
	}

	newPop, _ := s.evolve(pop, s.evaluate(pop))

	for i := range newPop {
		for j := i + 1; j < len(newPop); j++ {
			assert.NotSame(t, newPop[i], newPop[j])
		}
		for _, old := range pop {
			assert.NotSame(t, newPop[i], old)
		}
	}
}

func TestScheduleSingleResourceProblem(t *testing.T) {
	// Arrange
	problem := &Problem{
		NumDays:              1,
		NumSlots:             1,
		NumRooms:             1,
		NumTeachers:          1,
		NumGroups:            1,
		SubjectCatalog:       []string{"数学"},
		TeacherSubjectsMin:   5,
		TeacherSubjectsMax:   7,
		GroupSubjectsMin:     10,
		GroupSubjectsMax:     12,
		PreferredDays:        3,
		MaxPlacementAttempts: 100,
	}
	rng := rand.New(rand.NewSource(1))
	instance, err := NewRandomInstance(problem, rng)
	require.NoError(t, err)

	s, err := New(testParameters(), testWeights(), instance, rng)
	require.NoError(t, err)

	// Act
	initial := s.randomInitSchedule()
	res := s.Schedule()

	// Assert
	assert.Equal(t, 1, initial.Len())
	assert.Equal(t, 1, res.Best.Len())
	assert.Equal(t, 0.0, res.Penalty)
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	instance, err := NewRandomInstance(testProblem(), rng)
	require.NoError(t, err)

	tooManyElites := testParameters()
	tooManyElites.EliteCount = tooManyElites.PopulationSize + 1
	_, err = New(tooManyElites, testWeights(), instance, rng)
	assert.Error(t, err)

	noGenerations := testParameters()
	noGenerations.MaxGenerations = 0
	_, err = New(noGenerations, testWeights(), instance, rng)
	assert.Error(t, err)

	badRate := testParameters()
	badRate.CrossoverRate = 1.5
	_, err = New(badRate, testWeights(), instance, rng)
	assert.Error(t, err)

	negativeWeight := testWeights()
	negativeWeight.RoomConflict = -1
	_, err = New(testParameters(), negativeWeight, instance, rng)
	assert.Error(t, err)

	_, err = New(testParameters(), testWeights(), nil, rng)
	assert.Error(t, err)

	_, err = New(testParameters(), testWeights(), instance, nil)
	assert.Error(t, err)
}
