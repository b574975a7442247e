package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/scheduler"
)

func TestLoadSchedulerConfigDefaults(t *testing.T) {
	cfg, err := LoadSchedulerConfig()
	require.NoError(t, err)

	parameters, problem, weights := cfg.Build()

	assert.Equal(t, int32(200), parameters.PopulationSize)
	assert.Equal(t, int32(50), parameters.MaxGenerations)
	assert.Equal(t, 0.8, parameters.CrossoverRate)
	assert.Equal(t, 0.1, parameters.MutationRate)
	assert.Equal(t, int32(3), parameters.TournamentSize)
	assert.Equal(t, int32(2), parameters.EliteCount)
	assert.Equal(t, 1e-10, parameters.Epsilon)
	assert.Equal(t, int32(50), parameters.ProgressInterval)

	assert.Equal(t, 5, problem.NumDays)
	assert.Equal(t, 6, problem.NumSlots)
	assert.Equal(t, 10, problem.NumRooms)
	assert.Equal(t, 15, problem.NumTeachers)
	assert.Equal(t, 12, problem.NumGroups)
	assert.Equal(t, scheduler.DefaultSubjectCatalog, problem.SubjectCatalog)
	assert.Equal(t, 100, problem.MaxPlacementAttempts)

	assert.Equal(t, &scheduler.Weights{
		TeacherConflict:   1000,
		GroupConflict:     1000,
		RoomConflict:      1000,
		TeacherPreference: 100,
	}, weights)
}

func TestLoadSchedulerConfigFromEnv(t *testing.T) {
	t.Setenv("GA_POPULATION_SIZE", "40")
	t.Setenv("GA_SEED", "123")
	t.Setenv("PROBLEM_NUM_DAYS", "1")
	t.Setenv("PROBLEM_SUBJECT_CATALOG", "数学,物理")
	t.Setenv("PENALTY_TEACHER_PREFERENCE", "5")

	cfg, err := LoadSchedulerConfig()
	require.NoError(t, err)

	parameters, problem, weights := cfg.Build()

	assert.Equal(t, int32(40), parameters.PopulationSize)
	assert.Equal(t, int64(123), cfg.GA.Seed)
	assert.Equal(t, 1, problem.NumDays)
	assert.Equal(t, []string{"数学", "物理"}, problem.SubjectCatalog)
	assert.Equal(t, 5.0, weights.TeacherPreference)
}

func TestLoadSchedulerConfigInvalidValue(t *testing.T) {
	t.Setenv("GA_POPULATION_SIZE", "many")

	_, err := LoadSchedulerConfig()
	assert.Error(t, err)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	_, err := LoadConfig()
	assert.Error(t, err)
}
