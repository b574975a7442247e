package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
)

func TestTabulateConflicts(t *testing.T) {
	// Arrange
	lessons := []domain.TimetableLesson{
		{TeacherID: 0, GroupID: 0, Subject: "数学", RoomID: 0, Day: 0, Slot: 0},
		{TeacherID: 0, GroupID: 1, Subject: "数学", RoomID: 1, Day: 0, Slot: 0}, // 教师 0 冲突
		{TeacherID: 1, GroupID: 2, Subject: "物理", RoomID: 2, Day: 1, Slot: 3},
		{TeacherID: 2, GroupID: 2, Subject: "化学", RoomID: 2, Day: 1, Slot: 3}, // 班级 2、教室 2 冲突
		{TeacherID: 2, GroupID: 3, Subject: "化学", RoomID: 3, Day: 2, Slot: 0},
	}

	// Act
	conflicts := TabulateConflicts(lessons, 3, 4, 4)

	// Assert
	assert.Equal(t, []int{0}, conflicts.Teachers)
	assert.Equal(t, []int{2}, conflicts.Groups)
	assert.Equal(t, []int{2}, conflicts.Rooms)
}

func TestTabulateConflictsEmpty(t *testing.T) {
	conflicts := TabulateConflicts(nil, 2, 2, 2)

	assert.Empty(t, conflicts.Teachers)
	assert.Empty(t, conflicts.Groups)
	assert.Empty(t, conflicts.Rooms)
}

func TestRenderTimetable(t *testing.T) {
	lessons := []domain.TimetableLesson{
		{TeacherID: 4, GroupID: 1, Subject: "数学", RoomID: 2, Day: 0, Slot: 1},
	}
	var buf bytes.Buffer

	require.NoError(t, RenderTimetable(&buf, lessons, 2, 2))

	out := buf.String()
	assert.Contains(t, out, "星期一:")
	assert.Contains(t, out, "星期二:")
	assert.Contains(t, out, "第 1 节: 没有课")
	assert.Contains(t, out, "班级 2 | 科目: 数学 | 教师: 5 | 教室: 3")
}

func TestRenderConflicts(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, RenderConflicts(&buf, &domain.TimetableConflicts{
		Teachers: []int{0},
		Groups:   []int{},
		Rooms:    []int{1, 2},
	}))

	out := buf.String()
	assert.Contains(t, out, "教师 1 存在冲突")
	assert.Contains(t, out, "教室 3 存在冲突")
	assert.Contains(t, out, "教室: 2")
	assert.Contains(t, out, "班级: 0")
}
