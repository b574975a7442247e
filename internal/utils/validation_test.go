package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
)

func TestValidateTimetableLessons(t *testing.T) {
	params := &domain.TimetableParameters{NumDays: 5, NumSlots: 6, NumRooms: 2, NumTeachers: 2, NumGroups: 2}
	instance := &domain.TimetableInstance{
		TeacherSubjects: [][]string{{"数学"}, {"物理"}},
		TeacherDays:     [][]int{{0}, {1}},
		GroupSubjects:   [][]string{{"数学", "物理"}, {"物理"}},
	}
	valid := domain.TimetableLesson{TeacherID: 0, GroupID: 0, Subject: "数学", RoomID: 1, Day: 4, Slot: 5}

	testCases := []struct {
		name    string
		mutate  func(l *domain.TimetableLesson)
		wantErr bool
	}{
		{"valid", func(l *domain.TimetableLesson) {}, false},
		{"teacher out of range", func(l *domain.TimetableLesson) { l.TeacherID = 2 }, true},
		{"group out of range", func(l *domain.TimetableLesson) { l.GroupID = -1 }, true},
		{"room out of range", func(l *domain.TimetableLesson) { l.RoomID = 2 }, true},
		{"day out of range", func(l *domain.TimetableLesson) { l.Day = 5 }, true},
		{"slot out of range", func(l *domain.TimetableLesson) { l.Slot = 6 }, true},
		{"teacher cannot teach subject", func(l *domain.TimetableLesson) { l.TeacherID = 1 }, true},
		{"group does not take subject", func(l *domain.TimetableLesson) { l.GroupID = 1 }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lesson := valid
			tc.mutate(&lesson)

			err := ValidateTimetableLessons([]domain.TimetableLesson{lesson}, params, instance)

			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
