package utils

import (
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
)

// ValidateTimetableLessons 检查手动提交的课表中的编号、星期和节次是否越界，
// 以及科目是否属于对应的教师和班级
func ValidateTimetableLessons(lessons []domain.TimetableLesson, params *domain.TimetableParameters, instance *domain.TimetableInstance) error {
	for i, l := range lessons {
		if l.TeacherID < 0 || l.TeacherID >= params.NumTeachers {
			return fmt.Errorf("第 %d 节课的教师 %d 不存在", i+1, l.TeacherID)
		}
		if l.GroupID < 0 || l.GroupID >= params.NumGroups {
			return fmt.Errorf("第 %d 节课的班级 %d 不存在", i+1, l.GroupID)
		}
		if l.RoomID < 0 || l.RoomID >= params.NumRooms {
			return fmt.Errorf("第 %d 节课的教室 %d 不存在", i+1, l.RoomID)
		}
		if l.Day < 0 || l.Day >= params.NumDays {
			return fmt.Errorf("第 %d 节课的星期 %d 超出范围", i+1, l.Day)
		}
		if l.Slot < 0 || l.Slot >= params.NumSlots {
			return fmt.Errorf("第 %d 节课的节次 %d 超出范围", i+1, l.Slot)
		}

		if instance == nil {
			continue
		}
		if !slices.Contains(instance.TeacherSubjects[l.TeacherID], l.Subject) {
			return fmt.Errorf("第 %d 节课的教师 %d 不能教授 %s", i+1, l.TeacherID, l.Subject)
		}
		if !slices.Contains(instance.GroupSubjects[l.GroupID], l.Subject) {
			return fmt.Errorf("第 %d 节课的班级 %d 不需要学习 %s", i+1, l.GroupID, l.Subject)
		}
	}

	return nil
}
