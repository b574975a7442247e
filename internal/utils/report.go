package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/sysu-ecnc-dev/class-timetable/backend/internal/domain"
)

var dayNames = []string{"星期一", "星期二", "星期三", "星期四", "星期五", "星期六", "星期日"}

func dayName(day int) string {
	if day >= 0 && day < len(dayNames) {
		return dayNames[day]
	}
	return fmt.Sprintf("第 %d 天", day+1)
}

// RenderTimetable 按 星期 -> 节次 打印课表，编号从 1 开始显示
func RenderTimetable(w io.Writer, lessons []domain.TimetableLesson, numDays int, numSlots int) error {
	separator := strings.Repeat("-", 80)

	if _, err := fmt.Fprintf(w, "\n课表:\n%s\n", separator); err != nil {
		return err
	}

	byTime := lo.GroupBy(lessons, func(l domain.TimetableLesson) [2]int { return [2]int{l.Day, l.Slot} })

	for day := 0; day < numDays; day++ {
		if _, err := fmt.Fprintf(w, "\n%s:\n%s\n", dayName(day), separator); err != nil {
			return err
		}

		for slot := 0; slot < numSlots; slot++ {
			slotLessons := byTime[[2]int{day, slot}]
			if len(slotLessons) == 0 {
				if _, err := fmt.Fprintf(w, "\n第 %d 节: 没有课\n", slot+1); err != nil {
					return err
				}
				continue
			}

			if _, err := fmt.Fprintf(w, "\n第 %d 节:\n", slot+1); err != nil {
				return err
			}
			for _, l := range slotLessons {
				if _, err := fmt.Fprintf(w, "  班级 %d | 科目: %s | 教师: %d | 教室: %d\n", l.GroupID+1, l.Subject, l.TeacherID+1, l.RoomID+1); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// TabulateConflicts 找出在同一 (星期, 节次) 被重复安排的教师、班级和教室
func TabulateConflicts(lessons []domain.TimetableLesson, numTeachers int, numGroups int, numRooms int) *domain.TimetableConflicts {
	doubleBooked := func(n int, owner func(domain.TimetableLesson) int) []int {
		ids := make([]int, 0)
		for id := 0; id < n; id++ {
			owned := lo.Filter(lessons, func(l domain.TimetableLesson, _ int) bool { return owner(l) == id })
			times := lo.Uniq(lo.Map(owned, func(l domain.TimetableLesson, _ int) [2]int { return [2]int{l.Day, l.Slot} }))
			if len(times) != len(owned) {
				ids = append(ids, id)
			}
		}
		return ids
	}

	return &domain.TimetableConflicts{
		Teachers: doubleBooked(numTeachers, func(l domain.TimetableLesson) int { return l.TeacherID }),
		Groups:   doubleBooked(numGroups, func(l domain.TimetableLesson) int { return l.GroupID }),
		Rooms:    doubleBooked(numRooms, func(l domain.TimetableLesson) int { return l.RoomID }),
	}
}

// RenderConflicts 打印冲突分析结果，编号从 1 开始显示
func RenderConflicts(w io.Writer, conflicts *domain.TimetableConflicts) error {
	var b strings.Builder

	b.WriteString("\n冲突分析:\n")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, id := range conflicts.Teachers {
		fmt.Fprintf(&b, "教师 %d 存在冲突\n", id+1)
	}
	for _, id := range conflicts.Groups {
		fmt.Fprintf(&b, "班级 %d 存在冲突\n", id+1)
	}
	for _, id := range conflicts.Rooms {
		fmt.Fprintf(&b, "教室 %d 存在冲突\n", id+1)
	}

	b.WriteString("\n冲突总数:\n")
	fmt.Fprintf(&b, "教师: %d\n", len(conflicts.Teachers))
	fmt.Fprintf(&b, "班级: %d\n", len(conflicts.Groups))
	fmt.Fprintf(&b, "教室: %d\n", len(conflicts.Rooms))

	_, err := io.WriteString(w, b.String())
	return err
}
