package tracker

import (
	"fmt"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/push"
)

const clickAction = "FLUTTER_NOTIFICATION_CLICK"

func completionMessage(student *domain.User, day string) push.Message {
	name := student.Username
	if name == "" {
		name = student.ID
	}
	return push.Message{
		Title: "Daily report complete ✅",
		Body:  fmt.Sprintf("Student %s has completed all activities today.", name),
		Data: map[string]string{
			"click_action": clickAction,
			"type":         "daily_complete",
			"student_id":   student.ID,
			"day":          day,
		},
	}
}

func reminderMessage(job JobName, title, body string) push.Message {
	return push.Message{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"click_action": clickAction,
			"type":         string(job),
		},
	}
}
