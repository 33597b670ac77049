package telegram

import "github.com/ykvlv/daily-report-notifier/internal/domain"

// UI texts in English
const (
	startFmt = "👋 I deliver daily activity reports.\n\n" +
		"This chat id is %d.\n" +
		"Send /link <account id> to receive notifications for that account here, " +
		"/unlink <account id> to stop, and /status <student id> to see today's progress."
	usageText    = "Usage: /link <account id>, /unlink <account id> or /status <student id>"
	unknownText  = "Unknown command. Send /help to see what I can do."
	linkedFmt    = "✅ Linked to %s (%s). Notifications will arrive in this chat."
	linkRoleText = "Only teacher and parent accounts can be linked to a chat."

	linkedElsewhereFmt = "%s is already linked to another chat. Send /unlink there first."
	statusFmt          = "🧾 %s on %s: %d of %d activities recorded."
	completeText       = "🎉 All activities are done for today!"
)

func roleText(r domain.Role) string {
	switch r {
	case domain.RoleStudent:
		return "student"
	case domain.RoleTeacher:
		return "teacher"
	case domain.RoleGuardian:
		return "parent"
	}
	return string(r)
}

var kindTexts = map[domain.Kind]string{
	domain.KindWakeUp:        "Wake up early",
	domain.KindSleep:         "Sleep early",
	domain.KindWorship:       "Worship",
	domain.KindHealthyEating: "Eat healthy",
	domain.KindExercise:      "Exercise",
	domain.KindSchool:        "Go to school",
	domain.KindLearning:      "Enjoy learning",
	domain.KindSocializing:   "Socialize",
}

func kindText(k domain.Kind) string {
	if s, ok := kindTexts[k]; ok {
		return s
	}
	return string(k)
}
