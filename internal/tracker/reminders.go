package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/push"
)

// JobName identifies a scheduled scan.
type JobName string

const (
	JobSleepReminder  JobName = "sleep_reminder"
	JobWakeUpCheck    JobName = "wake_up_check"
	JobDailyReminder  JobName = "daily_reminder"
	JobGuardianReport JobName = "guardian_report"
)

var ErrUnknownJob = errors.New("unknown job")

// Jobs lists every scan the tracker can run.
func Jobs() []JobName {
	return []JobName{JobSleepReminder, JobWakeUpCheck, JobDailyReminder, JobGuardianReport}
}

// ParseJob validates a job name.
func ParseJob(s string) (JobName, error) {
	for _, j := range Jobs() {
		if string(j) == s {
			return j, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJob, s)
}

// ScanReport summarizes one scheduled run.
type ScanReport struct {
	Job        JobName        `json:"job"`
	Day        string         `json:"day"`
	Population int            `json:"population"`
	Done       int            `json:"done"`
	Pending    int            `json:"pending"`
	Notified   int            `json:"notified"`
	Delivery   DispatchResult `json:"delivery"`
}

var (
	sleepReminder = reminderMessage(JobSleepReminder,
		"Time to sleep! 🌙",
		"It is getting late. Go to bed early so you wake up fresh tomorrow!")
	wakeUpReminder = reminderMessage(JobWakeUpCheck,
		"Still asleep? ☀️",
		"Don't forget to record your wake-up time. Have a great morning!")
	dailyReminder = reminderMessage(JobDailyReminder,
		"Complete your day 📋",
		"Some of today's activities are still missing. Record them before bedtime!")
)

// RunJob runs one scan for the day containing now. A failed population
// query aborts the run with an error; problems with a single student are
// logged and skipped.
func (t *Tracker) RunJob(ctx context.Context, job JobName) (ScanReport, error) {
	switch job {
	case JobSleepReminder:
		return t.kindReminder(ctx, job, domain.KindSleep, sleepReminder)
	case JobWakeUpCheck:
		return t.kindReminder(ctx, job, domain.KindWakeUp, wakeUpReminder)
	case JobDailyReminder:
		return t.dailyReminder(ctx)
	case JobGuardianReport:
		return t.guardianReport(ctx)
	}
	return ScanReport{}, fmt.Errorf("%w: %q", ErrUnknownJob, job)
}

// kindReminder reminds every student without a record of kind today.
func (t *Tracker) kindReminder(ctx context.Context, job JobName, kind domain.Kind, msg push.Message) (ScanReport, error) {
	w := t.eval.Window(t.now())
	rep := ScanReport{Job: job, Day: w.Key}

	students, err := t.store.ListUsersByRole(ctx, domain.RoleStudent)
	if err != nil {
		return rep, fmt.Errorf("list students: %w", err)
	}
	done, err := t.eval.Participants(ctx, w, kind)
	if err != nil {
		return rep, err
	}

	rep.Population = len(students)
	var addresses []string
	for i := range students {
		if _, ok := done[students[i].ID]; ok {
			rep.Done++
			continue
		}
		rep.Pending++
		if students[i].HasAddress() {
			addresses = appendUnique(addresses, students[i].PushAddress)
		}
	}
	return t.sendReminder(ctx, rep, addresses, msg)
}

// dailyReminder reminds every student whose day is not complete yet.
func (t *Tracker) dailyReminder(ctx context.Context) (ScanReport, error) {
	w := t.eval.Window(t.now())
	rep := ScanReport{Job: JobDailyReminder, Day: w.Key}

	students, err := t.store.ListUsersByRole(ctx, domain.RoleStudent)
	if err != nil {
		return rep, fmt.Errorf("list students: %w", err)
	}
	states, err := t.eval.EvaluateAll(ctx, w)
	if err != nil {
		return rep, err
	}

	rep.Population = len(students)
	var addresses []string
	for i := range students {
		if s, ok := states[students[i].ID]; ok && t.eval.IsComplete(s) {
			rep.Done++
			continue
		}
		rep.Pending++
		if students[i].HasAddress() {
			addresses = appendUnique(addresses, students[i].PushAddress)
		}
	}
	return t.sendReminder(ctx, rep, addresses, dailyReminder)
}

func (t *Tracker) sendReminder(ctx context.Context, rep ScanReport, addresses []string, msg push.Message) (ScanReport, error) {
	res, err := t.dispatcher.Send(ctx, addresses, msg)
	rep.Delivery = res
	rep.Notified = res.SuccessCount
	t.log.Info("reminder scan finished",
		zap.String("job", string(rep.Job)),
		zap.String("day", rep.Day),
		zap.Int("population", rep.Population),
		zap.Int("done", rep.Done),
		zap.Int("pending", rep.Pending),
		zap.Int("addresses", len(addresses)),
	)
	if err != nil {
		return rep, fmt.Errorf("%s dispatch: %w", rep.Job, err)
	}
	return rep, nil
}

// guardianReport sends the completion notice for every student who
// completed the day but was not notified, e.g. because the gateway was down
// when the last record arrived. Users and records are each read once and
// joined in memory.
func (t *Tracker) guardianReport(ctx context.Context) (ScanReport, error) {
	w := t.eval.Window(t.now())
	rep := ScanReport{Job: JobGuardianReport, Day: w.Key}

	users, err := t.store.ListUsers(ctx)
	if err != nil {
		return rep, fmt.Errorf("list users: %w", err)
	}
	states, err := t.eval.EvaluateAll(ctx, w)
	if err != nil {
		return rep, err
	}

	dir := NewDirectory(users)
	students := dir.Role(domain.RoleStudent)
	rep.Population = len(students)
	for _, student := range students {
		s, ok := states[student.ID]
		if !ok || !t.eval.IsComplete(s) {
			rep.Pending++
			continue
		}
		rep.Done++
		if !t.dedup.ShouldNotify(student, w.Key) {
			continue
		}
		res, sent, err := t.notify(ctx, student, w.Key, dir.Recipients(student))
		if res != nil {
			rep.Delivery.merge(*res)
		}
		if err != nil {
			t.log.Error("guardian report failed", zap.String("user", student.ID), zap.Error(err))
			continue
		}
		if sent {
			rep.Notified++
		}
	}
	t.log.Info("guardian report finished",
		zap.String("day", rep.Day),
		zap.Int("population", rep.Population),
		zap.Int("done", rep.Done),
		zap.Int("notified", rep.Notified),
	)
	return rep, nil
}
