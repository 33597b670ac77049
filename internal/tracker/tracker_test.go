package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
)

func family() []domain.User {
	return []domain.User{
		{ID: "S", Role: domain.RoleStudent, Username: "Budi", TeacherID: "T", GuardianID: "G"},
		{ID: "T", Role: domain.RoleTeacher, PushAddress: "teacher-token"},
		{ID: "G", Role: domain.RoleGuardian, PushAddress: "guardian-token"},
	}
}

func TestCheckCompletion_EndToEnd(t *testing.T) {
	ctx := context.Background()
	st := newMemStore(family()...)
	gw := &fakeGateway{}
	tr := newTestTracker(t, st, gw)

	recs := dayRecords("S", domain.AllKinds()...)
	for i, rec := range recs {
		st.add(rec)
		rep, err := tr.HandleRecordCreated(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, i+1, rep.Completed)
		assert.Equal(t, i == len(recs)-1, rep.Complete)
	}

	require.Equal(t, 1, gw.callCount())
	assert.ElementsMatch(t, []string{"teacher-token", "guardian-token"}, gw.calls[0])
	assert.Equal(t, "S", gw.msgs[0].Data["student_id"])
	assert.Equal(t, "daily_complete", gw.msgs[0].Data["type"])
	assert.Contains(t, gw.msgs[0].Body, "Budi")
	assert.Equal(t, "2025-05-05", st.user("S").LastNotifiedDay)
}

func TestCheckCompletion_NotifiesOncePerDay(t *testing.T) {
	ctx := context.Background()
	st := newMemStore(family()...)
	st.add(dayRecords("S", domain.AllKinds()...)...)
	gw := &fakeGateway{}
	tr := newTestTracker(t, st, gw)

	first, err := tr.CheckCompletion(ctx, "S", fixedNow)
	require.NoError(t, err)
	assert.True(t, first.Notified)

	// A late duplicate record on the same day.
	extra := dayRecords("S", domain.KindExercise)[0]
	extra.ID = "late"
	st.add(extra)
	second, err := tr.HandleRecordCreated(ctx, extra)
	require.NoError(t, err)
	assert.True(t, second.Complete)
	assert.False(t, second.Notified)

	assert.Equal(t, 1, gw.callCount())
	assert.Equal(t, 1, st.writes)
}

func TestCheckCompletion_DuplicateKindIsNotComplete(t *testing.T) {
	st := newMemStore(family()...)
	kinds := domain.AllKinds()[:7]
	st.add(dayRecords("S", append(kinds, kinds[0])...)...)
	gw := &fakeGateway{}
	tr := newTestTracker(t, st, gw)

	rep, err := tr.CheckCompletion(context.Background(), "S", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 7, rep.Completed)
	assert.False(t, rep.Complete)
	assert.Equal(t, []domain.Kind{domain.AllKinds()[7]}, rep.Missing)
	assert.Zero(t, gw.callCount())
}

func TestCheckCompletion_ExcludesGuardianWithoutAddress(t *testing.T) {
	users := family()
	users[2].PushAddress = ""
	st := newMemStore(users...)
	st.add(dayRecords("S", domain.AllKinds()...)...)
	gw := &fakeGateway{}
	tr := newTestTracker(t, st, gw)

	rep, err := tr.CheckCompletion(context.Background(), "S", fixedNow)
	require.NoError(t, err)
	assert.True(t, rep.Notified)
	assert.Equal(t, 1, rep.Recipients)
	require.Equal(t, 1, gw.callCount())
	assert.Equal(t, []string{"teacher-token"}, gw.calls[0])
}

func TestCheckCompletion_NoRecipientsLeavesMarker(t *testing.T) {
	st := newMemStore(domain.User{ID: "S", Role: domain.RoleStudent, GuardianID: "missing"})
	st.add(dayRecords("S", domain.AllKinds()...)...)
	gw := &fakeGateway{}
	tr := newTestTracker(t, st, gw)

	rep, err := tr.CheckCompletion(context.Background(), "S", fixedNow)
	require.NoError(t, err)
	assert.True(t, rep.Complete)
	assert.False(t, rep.Notified)
	assert.Zero(t, gw.callCount())
	assert.Empty(t, st.user("S").LastNotifiedDay)
}

func TestCheckCompletion_GatewayFailureKeepsMarkerUnset(t *testing.T) {
	ctx := context.Background()
	st := newMemStore(family()...)
	st.add(dayRecords("S", domain.AllKinds()...)...)
	gw := &fakeGateway{callErr: errors.New("gateway unavailable")}
	tr := newTestTracker(t, st, gw)

	rep, err := tr.CheckCompletion(ctx, "S", fixedNow)
	require.NoError(t, err, "gateway failures are logged, not returned")
	assert.False(t, rep.Notified)
	assert.Empty(t, st.user("S").LastNotifiedDay)

	// The next qualifying event retries.
	gw.callErr = nil
	rep, err = tr.CheckCompletion(ctx, "S", fixedNow)
	require.NoError(t, err)
	assert.True(t, rep.Notified)
	assert.Equal(t, 2, gw.callCount())
	assert.Equal(t, "2025-05-05", st.user("S").LastNotifiedDay)
}

func TestCheckCompletion_PartialFailureStillMarks(t *testing.T) {
	st := newMemStore(family()...)
	st.add(dayRecords("S", domain.AllKinds()...)...)
	gw := &fakeGateway{reject: map[string]bool{"guardian-token": true}}
	tr := newTestTracker(t, st, gw)

	rep, err := tr.CheckCompletion(context.Background(), "S", fixedNow)
	require.NoError(t, err)
	assert.True(t, rep.Notified)
	require.NotNil(t, rep.Delivery)
	assert.Equal(t, 1, rep.Delivery.FailureCount)
	assert.Equal(t, "2025-05-05", st.user("S").LastNotifiedDay)
}

func TestCheckCompletion_InterruptedSendStillMarks(t *testing.T) {
	st := newMemStore(family()...)
	st.add(dayRecords("S", domain.AllKinds()...)...)
	gw := &cutShortGateway{fakeGateway: &fakeGateway{}, answer: 1, err: context.Canceled}
	tr := newTestTracker(t, st, gw)

	rep, err := tr.CheckCompletion(context.Background(), "S", fixedNow)
	require.NoError(t, err)
	assert.True(t, rep.Notified)
	require.NotNil(t, rep.Delivery)
	assert.Equal(t, 1, rep.Delivery.SuccessCount)
	assert.Equal(t, 1, rep.Delivery.FailureCount)
	assert.Equal(t, "2025-05-05", st.user("S").LastNotifiedDay)
}

func TestCheckCompletion_StoreFailurePropagates(t *testing.T) {
	st := newMemStore(family()...)
	st.queryErr = errors.New("deadline exceeded")
	tr := newTestTracker(t, st, &fakeGateway{})

	_, err := tr.CheckCompletion(context.Background(), "S", fixedNow)
	assert.ErrorIs(t, err, st.queryErr)
}

func TestCheckCompletion_UnknownStudent(t *testing.T) {
	st := newMemStore()
	st.add(dayRecords("ghost", domain.AllKinds()...)...)
	gw := &fakeGateway{}
	tr := newTestTracker(t, st, gw)

	rep, err := tr.CheckCompletion(context.Background(), "ghost", fixedNow)
	require.NoError(t, err)
	assert.True(t, rep.Complete)
	assert.False(t, rep.Notified)
	assert.Zero(t, gw.callCount())
}

func TestHandleRecordCreated_IgnoresUnknownKind(t *testing.T) {
	st := newMemStore(family()...)
	gw := &fakeGateway{}
	tr := newTestTracker(t, st, gw)

	rep, err := tr.HandleRecordCreated(context.Background(), domain.ActivityRecord{
		UserID: "S", Collection: domain.CollectionActivities, ActivityType: "gaming",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-05", rep.Day)
	assert.Zero(t, rep.Completed)

	_, err = tr.HandleRecordCreated(context.Background(), domain.ActivityRecord{})
	assert.Error(t, err)
}

func TestCheckCompletion_RecordsOutsideWindowIgnored(t *testing.T) {
	st := newMemStore(family()...)
	recs := dayRecords("S", domain.AllKinds()...)
	// Move the last record to the previous local day.
	recs[7].CreatedAt = recs[7].CreatedAt.AddDate(0, 0, -1)
	st.add(recs...)
	tr := newTestTracker(t, st, &fakeGateway{})

	rep, err := tr.Progress(context.Background(), "S", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 7, rep.Completed)
	assert.False(t, rep.Complete)
}

func TestBroadcast_RoleWide(t *testing.T) {
	users := append(family(),
		domain.User{ID: "T2", Role: domain.RoleTeacher, PushAddress: "teacher-2"},
		domain.User{ID: "T3", Role: domain.RoleTeacher},
	)
	st := newMemStore(users...)
	gw := &fakeGateway{}
	tr := newTestTracker(t, st, gw)

	res, err := tr.Broadcast(context.Background(), domain.RoleTeacher, reminderMessage("announcement", "hi", "there"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	require.Equal(t, 1, gw.callCount())
	assert.ElementsMatch(t, []string{"teacher-token", "teacher-2"}, gw.calls[0])
}
