package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/events"
	"github.com/friendsincode/matchday/internal/models"
	"github.com/friendsincode/matchday/internal/priority"
	"github.com/friendsincode/matchday/internal/scheduling"
	"github.com/rs/zerolog"
)

// Monday 2026-10-19; the default window opens on Wednesday the 21st.
var fixedNow = clock.Fixed(time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC))

func newTestService(matches scheduling.MatchScheduler, bus events.Publisher) *Service {
	return New(scheduling.NewDurationScheduler(), matches, nil, bus, fixedNow, zerolog.Nop())
}

func receive(t *testing.T, sub events.Subscriber) events.Payload {
	t.Helper()
	select {
	case p := <-sub:
		return p
	default:
		t.Fatal("expected an event, got none")
		return nil
	}
}

func TestScheduleActivities(t *testing.T) {
	bus := events.NewBus()
	completed := bus.Subscribe(events.EventScheduleCompleted)
	svc := newTestService(scheduling.NewMatchScheduler(), bus)

	report, err := svc.ScheduleActivities(context.Background(), []models.Activity{
		{Name: "C", Priority: 3, Duration: 7, Resources: []string{"R2"}},
		{Name: "A", Priority: 1, Duration: 10, Resources: []string{"R1"}},
		{Name: "B", Priority: 2, Duration: 5, Resources: []string{"R1"}},
	})
	if err != nil {
		t.Fatalf("ScheduleActivities() error = %v", err)
	}
	if report.RunID == "" {
		t.Error("RunID is empty")
	}

	want := [][2]int64{{0, 7}, {0, 10}, {10, 15}}
	for i, res := range report.Results {
		if got := [2]int64{res.Start, res.End}; got != want[i] {
			t.Errorf("Results[%d] = %v, want %v", i, got, want[i])
		}
	}

	p := receive(t, completed)
	if p["run_id"] != report.RunID || p["kind"] != "activities" {
		t.Errorf("completed payload = %v, want run %s activities", p, report.RunID)
	}
}

func TestScheduleMatchesPublishesRejections(t *testing.T) {
	bus := events.NewBus()
	rejected := bus.Subscribe(events.EventScheduleRejected)
	completed := bus.Subscribe(events.EventScheduleCompleted)

	// A one-day horizon leaves room for a single CSK fixture.
	short := scheduling.MatchScheduler{
		Finder: scheduling.CalendarSlotFinder{
			HorizonDays: 1,
			LeadDays:    2,
			MinGapDays:  2,
			Capacity:    scheduling.DefaultCapacityRule(),
		},
	}
	svc := newTestService(short, bus)

	report, err := svc.ScheduleMatches(context.Background(), []models.Match{
		{TeamA: "CSK", TeamB: "MI", Venue: "Chennai", Priority: 5},
		{TeamA: "CSK", TeamB: "RCB", Venue: "Chennai", Priority: 9},
	})
	if err != nil {
		t.Fatalf("ScheduleMatches() error = %v", err)
	}

	if !report.Results[1].Placed() {
		t.Fatalf("higher priority match not placed: %+v", report.Results[1])
	}
	if got := report.Results[1].Date.String(); got != "2026-10-21" {
		t.Errorf("Results[1].Date = %s, want 2026-10-21", got)
	}
	if report.Results[0].Placed() {
		t.Errorf("Results[0] placed on %s, want rejected", report.Results[0].Date)
	}

	p := receive(t, rejected)
	list, ok := p["rejections"].([]map[string]any)
	if !ok || p["count"] != 1 || len(list) != 1 {
		t.Fatalf("rejected payload = %v, want one rejection", p)
	}
	if list[0]["match"] != "CSK vs MI" || list[0]["reason"] != scheduling.ReasonNoFeasibleDate || list[0]["index"] != 0 {
		t.Errorf("rejection = %v", list[0])
	}
	select {
	case extra := <-rejected:
		t.Errorf("second rejected event %v, want one per run", extra)
	default:
	}
	p = receive(t, completed)
	if p["placed"] != 1 || p["rejected"] != 1 {
		t.Errorf("completed payload = %v, want placed 1 rejected 1", p)
	}
}

func TestScheduleMatchesOptions(t *testing.T) {
	svc := newTestService(scheduling.NewMatchScheduler(), nil)

	existing := []models.Match{{TeamA: "CSK", TeamB: "KKR", Venue: "Kolkata", Priority: 1}}
	day := clock.Date(2026, time.October, 4)
	existing[0].Date = &day

	report, err := svc.ScheduleMatches(context.Background(),
		[]models.Match{{TeamA: "CSK", TeamB: "MI", Venue: "Chennai", Priority: 5}},
		WithToday(clock.Date(2026, time.October, 1)),
		WithExisting(existing),
	)
	if err != nil {
		t.Fatalf("ScheduleMatches() error = %v", err)
	}
	if got := report.WindowStart.String(); got != "2026-10-03" {
		t.Errorf("WindowStart = %s, want 2026-10-03", got)
	}
	// CSK plays on the 4th, so the 3rd, 4th and 5th are too close.
	if got := report.Results[0].Date.String(); got != "2026-10-06" {
		t.Errorf("Date = %s, want 2026-10-06", got)
	}
}

func TestScheduleRejectsInvalidBatch(t *testing.T) {
	svc := newTestService(scheduling.NewMatchScheduler(), nil)

	_, err := svc.ScheduleMatches(context.Background(), []models.Match{{TeamA: "CSK", Venue: "Chennai"}})
	if !scheduling.IsValidation(err) {
		t.Fatalf("ScheduleMatches() error = %v, want validation error", err)
	}

	_, err = svc.ScheduleActivities(context.Background(), []models.Activity{{Name: "A", Duration: 0}})
	if !scheduling.IsValidation(err) {
		t.Fatalf("ScheduleActivities() error = %v, want validation error", err)
	}
}

func TestStagedMatchesConsumedOnSuccess(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	changed := bus.Subscribe(events.EventStagingChanged)
	svc := newTestService(scheduling.NewMatchScheduler(), bus)

	for i := 0; i < 3; i++ {
		if _, err := svc.StageMatch(ctx, models.Match{TeamA: fmt.Sprintf("T%d", i), TeamB: "X", Venue: "V", Priority: i}); err != nil {
			t.Fatalf("StageMatch(%d) error = %v", i, err)
		}
	}
	if p := receive(t, changed); p["action"] != "added" || p["count"] != 1 {
		t.Errorf("staging payload = %v, want added count 1", p)
	}

	report, err := svc.ScheduleStagedMatches(ctx)
	if err != nil {
		t.Fatalf("ScheduleStagedMatches() error = %v", err)
	}
	if placed, _ := report.Counts(); placed == 0 {
		t.Error("staged run placed nothing")
	}
	rows, _ := svc.StagedMatches(ctx)
	if len(rows) != 0 {
		t.Errorf("StagedMatches() after run = %d, want 0", len(rows))
	}
}

// uploadDuringRun stages one more activity the moment a run completes,
// before the staged run clears its batch.
type uploadDuringRun struct {
	svc    *Service
	staged bool
	err    error
}

func (u *uploadDuringRun) Publish(eventType events.EventType, _ events.Payload) {
	if eventType != events.EventScheduleCompleted || u.staged {
		return
	}
	u.staged = true
	_, u.err = u.svc.StageActivity(context.Background(), models.Activity{Name: "late", Priority: 1, Duration: 2})
}

func TestStagedRunKeepsUploadsMadeDuringRun(t *testing.T) {
	ctx := context.Background()
	pub := &uploadDuringRun{}
	svc := newTestService(scheduling.NewMatchScheduler(), pub)
	pub.svc = svc

	if _, err := svc.StageActivity(ctx, models.Activity{Name: "early", Priority: 1, Duration: 3}); err != nil {
		t.Fatalf("StageActivity() error = %v", err)
	}
	report, err := svc.ScheduleStagedActivities(ctx)
	if err != nil {
		t.Fatalf("ScheduleStagedActivities() error = %v", err)
	}
	if !pub.staged || pub.err != nil {
		t.Fatalf("upload during run: staged %v, err %v", pub.staged, pub.err)
	}
	if len(report.Results) != 1 || report.Results[0].Activity.Name != "early" {
		t.Errorf("Results = %+v, want only early", report.Results)
	}

	rows, _ := svc.StagedActivities(ctx)
	if len(rows) != 1 || rows[0].Name != "late" {
		t.Fatalf("StagedActivities() after run = %+v, want late still staged", rows)
	}

	report, err = svc.ScheduleStagedActivities(ctx)
	if err != nil {
		t.Fatalf("second ScheduleStagedActivities() error = %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Activity.Name != "late" {
		t.Errorf("second run Results = %+v, want late", report.Results)
	}
}

func TestStagedRunFailureKeepsStaging(t *testing.T) {
	ctx := context.Background()
	tiny := scheduling.NewMatchScheduler()
	tiny.MaxBatch = 1
	svc := newTestService(tiny, nil)

	for _, team := range []string{"CSK", "MI"} {
		if _, err := svc.StageMatch(ctx, models.Match{TeamA: team, TeamB: "RR", Venue: "Jaipur"}); err != nil {
			t.Fatalf("StageMatch(%s) error = %v", team, err)
		}
	}

	_, err := svc.ScheduleStagedMatches(ctx)
	if !errors.Is(err, scheduling.ErrBatchTooLarge) {
		t.Fatalf("ScheduleStagedMatches() error = %v, want ErrBatchTooLarge", err)
	}
	rows, _ := svc.StagedMatches(ctx)
	if len(rows) != 2 {
		t.Errorf("StagedMatches() after failed run = %d, want 2", len(rows))
	}
}

func TestStageRefusesInvalidCandidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(scheduling.NewMatchScheduler(), nil)

	if _, err := svc.StageActivity(ctx, models.Activity{Name: " ", Duration: 3}); !scheduling.IsValidation(err) {
		t.Errorf("StageActivity(blank name) error = %v, want validation error", err)
	}
	if _, err := svc.StageMatch(ctx, models.Match{TeamA: "CSK", TeamB: "MI"}); !scheduling.IsValidation(err) {
		t.Errorf("StageMatch(no venue) error = %v, want validation error", err)
	}
	rows, _ := svc.StagedActivities(ctx)
	if len(rows) != 0 {
		t.Errorf("StagedActivities() = %d rows, want 0", len(rows))
	}
}

func TestStagedActivitiesAndReset(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(scheduling.NewMatchScheduler(), nil)

	_, _ = svc.StageActivity(ctx, models.Activity{Name: "A", Priority: 2, Duration: 4, Resources: []string{"R1"}})
	_, _ = svc.StageActivity(ctx, models.Activity{Name: "B", Priority: 1, Duration: 6, Resources: []string{"R1"}})

	report, err := svc.ScheduleStagedActivities(ctx)
	if err != nil {
		t.Fatalf("ScheduleStagedActivities() error = %v", err)
	}
	if got := report.Results[0].Start; got != 6 {
		t.Errorf("A.Start = %d, want 6", got)
	}

	_, _ = svc.StageActivity(ctx, models.Activity{Name: "C", Duration: 1})
	if n, err := svc.ResetActivities(ctx); err != nil || n != 1 {
		t.Errorf("ResetActivities() = %d, %v, want 1, nil", n, err)
	}
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ok", nil, "ok"},
		{"validation", &scheduling.ValidationError{Cause: scheduling.ErrBatchTooLarge}, "validation_error"},
		{"invariant", &scheduling.InvariantError{}, "invariant_error"},
		{"other", errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resultLabel(tt.err); got != tt.want {
				t.Errorf("resultLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToday(t *testing.T) {
	svc := newTestService(scheduling.NewMatchScheduler(), nil)
	if got := svc.Today().String(); got != "2026-10-19" {
		t.Errorf("Today() = %s, want 2026-10-19", got)
	}
}

func TestScheduleActivitiesWithOrder(t *testing.T) {
	svc := newTestService(scheduling.NewMatchScheduler(), nil)

	report, err := svc.ScheduleActivities(context.Background(), []models.Activity{
		{Name: "A", Priority: 1, Duration: 10, Resources: []string{"R1"}},
		{Name: "B", Priority: 2, Duration: 5, Resources: []string{"R1"}},
	}, WithOrder(priority.Descending))
	if err != nil {
		t.Fatalf("ScheduleActivities() error = %v", err)
	}
	if got := report.Results[0].Start; got != 5 {
		t.Errorf("A.Start = %d, want 5 when B goes first", got)
	}
	if got := report.ProcessingOrder; len(got) != 2 || got[0] != 1 {
		t.Errorf("ProcessingOrder = %v, want [1 0]", got)
	}
}
