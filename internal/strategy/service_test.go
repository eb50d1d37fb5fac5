package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/timeutil"
)

type fakeCollector struct {
	forecastCalls []string
	err           error
}

func (f *fakeCollector) CollectForecast(_ context.Context, s *Strategy) ([]sample.Row, error) {
	f.forecastCalls = append(f.forecastCalls, s.ID)
	return nil, f.err
}

var testNow = time.Date(2026, 1, 5, 12, 0, 0, 0, timeutil.LocalZone)

func newTestService(t *testing.T) (*Service, *InMemoryRepository, *fakeCollector) {
	t.Helper()
	repo := NewInMemoryRepository()
	collector := &fakeCollector{}
	svc := NewService(ServiceConfig{
		Repo:      repo,
		Collector: collector,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return testNow },
	})
	return svc, repo, collector
}

func localStamp(t time.Time) string {
	return t.In(timeutil.LocalZone).Format("2006-01-02 15:04:05")
}

func validInput(name string, end time.Time) *CreateInput {
	lat, lon := 39.92, 116.41
	return &CreateInput{
		Name:         name,
		Latitude:     &lat,
		Longitude:    &lon,
		CityName:     "Beijing",
		Indicators:   []string{"Temperature", "PM2p5"},
		CollectStart: localStamp(testNow.Add(-24 * time.Hour)),
		CollectEnd:   localStamp(end),
	}
}

func TestCreateInsideHorizonStartsCollecting(t *testing.T) {
	svc, _, collector := newTestService(t)

	strat, err := svc.Create(context.Background(), validInput("near", testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, StatusCollecting, strat.Status)
	assert.Equal(t, []string{strat.ID}, collector.forecastCalls)
	assert.Equal(t, PriorityNormal, strat.Priority)
	assert.NotEmpty(t, strat.ID)
}

func TestCreateBeyondHorizonStaysPending(t *testing.T) {
	svc, _, collector := newTestService(t)

	strat, err := svc.Create(context.Background(), validInput("far", testNow.Add(30*24*time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, strat.Status)
	assert.Empty(t, collector.forecastCalls)
}

func TestCreateUnparseableEndStaysPending(t *testing.T) {
	svc, _, collector := newTestService(t)

	input := validInput("no-window", testNow)
	input.CollectEnd = ""

	strat, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, strat.Status)
	assert.Empty(t, collector.forecastCalls)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("dup", testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput("dup", testNow.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	input := validInput("", testNow.Add(time.Hour))
	input.Indicators = []string{"Temperature", "Sunshine"}
	badLat := 123.0
	input.Latitude = &badLat
	input.CollectEnd = "not a date"

	_, err := svc.Create(context.Background(), input)
	ve, ok := IsValidation(err)
	require.True(t, ok)

	fields := make(map[string]bool)
	for _, fe := range ve.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["indicators"])
	assert.True(t, fields["latitude"])
	assert.True(t, fields["collectEnd"])
}

func TestUpdateEndMovedInsideHorizonRevives(t *testing.T) {
	svc, _, collector := newTestService(t)
	ctx := context.Background()

	strat, err := svc.Create(ctx, validInput("revive", testNow.Add(30*24*time.Hour)))
	require.NoError(t, err)
	require.Equal(t, StatusPending, strat.Status)

	newEnd := localStamp(testNow.Add(48 * time.Hour))
	updated, err := svc.Update(ctx, strat.ID, &UpdateInput{CollectEnd: &newEnd})
	require.NoError(t, err)

	assert.Equal(t, StatusCollecting, updated.Status)
	assert.Equal(t, []string{strat.ID}, collector.forecastCalls)
}

func TestUpdateEndMovedBeyondHorizonParks(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	strat, err := svc.Create(ctx, validInput("park", testNow.Add(48*time.Hour)))
	require.NoError(t, err)
	require.Equal(t, StatusCollecting, strat.Status)

	newEnd := localStamp(testNow.Add(30 * 24 * time.Hour))
	updated, err := svc.Update(ctx, strat.ID, &UpdateInput{CollectEnd: &newEnd})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, updated.Status)
}

func TestUpdateNeverOverridesSuccess(t *testing.T) {
	svc, repo, collector := newTestService(t)
	ctx := context.Background()

	strat, err := svc.Create(ctx, validInput("done", testNow.Add(48*time.Hour)))
	require.NoError(t, err)
	collector.forecastCalls = nil

	strat.Status = StatusSuccess
	require.NoError(t, repo.Update(ctx, strat))

	newEnd := localStamp(testNow.Add(24 * time.Hour))
	updated, err := svc.Update(ctx, strat.ID, &UpdateInput{CollectEnd: &newEnd})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, updated.Status)
	assert.Empty(t, collector.forecastCalls)
}

func TestUpdateUnchangedEndDoesNotTransition(t *testing.T) {
	svc, _, collector := newTestService(t)
	ctx := context.Background()

	strat, err := svc.Create(ctx, validInput("same", testNow.Add(30*24*time.Hour)))
	require.NoError(t, err)

	remark := "still waiting"
	updated, err := svc.Update(ctx, strat.ID, &UpdateInput{Remark: &remark})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, updated.Status)
	assert.Equal(t, "still waiting", updated.Remark)
	assert.Empty(t, collector.forecastCalls)
}

func TestCancelKeepsSamplesAndIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	strat, err := svc.Create(ctx, validInput("cancel-me", testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, strat.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	again, err := svc.Cancel(ctx, strat.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, again.Status)
}

func TestDeleteSoftDeletes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	strat, err := svc.Create(ctx, validInput("delete-me", testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, strat.ID))

	_, err = svc.Get(ctx, strat.ID)
	assert.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestExpireIfDue(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	strat, err := svc.Create(ctx, validInput("expired", testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	strat.CollectEnd = localStamp(testNow.Add(-time.Hour))
	require.NoError(t, repo.Update(ctx, strat))
	strat, err = repo.Get(ctx, strat.ID)
	require.NoError(t, err)

	expired, err := svc.ExpireIfDue(ctx, strat)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, StatusSuccess, strat.Status)

	stored, err := repo.Get(ctx, strat.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, stored.Status)

	// Already terminal, stays expired with no further transition.
	expired, err = svc.ExpireIfDue(ctx, stored)
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, StatusSuccess, stored.Status)
}

func TestExpireIfDueIgnoresFutureAndUnparseable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	strat, err := svc.Create(ctx, validInput("future", testNow.Add(48*time.Hour)))
	require.NoError(t, err)

	expired, err := svc.ExpireIfDue(ctx, strat)
	require.NoError(t, err)
	assert.False(t, expired)

	// Unparseable end is treated as far future.
	strat.CollectEnd = "whenever"
	expired, err = svc.ExpireIfDue(ctx, strat)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestImport(t *testing.T) {
	svc, _, collector := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("existing", testNow.Add(30*24*time.Hour)))
	require.NoError(t, err)

	inputs := []*CreateInput{
		validInput("existing", testNow.Add(48*time.Hour)),  // name taken
		validInput("fresh", testNow.Add(48*time.Hour)),     // inside horizon
		validInput("fresh", testNow.Add(48*time.Hour)),     // duplicate within batch
		validInput("later", testNow.Add(30*24*time.Hour)),  // beyond horizon
		{Name: "broken", Indicators: []string{"Sunshine"}}, // invalid
	}

	result, err := svc.Import(ctx, inputs)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "broken", result.Failed[0].Name)

	// Only the inside-horizon row triggers collection.
	assert.Len(t, collector.forecastCalls, 1)

	strategies, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, strategies, 3)
}
