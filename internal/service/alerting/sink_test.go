package alerting

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
)

type fakeRepo struct {
	created   []*alert.Alert
	marked    []uuid.UUID
	createErr error
	markErr   error
}

func (f *fakeRepo) Create(_ context.Context, a *alert.Alert) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, a)
	return nil
}

func (f *fakeRepo) MarkSent(_ context.Context, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

type fakeNotifier struct {
	delivered bool
	calls     int
}

func (f *fakeNotifier) SendAlert(context.Context, alert.Severity, string, string, *float64, *float64) bool {
	f.calls++
	return f.delivered
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSink_Record_Delivered(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &fakeNotifier{delivered: true}
	sink := NewSink(repo, notifier, testLogger())

	value, threshold := 10.0, 5.0
	a, err := sink.Record(context.Background(), alert.SeverityError, alert.TypeHighErrorRate,
		"Error rate is 10.00% (threshold: 5.00%)", &value, &threshold)
	require.NoError(t, err)

	assert.True(t, a.SentToSlack)
	require.Len(t, repo.created, 1)
	require.Len(t, repo.marked, 1)
	assert.Equal(t, a.ID, repo.marked[0])
}

func TestSink_Record_DeliveryFailure(t *testing.T) {
	repo := &fakeRepo{}
	notifier := &fakeNotifier{delivered: false}
	sink := NewSink(repo, notifier, testLogger())

	value, threshold := 900.0, 500.0
	a, err := sink.Record(context.Background(), alert.SeverityWarning, alert.TypeHighLatency,
		"P95 latency is 900.00ms (threshold: 500.00ms)", &value, &threshold)
	require.NoError(t, err, "delivery failure must not fail the record")

	assert.False(t, a.SentToSlack)
	assert.Len(t, repo.created, 1, "the alert row is persisted regardless")
	assert.Empty(t, repo.marked)
}

func TestSink_Record_PersistenceFailure(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("database down")}
	notifier := &fakeNotifier{delivered: true}
	sink := NewSink(repo, notifier, testLogger())

	value, threshold := 10.0, 5.0
	_, err := sink.Record(context.Background(), alert.SeverityError, alert.TypeHighErrorRate,
		"message", &value, &threshold)
	require.Error(t, err)
	assert.Zero(t, notifier.calls, "never notify an alert that was not persisted")
}

func TestSink_Record_MarkSentFailure(t *testing.T) {
	repo := &fakeRepo{markErr: errors.New("database down")}
	notifier := &fakeNotifier{delivered: true}
	sink := NewSink(repo, notifier, testLogger())

	value, threshold := 10.0, 5.0
	a, err := sink.Record(context.Background(), alert.SeverityError, alert.TypeHighErrorRate,
		"message", &value, &threshold)
	require.NoError(t, err)
	assert.False(t, a.SentToSlack, "the flag follows the persisted row, not the notification")
}

func TestSink_Record_InvalidAlert(t *testing.T) {
	sink := NewSink(&fakeRepo{}, &fakeNotifier{}, testLogger())

	_, err := sink.Record(context.Background(), alert.Severity("BOGUS"), alert.TypeHighErrorRate,
		"message", nil, nil)
	require.Error(t, err)
}
