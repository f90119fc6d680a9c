package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{}, nil
}

type fakeUsers map[int64]*model.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, int64, Event) error {
	c.calls++
	return c.err
}

func TestFormatMessageEscapesAndDescribesPayload(t *testing.T) {
	ev := Event{
		Type:    EventRequestAutoCancelled,
		Payload: model.SupervisionRequest{ID: 42, ProposalTitle: "ML <for> Genomics", CancelReason: model.CancelReasonAcceptedElsewhere},
	}

	msg := FormatMessage(ev)
	assert.Contains(t, msg, "<b>🚫 Request closed: student accepted elsewhere</b>")
	assert.Contains(t, msg, "Request #42")
	assert.Contains(t, msg, "ML &lt;for&gt; Genomics")
	assert.Contains(t, msg, "Reason: accepted_elsewhere")
}

func TestFormatMessageMeetingChanges(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := Event{
		Type: EventMeetingUpdated,
		Payload: MeetingChanged{
			Meeting: model.MeetingSnapshot{Title: "Weekly", ScheduledFor: at},
			Changes: []model.MeetingChange{{Field: "location_link", Before: "a", After: "b"}},
		},
	}

	msg := FormatMessage(ev)
	assert.Contains(t, msg, "When: 01 Mar 2025 10:00 UTC")
	assert.Contains(t, msg, "location_link: a → b")
}

func TestFormatMessageUnknownEvent(t *testing.T) {
	assert.Equal(t, "<b>🔔 something_else</b>", FormatMessage(Event{Type: "something_else"}))
}

func TestTelegramNotifier(t *testing.T) {
	ctx := context.Background()
	chat := int64(555)
	users := fakeUsers{
		1: {ID: 1, TelegramID: &chat},
		2: {ID: 2},
	}
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, users, zaptest.NewLogger(t))

	require.NoError(t, n.Notify(ctx, 1, Event{Type: EventRequestSubmitted, Payload: model.SupervisionRequest{ProposalTitle: "X"}}))
	require.NoError(t, n.Notify(ctx, 2, Event{Type: EventRequestSubmitted}))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, chat, sender.sent[0].ChatID)
	assert.Equal(t, models.ParseModeHTML, sender.sent[0].ParseMode)

	assert.Error(t, n.Notify(ctx, 3, Event{Type: EventRequestSubmitted}))

	sender.err = errors.New("telegram down")
	assert.ErrorContains(t, n.Notify(ctx, 1, Event{Type: EventRequestSubmitted}), "telegram down")
}

func TestMultiNotifiesEverySinkAndJoinsErrors(t *testing.T) {
	ok := &countingNotifier{}
	failing := &countingNotifier{err: errors.New("sink failed")}
	m := Multi{failing, ok, NewLogNotifier(zaptest.NewLogger(t))}

	err := m.Notify(context.Background(), 1, Event{Type: EventMeetingScheduled})
	assert.ErrorContains(t, err, "sink failed")
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, failing.calls)
}
