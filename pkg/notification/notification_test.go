package notification

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/jpillora/backoff"
	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/tucnak/telebot.v2"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error) {
	args := m.Called(to.Recipient(), what)
	return nil, args.Error(0)
}

type recorder struct {
	texts    []string
	listings []core.ListingEntry
}

func (r *recorder) Notify(text string)                 { r.texts = append(r.texts, text) }
func (r *recorder) OnListing(entry core.ListingEntry) { r.listings = append(r.listings, entry) }

func noDelay() *backoff.Backoff {
	return &backoff.Backoff{Min: time.Nanosecond, Max: time.Nanosecond}
}

func TestFormatListing(t *testing.T) {
	entry := core.ListingEntry{Symbol: "ABC", ReleasedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	msg := FormatListing(entry)
	require.Contains(t, msg, "ABC")
	require.Contains(t, msg, "2024-03-01 10:00:00")
}

func TestTelegram(t *testing.T) {
	entry := core.ListingEntry{Symbol: "XYZ", ReleasedAt: time.Now()}

	t.Run("sends to every user", func(t *testing.T) {
		client := new(mockSender)
		client.On("Send", "1", FormatListing(entry)).Return(nil).Once()
		client.On("Send", "2", FormatListing(entry)).Return(nil).Once()

		telegram := newTelegram(TelegramSettings{Token: "x", Users: []int64{1, 2}}, client, zerolog.Nop())
		telegram.backoff = noDelay
		telegram.OnListing(entry)

		client.AssertExpectations(t)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		client := new(mockSender)
		client.On("Send", "1", "hello").Return(errors.New("timeout")).Twice()
		client.On("Send", "1", "hello").Return(nil).Once()

		telegram := newTelegram(TelegramSettings{Token: "x", Users: []int64{1}}, client, zerolog.Nop())
		telegram.backoff = noDelay
		telegram.Notify("hello")

		client.AssertNumberOfCalls(t, "Send", 3)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		client := new(mockSender)
		client.On("Send", "1", "hello").Return(errors.New("down"))

		telegram := newTelegram(TelegramSettings{Token: "x", Users: []int64{1}}, client, zerolog.Nop())
		telegram.backoff = noDelay
		telegram.Notify("hello")

		client.AssertNumberOfCalls(t, "Send", maxSendAttempts)
	})

	t.Run("rejects empty settings", func(t *testing.T) {
		_, err := NewTelegram(TelegramSettings{}, zerolog.Nop())
		require.Error(t, err)

		_, err = NewTelegram(TelegramSettings{Token: "x"}, zerolog.Nop())
		require.Error(t, err)
	})
}

func TestMail(t *testing.T) {
	var (
		gotAddr string
		gotMsg  string
	)
	m := NewMail(MailParams{
		SMTPServerAddress: "smtp.example.com",
		SMTPServerPort:    587,
		From:              "bot@example.com",
		To:                "ops@example.com",
	}, zerolog.Nop())
	m.send = func(addr string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotAddr, gotMsg = addr, string(msg)
		return nil
	}

	m.OnListing(core.ListingEntry{Symbol: "NEW", ReleasedAt: time.Now()})
	require.Equal(t, "smtp.example.com:587", gotAddr)
	require.True(t, strings.Contains(gotMsg, "Subject: New listing - NEW"))
	require.Contains(t, gotMsg, "To: <ops@example.com>")
}

func TestBroadcast(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	all := Broadcast{a, b, NewLog(zerolog.Nop())}

	all.Notify("started")
	all.OnListing(core.ListingEntry{Symbol: "ABC"})

	for _, r := range []*recorder{a, b} {
		require.Equal(t, []string{"started"}, r.texts)
		require.Len(t, r.listings, 1)
	}
}
