package notification

import (
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger"
	tb "gopkg.in/tucnak/telebot.v2"
)

const maxSendAttempts = 3

// TelegramSettings holds the bot token and the chats that receive notifications.
type TelegramSettings struct {
	Token string
	Users []int64
}

type sender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// Telegram implements core.Notifier by messaging every configured user.
type Telegram struct {
	settings TelegramSettings
	client   sender
	log      logger.Logger
	backoff  func() *backoff.Backoff
}

// NewTelegram connects to the Telegram bot API.
func NewTelegram(settings TelegramSettings, log logger.Logger) (*Telegram, error) {
	if settings.Token == "" {
		return nil, fmt.Errorf("telegram token cannot be empty")
	}
	if len(settings.Users) == 0 {
		return nil, fmt.Errorf("telegram needs at least one user")
	}

	client, err := tb.NewBot(tb.Settings{
		Token:     settings.Token,
		ParseMode: tb.ModeMarkdown,
		Poller:    &tb.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return newTelegram(settings, client, log), nil
}

func newTelegram(settings TelegramSettings, client sender, log logger.Logger) *Telegram {
	return &Telegram{
		settings: settings,
		client:   client,
		log:      log.WithField("component", "telegram"),
		backoff: func() *backoff.Backoff {
			return &backoff.Backoff{Min: 500 * time.Millisecond, Max: 5 * time.Second, Factor: 2}
		},
	}
}

// Notify sends text to every user, retrying transient failures.
func (t *Telegram) Notify(text string) {
	for _, user := range t.settings.Users {
		if err := t.send(&tb.User{ID: user}, text); err != nil {
			t.log.WithField("user", user).WithError(err).Error("failed to send notification")
		}
	}
}

func (t *Telegram) OnListing(entry core.ListingEntry) {
	t.Notify(FormatListing(entry))
}

func (t *Telegram) send(to tb.Recipient, text string) error {
	b := t.backoff()

	var err error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		if _, err = t.client.Send(to, text); err == nil {
			return nil
		}
		if attempt < maxSendAttempts {
			time.Sleep(b.Duration())
		}
	}

	return fmt.Errorf("after %d attempts: %w", maxSendAttempts, err)
}
