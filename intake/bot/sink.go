package bot

import (
	"context"
	"errors"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// ErrNotAttached is returned by Sink before the bot has started.
var ErrNotAttached = errors.New("bot: sink not attached")

// Sink delivers supervisor notifications through the running bot. It is created
// before the bot exists and attached once the runtime starts.
type Sink struct {
	bot atomic.Pointer[tele.Bot]
}

// Attach wires the running bot; nil detaches it.
func (s *Sink) Attach(b *tele.Bot) {
	s.bot.Store(b)
}

// SendTo sends plain text to chatID.
func (s *Sink) SendTo(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := s.bot.Load()
	if b == nil {
		return ErrNotAttached
	}
	_, err := b.Send(tele.ChatID(chatID), text)
	return err
}
