package bot

import (
	"context"
	"log"

	"github.com/PadmDeveloper/RedmineBrowser/internal/intake"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the Telegram transport around the intake conversation. It only
// moves updates in and replies out; all conversation logic lives in intake.
type Bot struct {
	api    *tgbotapi.BotAPI
	intake *intake.Manager
}

// New connects to the Telegram API with the given token.
func New(token string, manager *intake.Manager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{api: api, intake: manager}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("Bot authorized as @%s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	var replies []string
	if update.Message.IsCommand() {
		replies = b.intake.HandleCommand(ctx, chatID, update.Message.Command())
	} else {
		replies = b.intake.HandleMessage(ctx, chatID, update.Message.Text)
	}

	for _, reply := range replies {
		if reply == "" {
			continue
		}
		msg := tgbotapi.NewMessage(chatID, reply)
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Failed to send reply to chat %d: %v", chatID, err)
		}
	}
}
