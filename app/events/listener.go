// Package events provide event handlers for telegram bot. It receives updates, transforms messages,
// passes them to the bot and sends back the bot's responses.
package events

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tbapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-pkgz/repeater"

	"github.com/naijacyber/cyberguardian/app/bot"
	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

// TelegramListener listens to tg update, forward to bot and send back responses
// Not thread safe
type TelegramListener struct {
	TbAPI         TbAPI
	VerdictLogger VerdictLogger // optional, called for MEDIUM and HIGH verdicts
	Bot           Bot
	AllowedChats  []int64       // group chats the bot responds in, all if empty. Private chats are always allowed
	SendRetries   int           // number of send attempts, 3 by default
	RetryDelay    time.Duration // delay between send attempts, 1s by default
}

// Do process all events, blocked call
func (l *TelegramListener) Do(ctx context.Context) error {
	log.Printf("[INFO] start telegram listener, allowed chats: %v", l.AllowedChats)
	if l.SendRetries <= 0 {
		l.SendRetries = 3
	}
	if l.RetryDelay <= 0 {
		l.RetryDelay = time.Second
	}

	u := tbapi.NewUpdate(0)
	u.Timeout = 60

	updates := l.TbAPI.GetUpdatesChan(u)

	for {
		select {

		case <-ctx.Done():
			return ctx.Err()

		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram update chan closed")
			}

			if update.Message == nil {
				continue
			}

			if err := l.procEvents(ctx, update); err != nil {
				log.Printf("[WARN] failed to process update: %v", err)
				continue
			}
		}
	}
}

func (l *TelegramListener) procEvents(ctx context.Context, update tbapi.Update) error {
	msg := l.transform(update.Message)

	if !msg.Private && !l.isChatAllowed(msg.ChatID) {
		log.Printf("[DEBUG] ignoring message from chat %d", msg.ChatID)
		return nil
	}

	// ignore empty messages
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	resp := l.Bot.OnMessage(ctx, *msg)

	if resp.Result != nil && resp.Result.Level != riskcheck.LevelLow && l.VerdictLogger != nil {
		l.VerdictLogger.Save(msg, &resp)
	}

	if err := l.sendBotResponse(ctx, resp, msg.ChatID); err != nil {
		return fmt.Errorf("failed to respond on update: %w", err)
	}
	return nil
}

func (l *TelegramListener) isChatAllowed(fromChat int64) bool {
	if len(l.AllowedChats) == 0 {
		return true
	}
	for _, id := range l.AllowedChats {
		if id == fromChat {
			return true
		}
	}
	return false
}

// sendBotResponse sends bot's answer to tg channel
func (l *TelegramListener) sendBotResponse(ctx context.Context, resp bot.Response, chatID int64) error {
	if !resp.Send {
		return nil
	}

	log.Printf("[DEBUG] bot response - %+v, reply-to:%d", strings.ReplaceAll(resp.Text, "\n", "\\n"), resp.ReplyTo)
	tbMsg := tbapi.NewMessage(chatID, resp.Text)
	if resp.ReplyTo != 0 {
		tbMsg.ReplyParameters = tbapi.ReplyParameters{MessageID: resp.ReplyTo, AllowSendingWithoutReply: true}
	}

	if err := send(ctx, tbMsg, l.TbAPI, repeater.NewDefault(l.SendRetries, l.RetryDelay)); err != nil {
		return fmt.Errorf("can't send message to telegram %q: %w", resp.Text, err)
	}
	return nil
}

func (l *TelegramListener) transform(msg *tbapi.Message) *bot.Message {
	message := bot.Message{
		ID:      msg.MessageID,
		Sent:    msg.Time(),
		Text:    msg.Text,
		ChatID:  msg.Chat.ID,
		Private: msg.Chat.Type == "private",
	}
	if message.Text == "" {
		message.Text = msg.Caption // media with caption
	}

	if msg.From != nil {
		message.From = bot.User{
			ID:          msg.From.ID,
			Username:    msg.From.UserName,
			DisplayName: strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName),
		}
	}

	// fill in the message's reply-to message
	if msg.ReplyToMessage != nil {
		message.ReplyTo.ID = msg.ReplyToMessage.MessageID
		message.ReplyTo.Text = msg.ReplyToMessage.Text
		if message.ReplyTo.Text == "" {
			message.ReplyTo.Text = msg.ReplyToMessage.Caption
		}
		message.ReplyTo.Sent = msg.ReplyToMessage.Time()
		if msg.ReplyToMessage.From != nil {
			message.ReplyTo.From = bot.User{
				ID:          msg.ReplyToMessage.From.ID,
				Username:    msg.ReplyToMessage.From.UserName,
				DisplayName: strings.TrimSpace(msg.ReplyToMessage.From.FirstName + " " + msg.ReplyToMessage.From.LastName),
			}
		}
	}

	return &message
}
