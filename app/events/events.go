package events

import (
	"context"
	"fmt"
	"log"

	tbapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-pkgz/repeater"

	"github.com/naijacyber/cyberguardian/app/bot"
)

//go:generate moq --out mocks/tb_api.go --pkg mocks --with-resets --skip-ensure . TbAPI
//go:generate moq --out mocks/verdict_logger.go --pkg mocks --with-resets --skip-ensure . VerdictLogger
//go:generate moq --out mocks/bot.go --pkg mocks --with-resets --skip-ensure . Bot

// TbAPI is an interface for telegram bot API, only subset of methods used
type TbAPI interface {
	GetUpdatesChan(config tbapi.UpdateConfig) tbapi.UpdatesChannel
	Send(c tbapi.Chattable) (tbapi.Message, error)
}

// VerdictLogger is an interface for logging risky verdicts
type VerdictLogger interface {
	Save(msg *bot.Message, response *bot.Response)
}

// VerdictLoggerFunc is a function that implements VerdictLogger interface
type VerdictLoggerFunc func(msg *bot.Message, response *bot.Response)

// Save is a function that implements VerdictLogger interface
func (f VerdictLoggerFunc) Save(msg *bot.Message, response *bot.Response) {
	f(msg, response)
}

// Bot is an interface for bot events.
type Bot interface {
	OnMessage(ctx context.Context, msg bot.Message) (response bot.Response)
}

// send a message to the telegram as markdown first and if failed - as plain text.
// Each attempt is repeated by rpt.
func send(ctx context.Context, tbMsg tbapi.Chattable, tbAPI TbAPI, rpt *repeater.Repeater) error {
	withParseMode := func(tbMsg tbapi.Chattable, parseMode string) tbapi.Chattable {
		msg, ok := tbMsg.(tbapi.MessageConfig)
		if !ok {
			return tbMsg // don't touch other types
		}
		msg.ParseMode = parseMode
		msg.LinkPreviewOptions = tbapi.LinkPreviewOptions{IsDisabled: true}
		return msg
	}
	sendWithRetries := func(msg tbapi.Chattable) error {
		return rpt.Do(ctx, func() error {
			_, err := tbAPI.Send(msg)
			return err
		})
	}

	msg := withParseMode(tbMsg, tbapi.ModeMarkdown) // try markdown first
	if err := sendWithRetries(msg); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("can't send message to telegram: %w", ctx.Err())
		}
		log.Printf("[WARN] failed to send message as markdown, %v", err)
		msg = withParseMode(tbMsg, "") // try plain text
		if err := sendWithRetries(msg); err != nil {
			return fmt.Errorf("can't send message to telegram: %w", err)
		}
	}
	return nil
}
