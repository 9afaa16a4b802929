package app

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"pillbot/internal/course"
	kit "pillbot/internal/transport"
	"pillbot/internal/transport/telegram"
	logx "pillbot/pkg/logx"
)

// dispatchLoop consumes incoming updates one at a time and maps them onto
// course operations. Replies carry the reply keyboard so it stays on screen.
func (a *App) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case up := <-a.updates:
			if up.Message == nil {
				continue
			}
			a.handleMessage(ctx, up.Message)
		}
	}
}

func (a *App) handleMessage(ctx context.Context, m *kit.Message) {
	text := strings.TrimSpace(m.Text)
	userID := m.FromID

	switch {
	case text == "/start" || strings.HasPrefix(text, "/start "):
		a.svc.Touch(userID)
		a.replyMarkdown(ctx, m.ChatID, msgWelcome)

	case text == telegram.ButtonNewDay:
		if err := a.svc.StartDay(ctx, userID); err != nil {
			a.log.Error("start day failed", logx.Int64("user_id", userID), logx.Err(err))
			return
		}
		a.reply(ctx, m.ChatID, msgDayStarted)

	case text == telegram.ButtonTookPill:
		err := a.svc.MarkDose(ctx, userID)
		switch {
		case errors.Is(err, course.ErrNotActive):
			a.reply(ctx, m.ChatID, msgNotActive)
		case err != nil:
			a.log.Error("mark dose failed", logx.Int64("user_id", userID), logx.Err(err))
		default:
			a.reply(ctx, m.ChatID, msgDoseMarked)
		}

	case text == telegram.ButtonProgress:
		p, err := a.svc.QueryProgress(userID)
		switch {
		case errors.Is(err, course.ErrNotActive):
			a.reply(ctx, m.ChatID, msgNoDayStarted)
		case err != nil:
			a.log.Error("progress query failed", logx.Int64("user_id", userID), logx.Err(err))
		case p.Completed:
			a.reply(ctx, m.ChatID, msgCourseDone)
		default:
			a.reply(ctx, m.ChatID, msgProgress(p))
		}

	case text == "/set" || strings.HasPrefix(text, "/set "):
		a.handleSet(ctx, m, text)
	}
}

func (a *App) handleSet(ctx context.Context, m *kit.Message, text string) {
	args := strings.Fields(text)
	if len(args) < 2 {
		a.replyMarkdown(ctx, m.ChatID, msgSetUsage)
		return
	}
	n, convErr := strconv.Atoi(args[1])
	if convErr != nil {
		a.replyMarkdown(ctx, m.ChatID, msgSetUsage)
		return
	}
	err := a.svc.SetCount(ctx, m.FromID, n)
	switch {
	case errors.Is(err, course.ErrInvalidCount):
		a.replyMarkdown(ctx, m.ChatID, msgSetUsage)
	case err != nil:
		a.log.Error("set count failed", logx.Int64("user_id", m.FromID), logx.Err(err))
	default:
		a.reply(ctx, m.ChatID, msgSetDone(n))
	}
}

func (a *App) reply(ctx context.Context, chatID int64, text string) {
	a.send(ctx, chatID, text, "")
}

func (a *App) replyMarkdown(ctx context.Context, chatID int64, text string) {
	a.send(ctx, chatID, text, "Markdown")
}

func (a *App) send(ctx context.Context, chatID int64, text, parseMode string) {
	opt := *a.sendOpts
	opt.ParseMode = parseMode
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := a.adapter.SendText(sendCtx, kit.ChatTarget{ChatID: chatID}, text, &opt); err != nil {
		a.log.Warn("reply failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
}
