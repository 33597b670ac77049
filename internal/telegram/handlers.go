package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/store"
)

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) handleStart(chatID int64) {
	r.sendText(chatID, fmt.Sprintf(startFmt, chatID))
}

// lookup fetches a user and answers the chat when it cannot.
func (r *Router) lookup(ctx context.Context, chatID int64, userID string) (*domain.User, bool) {
	if userID == "" {
		r.sendText(chatID, usageText)
		return nil, false
	}
	u, err := r.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		r.sendText(chatID, "No account with id "+userID+".")
		return nil, false
	}
	if err != nil {
		r.log.Error("GetUser failed", zap.Error(err), zap.String("user", userID))
		r.sendText(chatID, "Error reading the account. Please try again later.")
		return nil, false
	}
	return u, true
}

// handleLink stores this chat as the push address of a teacher or guardian
// account. Student devices are registered through the API, and an account
// already linked to another chat must be unlinked from that chat first.
func (r *Router) handleLink(ctx context.Context, chatID int64, userID string) {
	u, ok := r.lookup(ctx, chatID, userID)
	if !ok {
		return
	}
	if u.Role != domain.RoleTeacher && u.Role != domain.RoleGuardian {
		r.sendText(chatID, linkRoleText)
		return
	}
	addr := strconv.FormatInt(chatID, 10)
	if u.PushAddress != "" && u.PushAddress != addr {
		r.log.Warn("link refused, account linked elsewhere", zap.String("user", u.ID), zap.Int64("chatID", chatID))
		r.sendText(chatID, fmt.Sprintf(linkedElsewhereFmt, displayName(u)))
		return
	}
	if err := r.store.SetPushAddress(ctx, u.ID, addr); err != nil {
		r.log.Error("SetPushAddress failed", zap.Error(err), zap.String("user", u.ID))
		r.sendText(chatID, "Could not link this chat.")
		return
	}
	r.log.Info("chat linked", zap.String("user", u.ID), zap.String("role", string(u.Role)))
	r.sendText(chatID, fmt.Sprintf(linkedFmt, displayName(u), roleText(u.Role)))
}

func (r *Router) handleUnlink(ctx context.Context, chatID int64, userID string) {
	u, ok := r.lookup(ctx, chatID, userID)
	if !ok {
		return
	}
	if u.PushAddress != strconv.FormatInt(chatID, 10) {
		r.sendText(chatID, "This chat is not linked to "+displayName(u)+".")
		return
	}
	if err := r.store.SetPushAddress(ctx, u.ID, ""); err != nil {
		r.log.Error("SetPushAddress failed", zap.Error(err), zap.String("user", u.ID))
		r.sendText(chatID, "Could not unlink this chat.")
		return
	}
	r.sendText(chatID, "Unlinked. You will no longer receive notifications here.")
}

func (r *Router) handleStatus(ctx context.Context, chatID int64, userID string) {
	u, ok := r.lookup(ctx, chatID, userID)
	if !ok {
		return
	}
	if u.Role != domain.RoleStudent {
		r.sendText(chatID, "Progress is only tracked for students.")
		return
	}
	rep, err := r.progress.Progress(ctx, u.ID, r.now())
	if err != nil {
		r.log.Error("Progress failed", zap.Error(err), zap.String("user", u.ID))
		r.sendText(chatID, "Error reading today's progress.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, statusFmt, displayName(u), rep.Day, rep.Completed, rep.Required)
	for _, k := range rep.Missing {
		b.WriteString("\n• ")
		b.WriteString(kindText(k))
	}
	if rep.Complete {
		b.WriteString("\n\n" + completeText)
	}
	r.sendText(chatID, b.String())
}

func displayName(u *domain.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.ID
}
