package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/domain"
	"github.com/ykvlv/daily-report-notifier/internal/tracker"
)

// Store is what the bot needs from the document store.
type Store interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	SetPushAddress(ctx context.Context, userID, address string) error
}

// Progress evaluates a user's day.
type Progress interface {
	Progress(ctx context.Context, userID string, ref time.Time) (tracker.Report, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Router wires Telegram updates to handlers. A chat becomes a push address
// by linking it to a user id with /link.
type Router struct {
	bot      sender
	log      *zap.Logger
	store    Store
	progress Progress
	now      func() time.Time
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, st Store, p Progress) *Router {
	return newRouter(bot, log, st, p)
}

func newRouter(bot sender, log *zap.Logger, st Store, p Progress) *Router {
	return &Router{
		bot:      bot,
		log:      log.Named("telegram"),
		store:    st,
		progress: p,
		now:      time.Now,
	}
}

// HandleUpdate routes a single update to appropriate handler. Errors are
// logged and answered in chat, never returned.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("update handler panicked", zap.Any("panic", rec))
		}
	}()

	chatID := upd.Message.Chat.ID
	cmd, arg := splitCommand(upd.Message.Text)

	switch cmd {
	case "/start", "/help":
		r.handleStart(chatID)
	case "/link":
		r.handleLink(ctx, chatID, arg)
	case "/unlink":
		r.handleUnlink(ctx, chatID, arg)
	case "/status":
		r.handleStatus(ctx, chatID, arg)
	default:
		r.sendText(chatID, unknownText)
	}
}

// splitCommand returns the command (without @botname) and its argument.
func splitCommand(text string) (cmd, arg string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "", ""
	}
	cmd = strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	if len(fields) > 1 {
		arg = fields[1]
	}
	return cmd, arg
}
