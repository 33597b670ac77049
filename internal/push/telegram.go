package push

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// telegramSender is the subset of *tgbotapi.BotAPI the gateway uses.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramGateway delivers messages as Telegram chat messages. A push
// address is the decimal chat id.
type TelegramGateway struct {
	bot     telegramSender
	log     *zap.Logger
	limiter *rate.Limiter
}

// NewTelegramGateway creates a gateway sending at most rps messages per second.
func NewTelegramGateway(bot *tgbotapi.BotAPI, log *zap.Logger, rps float64) *TelegramGateway {
	return newTelegramGateway(bot, log, rps)
}

func newTelegramGateway(bot telegramSender, log *zap.Logger, rps float64) *TelegramGateway {
	if rps <= 0 {
		rps = 25
	}
	return &TelegramGateway{
		bot:     bot,
		log:     log.Named("telegram-gateway"),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// MaxBatchSize implements Gateway.
func (g *TelegramGateway) MaxBatchSize() int { return MaxBatch }

// SendMulticast sends msg to every chat in addresses. Per-chat failures are
// reported in the response. A canceled context stops the batch; the chats
// already attempted are still returned alongside the error.
func (g *TelegramGateway) SendMulticast(ctx context.Context, msg Message, addresses []string) (BatchResponse, error) {
	if len(addresses) > MaxBatch {
		return BatchResponse{}, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(addresses), MaxBatch)
	}
	text := formatText(msg)
	resp := BatchResponse{Responses: make([]SendResponse, 0, len(addresses))}
	for _, addr := range addresses {
		if err := g.limiter.Wait(ctx); err != nil {
			return resp, err
		}
		resp.Responses = append(resp.Responses, SendResponse{Address: addr, Err: g.sendOne(addr, text)})
	}
	g.log.Debug("multicast sent",
		zap.Int("addresses", len(addresses)),
		zap.Int("success", resp.SuccessCount()),
	)
	return resp, nil
}

func (g *TelegramGateway) sendOne(addr, text string) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(addr), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	_, err = g.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func formatText(msg Message) string {
	switch {
	case msg.Title == "":
		return msg.Body
	case msg.Body == "":
		return msg.Title
	}
	return msg.Title + "\n\n" + msg.Body
}
