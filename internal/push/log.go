package push

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LogGateway only logs deliveries. It is used in development and when no
// real transport is configured.
type LogGateway struct {
	log *zap.Logger
}

func NewLogGateway(log *zap.Logger) *LogGateway {
	return &LogGateway{log: log.Named("log-gateway")}
}

func (g *LogGateway) MaxBatchSize() int { return MaxBatch }

func (g *LogGateway) SendMulticast(_ context.Context, msg Message, addresses []string) (BatchResponse, error) {
	if len(addresses) > MaxBatch {
		return BatchResponse{}, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(addresses), MaxBatch)
	}
	resp := BatchResponse{Responses: make([]SendResponse, len(addresses))}
	for i, addr := range addresses {
		resp.Responses[i] = SendResponse{Address: addr}
	}
	g.log.Info("push",
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Any("data", msg.Data),
		zap.Int("addresses", len(addresses)),
	)
	return resp, nil
}
