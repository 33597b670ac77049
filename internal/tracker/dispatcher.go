package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ykvlv/daily-report-notifier/internal/push"
)

// DispatchResult aggregates the outcome of every gateway call of one send.
type DispatchResult struct {
	Calls        int              `json:"calls"`
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
	Errors       map[string]error `json:"-"` // by address
}

func (r *DispatchResult) fail(addr string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]error)
	}
	r.FailureCount++
	r.Errors[addr] = err
}

func (r *DispatchResult) merge(o DispatchResult) {
	r.Calls += o.Calls
	r.SuccessCount += o.SuccessCount
	r.FailureCount += o.FailureCount
	for addr, err := range o.Errors {
		if r.Errors == nil {
			r.Errors = make(map[string]error)
		}
		r.Errors[addr] = err
	}
}

// Dispatcher splits addresses into gateway-sized batches.
type Dispatcher struct {
	gw    push.Gateway
	limit int
	log   *zap.Logger
}

// NewDispatcher caps limit at the gateway's own batch size.
func NewDispatcher(gw push.Gateway, limit int, log *zap.Logger) *Dispatcher {
	if n := gw.MaxBatchSize(); limit <= 0 || limit > n {
		limit = n
	}
	return &Dispatcher{gw: gw, limit: limit, log: log}
}

// Send issues one gateway call per batch. Addresses rejected by the gateway
// are logged and counted but do not fail the send. A gateway call that
// fails is returned as an error after the remaining batches have been
// attempted; responses it did return are counted as usual and only the
// addresses without a response are marked failed. Nothing is retried. An
// empty address list makes no call.
func (d *Dispatcher) Send(ctx context.Context, addresses []string, msg push.Message) (DispatchResult, error) {
	var (
		res  DispatchResult
		errs []error
	)
	for start := 0; start < len(addresses); start += d.limit {
		end := min(start+d.limit, len(addresses))
		batch := addresses[start:end]

		res.Calls++
		resp, err := d.gw.SendMulticast(ctx, msg, batch)
		answered := make(map[string]struct{}, len(resp.Responses))
		for _, r := range resp.Responses {
			answered[r.Address] = struct{}{}
			if r.Err != nil {
				d.log.Warn("delivery failed", zap.String("address", r.Address), zap.Error(r.Err))
				res.fail(r.Address, r.Err)
				continue
			}
			res.SuccessCount++
		}
		if err != nil {
			d.log.Error("gateway call failed",
				zap.Error(err),
				zap.Int("batch", res.Calls),
				zap.Int("addresses", len(batch)),
				zap.Int("answered", len(answered)),
			)
			for _, addr := range batch {
				if _, ok := answered[addr]; !ok {
					res.fail(addr, err)
				}
			}
			errs = append(errs, fmt.Errorf("batch %d: %w", res.Calls, err))
		}
	}
	if res.Calls > 0 {
		d.log.Info("dispatch finished",
			zap.Int("calls", res.Calls),
			zap.Int("success", res.SuccessCount),
			zap.Int("failure", res.FailureCount),
		)
	}
	return res, errors.Join(errs...)
}
