// Package push delivers notifications to device addresses through a
// batched multicast gateway.
package push

import (
	"context"
	"errors"
)

// MaxBatch is the largest number of addresses a single multicast may carry.
const MaxBatch = 500

var (
	ErrBatchTooLarge  = errors.New("batch exceeds gateway limit")
	ErrInvalidAddress = errors.New("invalid push address")
)

// Message is the payload of one notification.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// SendResponse is the outcome for a single address.
type SendResponse struct {
	Address string
	Err     error
}

// BatchResponse holds one SendResponse per requested address, in order.
type BatchResponse struct {
	Responses []SendResponse
}

// SuccessCount returns how many addresses accepted the message.
func (b BatchResponse) SuccessCount() int {
	n := 0
	for _, r := range b.Responses {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// FailureCount returns how many addresses rejected the message.
func (b BatchResponse) FailureCount() int {
	return len(b.Responses) - b.SuccessCount()
}

// Gateway sends one message to up to MaxBatchSize addresses. A returned
// error means the call itself failed; the response then holds only the
// addresses whose outcome is known, possibly none.
type Gateway interface {
	SendMulticast(ctx context.Context, msg Message, addresses []string) (BatchResponse, error)
	MaxBatchSize() int
}
