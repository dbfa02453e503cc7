package codes

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/ghauth/internal/constants"
	"github.com/fivetwenty-io/ghauth/pkg/ghauth"
)

// Subscriber is the part of *nats.Conn the NATS provider uses.
type Subscriber interface {
	ChanSubscribe(subj string, ch chan *nats.Msg) (*nats.Subscription, error)
}

// NATS waits for a one-time code published on subject, e.g. by a bot that
// relays SMS messages. Only messages arriving after the provider is called
// are considered.
func NATS(subscriber Subscriber, subject string) (ghauth.CodeProvider, error) {
	if subject == "" {
		return nil, constants.ErrNATSSubjectNeeded
	}

	return func(ctx context.Context) (string, error) {
		messages := make(chan *nats.Msg, 1)

		sub, err := subscriber.ChanSubscribe(subject, messages)
		if err != nil {
			return "", fmt.Errorf("subscribing to %s: %w", subject, err)
		}

		defer func() {
			_ = sub.Unsubscribe()
		}()

		for {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("waiting for one-time code on %s: %w", subject, ctx.Err())
			case msg := <-messages:
				code := strings.TrimSpace(string(msg.Data))
				if code != "" {
					return code, nil
				}
			}
		}
	}, nil
}
