package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/interfaces"
	"github.com/eskulia/eskulia-api/logging"
	"github.com/eskulia/eskulia-api/metrics"
	"github.com/eskulia/eskulia-api/registryparser/entities"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var _ interfaces.Dispatcher = (*Dispatcher)(nil)

// Message is one rendered push addressed to a single device token.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Messenger submits a single message and returns the provider message id.
type Messenger interface {
	Send(ctx context.Context, msg Message) (string, error)
}

const defaultSendTimeout = 30 * time.Second

// Dispatcher fans a rendered notification out to device tokens with bounded concurrency.
type Dispatcher struct {
	messenger Messenger
	workers   int
	timeout   time.Duration
}

// NewDispatcher creates a dispatcher. Each submission is bounded by timeout
// (30s when zero). A nil messenger makes every Dispatch fail with
// ErrUnavailable after request validation.
func NewDispatcher(messenger Messenger, workers int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{messenger: messenger, workers: workers, timeout: timeout}
}

func (d *Dispatcher) Types() []string {
	return Types()
}

// Dispatch validates the request, renders it once and submits one message per
// token. A failed submission is recorded in its result entry and never stops
// the others. Results are in token order.
func (d *Dispatcher) Dispatch(ctx context.Context, req entities.NotificationRequest) ([]entities.DeliveryResult, error) {
	tmpl, err := Lookup(req.Type)
	if err != nil {
		return nil, err
	}
	title, body, err := tmpl.Render(req.Content)
	if err != nil {
		return nil, err
	}
	if d.messenger == nil {
		return nil, fmt.Errorf("push delivery: %w", common.ErrUnavailable)
	}

	batchID := uuid.NewString()
	logging.Info("Dispatching notification", "batch_id", batchID, "type", req.Type, "recipients", len(req.Tokens))

	results := make([]entities.DeliveryResult, len(req.Tokens))
	var g errgroup.Group
	g.SetLimit(d.workers)

	for i, token := range req.Tokens {
		msg := Message{
			Token: token.Token,
			Title: title,
			Body:  body,
			Data:  payload(req.Type, token.OwnerID, req.AdditionalData),
		}
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			id, err := d.messenger.Send(sendCtx, msg)
			if err != nil {
				results[i] = entities.DeliveryResult{Status: entities.DeliveryError, Error: err.Error()}
				metrics.NotificationDeliveriesTotal.WithLabelValues("error").Inc()
				logging.Warn("Notification delivery failed", "batch_id", batchID, "token_id", token.ID, "error", err)
				return nil
			}
			results[i] = entities.DeliveryResult{Status: entities.DeliverySuccess, MessageID: id}
			metrics.NotificationDeliveriesTotal.WithLabelValues("success").Inc()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// payload builds the data map: type and user_id first, then additional data,
// which may override them.
func payload(notificationType string, ownerID int64, additional map[string]any) map[string]string {
	data := make(map[string]string, len(additional)+2)
	data["type"] = notificationType
	data["user_id"] = strconv.FormatInt(ownerID, 10)
	for k, v := range additional {
		data[k] = stringify(v)
	}
	return data
}

// stringify renders a decoded JSON value as a data payload string.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}
