package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eskulia/eskulia-api/common"
	"github.com/eskulia/eskulia-api/registryparser/entities"
)

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []Message
	failFor  map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeMessenger) Send(ctx context.Context, msg Message) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if err := f.failFor[msg.Token]; err != nil {
		return "", err
	}
	return "projects/eskulia/messages/" + msg.Token, nil
}

func tokens(values ...string) []entities.DeviceToken {
	out := make([]entities.DeviceToken, len(values))
	for i, v := range values {
		out[i] = entities.DeviceToken{ID: int64(i + 1), OwnerID: int64(100 + i), Token: v}
	}
	return out
}

func TestDispatchInvalidTypeSendsNothing(t *testing.T) {
	m := &fakeMessenger{}
	d := NewDispatcher(m, 4, time.Second)

	_, err := d.Dispatch(context.Background(), entities.NotificationRequest{
		Type:    "NEWSLETTER",
		Content: map[string]any{"message": "x"},
		Tokens:  tokens("a", "b"),
	})
	if !errors.Is(err, common.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if len(m.sent) != 0 {
		t.Errorf("no message may be sent for an invalid type, sent %d", len(m.sent))
	}
}

func TestDispatchMissingFieldsSendsNothing(t *testing.T) {
	m := &fakeMessenger{}
	d := NewDispatcher(m, 4, time.Second)

	_, err := d.Dispatch(context.Background(), entities.NotificationRequest{
		Type:    TypeAppointment,
		Content: map[string]any{"date": "2026-10-20"},
		Tokens:  tokens("a", "b", "c"),
	})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *common.ValidationError
	if !errors.As(err, &verr) || verr.Message != "Missing required fields: appointment_type, time" {
		t.Errorf("unexpected validation error: %v", err)
	}
	if len(m.sent) != 0 {
		t.Errorf("no message may be sent when content is invalid, sent %d", len(m.sent))
	}
}

func TestDispatchPartialFailureKeepsOrder(t *testing.T) {
	m := &fakeMessenger{failFor: map[string]error{"tok-2": errors.New("registration-token-not-registered")}}
	d := NewDispatcher(m, 3, time.Second)

	results, err := d.Dispatch(context.Background(), entities.NotificationRequest{
		Type:    TypeMessage,
		Content: map[string]any{"sender_name": "Ann", "message": "Hi"},
		Tokens:  tokens("tok-1", "tok-2", "tok-3"),
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Status != entities.DeliverySuccess || results[0].MessageID != "projects/eskulia/messages/tok-1" {
		t.Errorf("result[0] = %+v", results[0])
	}
	if results[1].Status != entities.DeliveryError || results[1].Error != "registration-token-not-registered" {
		t.Errorf("result[1] = %+v", results[1])
	}
	if results[2].Status != entities.DeliverySuccess || results[2].MessageID != "projects/eskulia/messages/tok-3" {
		t.Errorf("result[2] = %+v", results[2])
	}
	if len(m.sent) != 3 {
		t.Errorf("every token must be attempted, sent %d", len(m.sent))
	}
}

func TestDispatchRendersMessage(t *testing.T) {
	m := &fakeMessenger{}
	d := NewDispatcher(m, 1, time.Second)

	_, err := d.Dispatch(context.Background(), entities.NotificationRequest{
		Type:           TypeMessage,
		Content:        map[string]any{"sender_name": "Ann", "message": "Hi"},
		AdditionalData: map[string]any{"chat_id": float64(42), "type": "CHAT"},
		Tokens:         tokens("tok-1"),
	})
	if err != nil {
		t.Fatal(err)
	}

	msg := m.sent[0]
	if msg.Title != "Nowa wiadomość od Ann" || msg.Body != "Hi" {
		t.Errorf("unexpected rendering: %q / %q", msg.Title, msg.Body)
	}
	if msg.Data["user_id"] != "100" || msg.Data["chat_id"] != "42" {
		t.Errorf("unexpected data payload: %v", msg.Data)
	}
	if msg.Data["type"] != "CHAT" {
		t.Errorf("additional data should override type, got %q", msg.Data["type"])
	}
}

func TestDispatchBoundedConcurrency(t *testing.T) {
	m := &fakeMessenger{delay: 20 * time.Millisecond}
	d := NewDispatcher(m, 2, time.Second)

	many := make([]string, 8)
	for i := range many {
		many[i] = fmt.Sprintf("tok-%d", i)
	}
	results, err := d.Dispatch(context.Background(), entities.NotificationRequest{
		Type:    TypeSystem,
		Content: map[string]any{"message": "Przerwa techniczna"},
		Tokens:  tokens(many...),
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.MessageID != "projects/eskulia/messages/"+many[i] {
			t.Errorf("result %d out of order: %+v", i, r)
		}
	}
	if got := m.maxSeen.Load(); got > 2 {
		t.Errorf("expected at most 2 concurrent sends, saw %d", got)
	}
}

// stuckMessenger never answers on its own; it returns once ctx ends.
type stuckMessenger struct{}

func (stuckMessenger) Send(ctx context.Context, msg Message) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestDispatchBoundsEachSubmission(t *testing.T) {
	d := NewDispatcher(stuckMessenger{}, 1, 50*time.Millisecond)

	done := make(chan []entities.DeliveryResult, 1)
	go func() {
		results, err := d.Dispatch(context.Background(), entities.NotificationRequest{
			Type:    TypeSystem,
			Content: map[string]any{"message": "x"},
			Tokens:  tokens("a", "b"),
		})
		if err != nil {
			t.Errorf("Dispatch: %v", err)
		}
		done <- results
	}()

	select {
	case results := <-done:
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		for i, r := range results {
			if r.Status != entities.DeliveryError || r.Error != context.DeadlineExceeded.Error() {
				t.Errorf("result %d = %+v, want deadline error", i, r)
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("dispatch did not return: submissions are not bounded")
	}
}

func TestDispatchWithoutMessenger(t *testing.T) {
	d := NewDispatcher(nil, 2, time.Second)

	_, err := d.Dispatch(context.Background(), entities.NotificationRequest{
		Type:    TypeSystem,
		Content: map[string]any{"message": "x"},
		Tokens:  tokens("a"),
	})
	if !errors.Is(err, common.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	// Validation still wins over availability
	_, err = d.Dispatch(context.Background(), entities.NotificationRequest{Type: "nope"})
	if !errors.Is(err, common.ErrInvalidType) {
		t.Errorf("expected ErrInvalidType, got %v", err)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{true, "true"},
		{float64(3), "3"},
		{2.5, "2.5"},
		{map[string]any{"a": float64(1)}, `{"a":1}`},
		{[]any{"x", float64(2)}, `["x",2]`},
	}
	for _, tt := range tests {
		if got := stringify(tt.in); got != tt.want {
			t.Errorf("stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
