package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/coinsettle/internal/queue"

	"github.com/hibiken/asynq"
)

type recordingNotifier struct {
	err      error
	orderID  string
	chargeID string
	calls    int
}

func (n *recordingNotifier) Notify(ctx context.Context, orderID string, chargeID string) error {
	n.calls++
	n.orderID = orderID
	n.chargeID = chargeID
	return n.err
}

func TestHandleOrderNotifyDelegatesToNotifier(t *testing.T) {
	notifier := &recordingNotifier{}
	consumer := &Consumer{notifier: notifier}
	task, err := queue.NewOrderNotifyTask(queue.OrderNotifyPayload{OrderID: "4004", ChargeID: "charge-1"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleOrderNotify(context.Background(), task); err != nil {
		t.Fatalf("handle order notify failed: %v", err)
	}
	if notifier.calls != 1 || notifier.orderID != "4004" || notifier.chargeID != "charge-1" {
		t.Fatalf("unexpected notifier call: %+v", notifier)
	}
}

func TestHandleOrderNotifyReturnsErrorForRetry(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("notify 503")}
	consumer := &Consumer{notifier: notifier}
	task, _ := queue.NewOrderNotifyTask(queue.OrderNotifyPayload{OrderID: "4004"})
	err := consumer.handleOrderNotify(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestHandleOrderNotifySkipsRetryOnBadPayload(t *testing.T) {
	consumer := &Consumer{notifier: &recordingNotifier{}}
	task := asynq.NewTask(queue.TaskOrderNotify, []byte(`{"order_id":""}`))
	if err := consumer.handleOrderNotify(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
