package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"library-circulation-backend/internal/circulation"
	"library-circulation-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the store the workers need.
type SubscriptionStore interface {
	SubscriptionsForMember(ctx context.Context, memberID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, memberID, endpoint string) error
}

// WorkerPool delivers circulation notices to members' push subscriptions.
// It implements circulation.Notifier.
type WorkerPool struct {
	size    int
	jobs    chan circulation.Notice
	store   SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool with room for queueSize pending notices.
func NewWorkerPool(size, queueSize int, s SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan circulation.Notice, queueSize),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines. They stop when ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Printf("Worker %d started", id)
	for {
		select {
		case n := <-wp.jobs:
			wp.notifyMember(ctx, n)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Notify queues n for delivery. It never blocks: when the queue is full the
// notice is dropped.
func (wp *WorkerPool) Notify(n circulation.Notice) {
	select {
	case wp.jobs <- n:
	default:
		log.Printf("Notification queue full, dropping %s notice for request %s", n.Event, n.RequestID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan circulation.Notice {
	return wp.jobs
}

func (wp *WorkerPool) notifyMember(ctx context.Context, n circulation.Notice) {
	subs, err := wp.store.SubscriptionsForMember(ctx, n.MemberID)
	if err != nil {
		log.Printf("Error fetching subscriptions for member %s: %v", n.MemberID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload := []byte(Message(n))
	for _, sub := range subs {
		wp.sendNotification(ctx, sub, payload)
	}
}

// Message renders the text shown to the member for n.
func Message(n circulation.Notice) string {
	switch n.Event {
	case circulation.EventApprove:
		if n.DueAt != nil {
			return fmt.Sprintf("%q has been issued to you. Please return it by %s.", n.TitleName, n.DueAt.Format("2006-01-02"))
		}
		return fmt.Sprintf("%q has been issued to you.", n.TitleName)
	case circulation.EventReject:
		return fmt.Sprintf("Your request for %q was declined.", n.TitleName)
	case circulation.EventCancel:
		return fmt.Sprintf("Your request for %q was cancelled.", n.TitleName)
	case circulation.EventExpire:
		return fmt.Sprintf("Your request for %q expired before it was issued.", n.TitleName)
	case circulation.EventReturn:
		if n.Fine.IsPositive() {
			return fmt.Sprintf("Thanks for returning %q. A fine of %s is due.", n.TitleName, n.Fine.StringFixed(2))
		}
		return fmt.Sprintf("Thanks for returning %q.", n.TitleName)
	}
	return fmt.Sprintf("Your request for %q was updated.", n.TitleName)
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.MemberID, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
