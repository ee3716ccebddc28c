package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation-backend/internal/circulation"
	"library-circulation-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

type fakeStore struct {
	mu      sync.Mutex
	subs    map[string][]model.PushSubscription
	deleted []string
	err     error
}

func (f *fakeStore) SubscriptionsForMember(_ context.Context, memberID string) ([]model.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[memberID], f.err
}

func (f *fakeStore) DeleteSubscription(_ context.Context, memberID, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, memberID+" "+endpoint)
	return nil
}

func (f *fakeStore) deletedEndpoints() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func TestWorkerPool_NotifyQueues(t *testing.T) {
	wp := NewWorkerPool(1, 4, &fakeStore{}, &webpush.Options{})

	wp.Notify(circulation.Notice{Event: circulation.EventApprove, RequestID: "r-1"})

	select {
	case n := <-wp.Jobs():
		assert.Equal(t, "r-1", n.RequestID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for notice to be queued")
	}
}

func TestWorkerPool_NotifyDropsWhenFull(t *testing.T) {
	wp := NewWorkerPool(1, 1, &fakeStore{}, &webpush.Options{})

	done := make(chan struct{})
	go func() {
		wp.Notify(circulation.Notice{RequestID: "r-1"})
		wp.Notify(circulation.Notice{RequestID: "r-2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Len(t, wp.Jobs(), 1)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	due := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{subs: map[string][]model.PushSubscription{
		"m-1": {{Endpoint: "https://push.example/ok", MemberID: "m-1", P256DH: "k", Auth: "a"}},
		"m-2": {{Endpoint: "https://push.example/gone", MemberID: "m-2", P256DH: "k", Auth: "a"}},
	}}
	wp := NewWorkerPool(1, 8, store, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				assert.Equal(t, "https://push.example/ok", sub.Endpoint)
				assert.Equal(t, `"Dune" has been issued to you. Please return it by 2024-06-15.`, string(payload))
				return response(http.StatusCreated), nil
			},
		}

		wp.Notify(circulation.Notice{Event: circulation.EventApprove, MemberID: "m-1", TitleName: "Dune", DueAt: &due})
		wg.Wait()
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				defer wg.Done()
				return response(http.StatusGone), nil
			},
		}

		wp.Notify(circulation.Notice{Event: circulation.EventReturn, MemberID: "m-2", TitleName: "Dune"})
		wg.Wait()

		assert.Eventually(t, func() bool {
			return len(store.deletedEndpoints()) == 1
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"m-2 https://push.example/gone"}, store.deletedEndpoints())
	})

	cancel()
	wp.Wait()
}

func TestWorkerPool_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	wp := NewWorkerPool(1, 1, store, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Fatal("sender must not be called")
			return nil, nil
		},
	}
	wp.notifyMember(context.Background(), circulation.Notice{MemberID: "m-1"})
	assert.Empty(t, store.deletedEndpoints())
}

func TestMessage(t *testing.T) {
	testCases := []struct {
		name   string
		notice circulation.Notice
		want   string
	}{
		{"reject", circulation.Notice{Event: circulation.EventReject, TitleName: "Ubik"}, `Your request for "Ubik" was declined.`},
		{"cancel", circulation.Notice{Event: circulation.EventCancel, TitleName: "Ubik"}, `Your request for "Ubik" was cancelled.`},
		{"expire", circulation.Notice{Event: circulation.EventExpire, TitleName: "Ubik"}, `Your request for "Ubik" expired before it was issued.`},
		{"return with fine", circulation.Notice{Event: circulation.EventReturn, TitleName: "Ubik", Fine: decimal.NewFromInt(50)}, `Thanks for returning "Ubik". A fine of 50.00 is due.`},
		{"return without fine", circulation.Notice{Event: circulation.EventReturn, TitleName: "Ubik"}, `Thanks for returning "Ubik".`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Message(tc.notice))
		})
	}
}
