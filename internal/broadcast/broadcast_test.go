package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencircle/opencircle/internal/models"
)

func msg(id, sender, receiver int64) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    "hi",
		CreatedAt:  time.Now(),
	}
}

func drain(s *Subscriber) []models.Message {
	var out []models.Message
	for {
		select {
		case m, ok := <-s.C():
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestPublishFansOutToSenderAndReceiver(t *testing.T) {
	h := NewHub()
	sender := h.Subscribe(1)
	receiver := h.Subscribe(2)

	h.Publish(msg(101, 1, 2))

	got := drain(receiver)
	require.Len(t, got, 1)
	assert.Equal(t, int64(101), got[0].ID)

	echo := drain(sender)
	require.Len(t, echo, 1, "sender should get a self-echo")
	assert.Equal(t, int64(101), echo[0].ID)
}

func TestPublishDeliversAtMostOncePerSubscriber(t *testing.T) {
	h := NewHub()
	receiver := h.Subscribe(2)

	h.Publish(msg(101, 1, 2))

	assert.Len(t, drain(receiver), 1)
	assert.Empty(t, drain(receiver), "no duplicate or queued deliveries")
}

func TestSelfMessageDeliveredOnce(t *testing.T) {
	h := NewHub()
	self := h.Subscribe(1)

	h.Publish(msg(7, 1, 1))

	assert.Len(t, drain(self), 1)
}

func TestPublishToAbsentSubscriberIsDropped(t *testing.T) {
	h := NewHub()
	// Nobody connected: must not block or error.
	h.Publish(msg(1, 1, 2))

	late := h.Subscribe(2)
	assert.Empty(t, drain(late), "nothing is queued for late subscribers")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	receiver := h.Subscribe(2)
	h.Unsubscribe(receiver)

	h.Publish(msg(1, 1, 2))

	_, ok := <-receiver.C()
	assert.False(t, ok, "mailbox channel should be closed")
	assert.False(t, h.Connected(2))
}

func TestResubscribeReplacesAndClosesOldMailbox(t *testing.T) {
	h := NewHub()
	old := h.Subscribe(2)
	fresh := h.Subscribe(2)

	h.Publish(msg(1, 1, 2))

	_, ok := <-old.C()
	assert.False(t, ok, "old mailbox should be closed on replacement")
	assert.Len(t, drain(fresh), 1)
	assert.Equal(t, 1, h.Count())
}

func TestStaleUnsubscribeDoesNotDropNewRegistration(t *testing.T) {
	h := NewHub()
	old := h.Subscribe(2)
	fresh := h.Subscribe(2)

	// Old connection's cleanup races with the new registration.
	h.Unsubscribe(old)

	require.True(t, h.Connected(2))
	h.Publish(msg(1, 1, 2))
	assert.Len(t, drain(fresh), 1)
}

func TestFullMailboxDropsWithoutBlocking(t *testing.T) {
	h := NewHub()
	receiver := h.Subscribe(2)

	done := make(chan struct{})
	go func() {
		for i := 0; i < mailboxBuffer+10; i++ {
			h.Publish(msg(int64(i), 1, 2))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full mailbox")
	}
	assert.Len(t, drain(receiver), mailboxBuffer)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(uid int64) {
			defer wg.Done()
			s := h.Subscribe(uid)
			drain(s)
			h.Unsubscribe(s)
		}(int64(i % 4))
		go func(n int64) {
			defer wg.Done()
			h.Publish(msg(n, 1, n%4))
		}(int64(i))
	}
	wg.Wait()
}
