// Package notify implements the broadcast-plus-acknowledgement
// primitive the proxy uses to coordinate graceful shutdown between a
// Server and the connection-handling goroutines its Listener spawns.
//
// The original implementation builds this from a Tokio broadcast
// channel (notification) paired with an mpsc channel (acknowledgement),
// relying on a subscriber's receiver being dropped — implicitly
// acknowledging — if the owning task exits before explicitly calling
// acknowledge. Go has no destructors, so a dropped Subscription cannot
// acknowledge itself: every Subscribe call here returns a Subscription
// that MUST have Release called on it, normally via defer, to get the
// same guarantee.
package notify

import "sync"

// Notification is the single message type sent to subscribers.
type Notification int

// Shutdown is the only notification this proxy sends today.
const Shutdown Notification = iota

// Notifier broadcasts a Notification to every current Subscription and
// can wait for all of them to acknowledge it.
type Notifier struct {
	mu          sync.Mutex
	subscribers []*Subscription
	wg          sync.WaitGroup
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers a new Subscription. Call Release on the returned
// Subscription exactly once — typically via defer — whether or not a
// notification was ever received, to unblock CollectAcknowledgements.
func (n *Notifier) Subscribe() *Subscription {
	n.wg.Add(1)
	sub := &Subscription{
		notifications: make(chan Notification, 1),
		released:      make(chan struct{}),
	}

	n.mu.Lock()
	n.subscribers = append(n.subscribers, sub)
	n.mu.Unlock()

	sub.onRelease = func() {
		n.wg.Done()
	}
	return sub
}

// Send broadcasts notification to every live (not yet released)
// subscriber and returns how many subscribers it was sent to. Send never
// blocks: each subscriber's channel is buffered for exactly one pending
// notification, matching the "Shutdown is the only message, sent once"
// usage this type supports.
func (n *Notifier) Send(notification Notification) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	live := 0
	for _, sub := range n.subscribers {
		select {
		case <-sub.released:
			continue
		default:
		}
		live++
		select {
		case sub.notifications <- notification:
		default:
		}
	}
	return live
}

// CollectAcknowledgements blocks until every Subscription returned by
// Subscribe has called Release.
func (n *Notifier) CollectAcknowledgements() {
	n.wg.Wait()
}

// Subscription is a handle obtained from Notifier.Subscribe. A
// connection-handling goroutine polls it for a pending notification and
// must call Release when it is done with it (acknowledging receipt,
// or acknowledging that it never needed one).
type Subscription struct {
	notifications chan Notification
	released      chan struct{}
	onRelease     func()
	releaseOnce   sync.Once
}

// Receive reports whether a Notification is pending, returning it
// without blocking. This mirrors a non-blocking try-receive: a
// Subscription that is polled before Send has been called gets (0,
// false).
func (s *Subscription) Receive() (Notification, bool) {
	select {
	case n := <-s.notifications:
		return n, true
	default:
		return 0, false
	}
}

// Release acknowledges this Subscription, unblocking the Notifier's
// CollectAcknowledgements once every other Subscription has also been
// released. Safe to call more than once; only the first call counts.
func (s *Subscription) Release() {
	s.releaseOnce.Do(func() {
		close(s.released)
		s.onRelease()
	})
}
