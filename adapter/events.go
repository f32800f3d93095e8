package adapter

import "github.com/solport/solport/core/logx"

// NotificationKind is the closed set of lifecycle notifications an adapter
// emits.
type NotificationKind int

const (
	// NotifyConnect fires when a session is established; PublicKey carries
	// the active identity.
	NotifyConnect NotificationKind = iota + 1
	// NotifyDisconnect fires whenever the session ends, for any reason.
	NotifyDisconnect
	// NotifyAccountChanged fires when the surface switches identities;
	// PublicKey is the new identity, or empty when the surface reported none.
	NotifyAccountChanged
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyConnect:
		return "connect"
	case NotifyDisconnect:
		return "disconnect"
	case NotifyAccountChanged:
		return "accountChanged"
	}
	return "unknown"
}

// Notification is one lifecycle notification.
type Notification struct {
	Kind      NotificationKind
	PublicKey string
}

// Subscribe registers a notification channel with the given buffer size and
// returns it along with a cancel function. Notifications that would block a
// full subscriber are dropped rather than stalling dispatch.
func (a *Adapter) Subscribe(buf int) (<-chan Notification, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan Notification, buf)
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.mu.Unlock()
	cancel := func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Adapter) notify(n Notification) {
	a.mu.Lock()
	subs := make([]chan Notification, 0, len(a.subs))
	for _, ch := range a.subs {
		subs = append(subs, ch)
	}
	a.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- n:
		default:
			logx.Log.Warn().Str("kind", n.Kind.String()).Msg("notification dropped; subscriber full")
		}
	}
}
