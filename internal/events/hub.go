package events

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/hns-tools/auctionwatch/internal/logger"
)

// Well-known channel names published by the classifier.
const (
	ChannelAuctions = "auctions"
	ChannelSpends   = "spends"
	ChannelStats    = "stats"
)

// ErrBadCredentials is returned when a presented secret does not match
// the configured one.
var ErrBadCredentials = errors.New("events: bad credentials")

// Delivery is one event tagged with the channel it was published on.
type Delivery struct {
	Channel string
	Event   Event
}

// Subscriber is one connected consumer. Deliveries arrive on C in
// publish order; when the buffer is full further deliveries are dropped,
// never blocking the publisher.
type Subscriber struct {
	ch chan Delivery
}

// C is the subscriber's delivery channel. It is closed when the
// subscriber is removed from the hub.
func (s *Subscriber) C() <-chan Delivery {
	return s.ch
}

// Hub broadcasts domain events to consumers joined to named channels.
// Delivery is at-most-once and non-durable: a consumer not joined at
// emission time never receives that event, and there is no replay.
type Hub struct {
	log        *logger.Logger
	secretHash [sha256.Size]byte
	buffer     int

	mu       sync.RWMutex
	channels map[string]map[*Subscriber]struct{}
	subs     map[*Subscriber]struct{}
}

// NewHub creates a hub. The shared secret is stored as its SHA-256
// digest; buffer is the per-subscriber queue depth.
func NewHub(secret string, buffer int, log *logger.Logger) *Hub {
	return &Hub{
		log:        log,
		secretHash: sha256.Sum256([]byte(secret)),
		buffer:     buffer,
		channels:   make(map[string]map[*Subscriber]struct{}),
		subs:       make(map[*Subscriber]struct{}),
	}
}

// Authenticate checks a presented secret. The presented value is hashed
// and compared against the stored digest in constant time, so a mismatch
// leaks no timing signal correlated to partial matches.
func (h *Hub) Authenticate(secret string) error {
	presented := sha256.Sum256([]byte(secret))
	if subtle.ConstantTimeCompare(presented[:], h.secretHash[:]) != 1 {
		return ErrBadCredentials
	}
	return nil
}

// Subscribe registers a consumer. The subscriber starts joined to no
// channels.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan Delivery, h.buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	subscribersSet(n)
	return sub
}

// Unsubscribe removes a consumer from every channel and closes its
// delivery channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	for _, members := range h.channels {
		delete(members, sub)
	}
	close(sub.ch)

	subscribersSet(len(h.subs))
}

// Join adds a subscriber to a named channel.
func (h *Hub) Join(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Subscriber]struct{})
		h.channels[channel] = members
	}
	members[sub] = struct{}{}
}

// Leave removes a subscriber from a named channel.
func (h *Hub) Leave(sub *Subscriber, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.channels[channel]; ok {
		delete(members, sub)
	}
}

// Publish delivers an event to every subscriber currently joined to the
// channel. Publish never blocks: a subscriber whose queue is full simply
// misses the event.
func (h *Hub) Publish(channel string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	publishedInc(string(ev.Type()))

	for sub := range h.channels[channel] {
		select {
		case sub.ch <- Delivery{Channel: channel, Event: ev}:
		default:
			droppedInc(string(ev.Type()))
			h.log.Warnf("dropped event for slow subscriber: channel=%s type=%s", channel, ev.Type())
		}
	}
}
