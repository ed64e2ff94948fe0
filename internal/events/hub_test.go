package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hns-tools/auctionwatch/internal/logger"
)

func newTestHub(buffer int) *Hub {
	return NewHub("secret", buffer, logger.NewNopLogger())
}

func TestHub_Authenticate(t *testing.T) {
	hub := newTestHub(8)

	require.NoError(t, hub.Authenticate("secret"))
	require.ErrorIs(t, hub.Authenticate("wrong"), ErrBadCredentials)
	require.ErrorIs(t, hub.Authenticate(""), ErrBadCredentials)
}

func TestHub_DeliversToJoinedSubscriber(t *testing.T) {
	hub := newTestHub(8)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	hub.Join(sub, ChannelAuctions)

	hub.Publish(ChannelAuctions, Bid{Name: "alice", Value: 100})

	delivery := <-sub.C()
	require.Equal(t, ChannelAuctions, delivery.Channel)
	require.Equal(t, TypeBid, delivery.Event.Type())
	require.Equal(t, Bid{Name: "alice", Value: 100}, delivery.Event)
}

func TestHub_NoDeliveryBeforeJoin(t *testing.T) {
	hub := newTestHub(8)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	// published before the join: gone, no replay
	hub.Publish(ChannelAuctions, Bid{Name: "early"})

	hub.Join(sub, ChannelAuctions)
	hub.Publish(ChannelAuctions, Bid{Name: "late"})

	delivery := <-sub.C()
	require.Equal(t, Bid{Name: "late"}, delivery.Event)
	require.Empty(t, sub.C())
}

func TestHub_ChannelsAreIsolated(t *testing.T) {
	hub := newTestHub(8)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	hub.Join(sub, ChannelSpends)

	hub.Publish(ChannelAuctions, Bid{Name: "alice"})
	hub.Publish(ChannelSpends, BigSpend{Value: 5000})

	delivery := <-sub.C()
	require.Equal(t, ChannelSpends, delivery.Channel)
	require.Equal(t, TypeBigSpend, delivery.Event.Type())
	require.Empty(t, sub.C())
}

func TestHub_Leave(t *testing.T) {
	hub := newTestHub(8)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	hub.Join(sub, ChannelAuctions)
	hub.Leave(sub, ChannelAuctions)

	hub.Publish(ChannelAuctions, Bid{Name: "alice"})
	require.Empty(t, sub.C())
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub := newTestHub(8)

	first := hub.Subscribe()
	second := hub.Subscribe()
	defer hub.Unsubscribe(first)
	defer hub.Unsubscribe(second)

	hub.Join(first, ChannelAuctions)
	hub.Join(second, ChannelAuctions)

	hub.Publish(ChannelAuctions, Reveal{Name: "alice"})

	require.Equal(t, Reveal{Name: "alice"}, (<-first.C()).Event)
	require.Equal(t, Reveal{Name: "alice"}, (<-second.C()).Event)
}

func TestHub_SlowSubscriberDropsNotBlocks(t *testing.T) {
	hub := newTestHub(2)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	hub.Join(sub, ChannelAuctions)

	// the third publish overflows the buffer; it must return, not block
	hub.Publish(ChannelAuctions, Bid{Name: "one"})
	hub.Publish(ChannelAuctions, Bid{Name: "two"})
	hub.Publish(ChannelAuctions, Bid{Name: "three"})

	require.Equal(t, Bid{Name: "one"}, (<-sub.C()).Event)
	require.Equal(t, Bid{Name: "two"}, (<-sub.C()).Event)
	require.Empty(t, sub.C())
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := newTestHub(8)

	sub := hub.Subscribe()
	hub.Join(sub, ChannelAuctions)
	hub.Unsubscribe(sub)

	_, open := <-sub.C()
	require.False(t, open)

	// publishing after the unsubscribe must not panic on the closed channel
	hub.Publish(ChannelAuctions, Bid{Name: "alice"})

	// repeated unsubscribe is a no-op
	hub.Unsubscribe(sub)
}

func TestHub_DeliveryOrder(t *testing.T) {
	hub := newTestHub(16)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	hub.Join(sub, ChannelAuctions)

	names := []string{"a", "b", "c", "d"}
	for _, name := range names {
		hub.Publish(ChannelAuctions, Bid{Name: name})
	}

	for _, name := range names {
		require.Equal(t, Bid{Name: name}, (<-sub.C()).Event)
	}
}
