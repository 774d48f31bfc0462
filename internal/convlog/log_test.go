package convlog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peoplesync-client/internal/dedup"
	"peoplesync-client/internal/models"
)

// stubFetcher serves canned histories and can hold a fetch open until
// released, to exercise the in-flight buffering and stale-fetch paths.
type stubFetcher struct {
	mu      sync.Mutex
	results map[string][]models.Message
	errs    map[string]error
	gates   map[string]chan struct{}
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		results: make(map[string][]models.Message),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *stubFetcher) fetch(roomID string) ([]models.Message, error) {
	f.mu.Lock()
	gate := f.gates[roomID]
	res := f.results[roomID]
	err := f.errs[roomID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return res, err
}

func (f *stubFetcher) FetchDirectHistory(_ context.Context, chatID string) ([]models.Message, error) {
	return f.fetch(chatID)
}

func (f *stubFetcher) FetchGroupHistory(_ context.Context, groupID string) ([]models.Message, error) {
	return f.fetch(groupID)
}

func direct(chatID, senderID, content string) models.Message {
	return models.Message{Sender: models.UserRef{ID: senderID}, Content: content, ChatID: chatID}
}

func group(groupID, senderID, content string) models.Message {
	return models.Message{Sender: models.UserRef{ID: senderID}, Content: content, GroupID: groupID}
}

func contents(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestOpenReplacesSequenceAndAppendsInArrivalOrder(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.results["c1"] = []models.Message{direct("c1", "peer", "old1"), direct("c1", "peer", "old2")}
	l := New(fetcher, dedup.NewSeenIndex())

	require.NoError(t, l.Open(context.Background(), models.Room{Kind: models.RoomDirect, ID: "c1"}))
	l.Append(direct("c1", "peer", "live1"))
	l.Append(direct("c1", "me", "live2"))

	assert.Equal(t, []string{"old1", "old2", "live1", "live2"}, contents(l.Messages()))
}

func TestAppendIgnoresOtherRoomsAndClosedLog(t *testing.T) {
	fetcher := newStubFetcher()
	l := New(fetcher, dedup.NewSeenIndex())

	l.Append(direct("c1", "peer", "before open"))
	assert.Empty(t, l.Messages())

	require.NoError(t, l.Open(context.Background(), models.Room{Kind: models.RoomDirect, ID: "c1"}))
	l.Append(direct("c2", "peer", "other room"))
	assert.Empty(t, l.Messages())

	l.Close()
	l.Append(direct("c1", "peer", "after close"))
	assert.Empty(t, l.Messages())
	_, open := l.Room()
	assert.False(t, open)
}

func TestGroupDuplicateDeliveryRendersOnce(t *testing.T) {
	fetcher := newStubFetcher()
	l := New(fetcher, dedup.NewSeenIndex())

	require.NoError(t, l.Open(context.Background(), models.Room{Kind: models.RoomGroup, ID: "g1"}))

	// Echo duplication: the channel delivers B's message twice.
	l.Append(group("g1", "b", "hi"))
	l.Append(group("g1", "b", "hi"))

	assert.Equal(t, []string{"hi"}, contents(l.Messages()))
}

func TestSelfEchoAppendsOnceThenSuppressed(t *testing.T) {
	fetcher := newStubFetcher()
	l := New(fetcher, dedup.NewSeenIndex())

	require.NoError(t, l.Open(context.Background(), models.Room{Kind: models.RoomGroup, ID: "g1"}))

	// First echo of the user's own message materializes it; further
	// echoes of the same fingerprint are dropped.
	l.Append(group("g1", "me", "mine"))
	l.Append(group("g1", "me", "mine"))
	l.Append(group("g1", "me", "mine"))

	assert.Equal(t, []string{"mine"}, contents(l.Messages()))
}

func TestHistoryFingerprintsSuppressLateDuplicates(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.results["g1"] = []models.Message{group("g1", "b", "hi")}
	l := New(fetcher, dedup.NewSeenIndex())

	require.NoError(t, l.Open(context.Background(), models.Room{Kind: models.RoomGroup, ID: "g1"}))

	// A late duplicate delivery of a message already in history.
	l.Append(group("g1", "b", "hi"))

	assert.Equal(t, []string{"hi"}, contents(l.Messages()))
}

func TestLiveEventsDuringFetchAreBufferedThenApplied(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.results["c1"] = []models.Message{direct("c1", "peer", "old")}
	gate := make(chan struct{})
	fetcher.gates["c1"] = gate
	l := New(fetcher, dedup.NewSeenIndex())

	done := make(chan error, 1)
	go func() {
		done <- l.Open(context.Background(), models.Room{Kind: models.RoomDirect, ID: "c1"})
	}()
	require.Eventually(t, l.Loading, time.Second, time.Millisecond)

	l.Append(direct("c1", "peer", "live1"))
	l.Append(direct("c1", "peer", "live2"))
	assert.Empty(t, l.Messages(), "buffered events must not render before history")

	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"old", "live1", "live2"}, contents(l.Messages()))
}

func TestStaleFetchIsDiscardedAfterRoomSwitch(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.results["c1"] = []models.Message{direct("c1", "peer", "stale")}
	fetcher.results["c2"] = []models.Message{direct("c2", "peer", "fresh")}
	gate := make(chan struct{})
	fetcher.gates["c1"] = gate
	l := New(fetcher, dedup.NewSeenIndex())

	done := make(chan error, 1)
	go func() {
		done <- l.Open(context.Background(), models.Room{Kind: models.RoomDirect, ID: "c1"})
	}()
	require.Eventually(t, l.Loading, time.Second, time.Millisecond)

	// Switch to c2 before c1's history resolves.
	require.NoError(t, l.Open(context.Background(), models.Room{Kind: models.RoomDirect, ID: "c2"}))
	close(gate)
	require.NoError(t, <-done)

	room, open := l.Room()
	require.True(t, open)
	assert.Equal(t, "c2", room.ID)
	assert.Equal(t, []string{"fresh"}, contents(l.Messages()))
}

func TestFailedFetchKeepsBufferedLiveEvents(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.errs["c1"] = assert.AnError
	gate := make(chan struct{})
	fetcher.gates["c1"] = gate
	l := New(fetcher, dedup.NewSeenIndex())

	done := make(chan error, 1)
	go func() {
		done <- l.Open(context.Background(), models.Room{Kind: models.RoomDirect, ID: "c1"})
	}()
	require.Eventually(t, l.Loading, time.Second, time.Millisecond)

	l.Append(direct("c1", "peer", "live1"))
	l.Append(direct("c1", "peer", "live2"))

	close(gate)
	require.Error(t, <-done)

	// The room stays open; the live events are a best-effort view
	// until it is reopened.
	room, open := l.Room()
	require.True(t, open)
	assert.Equal(t, "c1", room.ID)
	assert.Equal(t, []string{"live1", "live2"}, contents(l.Messages()))
}

func TestOpenSurfacesFetchError(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.errs["c1"] = assert.AnError
	l := New(fetcher, dedup.NewSeenIndex())

	err := l.Open(context.Background(), models.Room{Kind: models.RoomDirect, ID: "c1"})

	require.Error(t, err)
	assert.Empty(t, l.Messages())
	assert.False(t, l.Loading())
}
