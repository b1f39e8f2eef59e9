package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []domain.DeletionEvent
	fail   bool
}

func (r *recordingRepo) InsertDeletion(_ context.Context, e domain.DeletionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.fail {
		return errors.New("insert failed")
	}
	return nil
}

func (r *recordingRepo) snapshot() []domain.DeletionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DeletionEvent(nil), r.events...)
}

func TestDispatcher_PreservesPerPostOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		post := "post-a"
		if i%2 == 1 {
			post = "post-b"
		}
		d.Enqueue(domain.DeletionEvent{Kind: domain.DeletionComment, PostID: post, Comments: i})
	}

	require.Eventually(t, func() bool { return len(repo.snapshot()) == 50 }, 2*time.Second, 5*time.Millisecond)

	last := map[string]int{"post-a": -1, "post-b": -1}
	for _, e := range repo.snapshot() {
		assert.Greater(t, e.Comments, last[e.PostID], "events of %s out of order", e.PostID)
		last[e.PostID] = e.Comments
	}

	cancel()
	d.Wait()
}

func TestDispatcher_InsertFailureDoesNotStopWorker(t *testing.T) {
	repo := &recordingRepo{fail: true}
	d := NewDispatcher(1, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(domain.DeletionEvent{PostID: "p"})
	d.Enqueue(domain.DeletionEvent{PostID: "p"})

	require.Eventually(t, func() bool { return len(repo.snapshot()) == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestDispatcher_EnqueueDoesNotBlockWhenFull(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	// Workers are not started, so the buffer fills up.

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(domain.DeletionEvent{PostID: "p"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	assert.Len(t, d.workers[0], channelBuffer)
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingRepo{}, zerolog.Nop())
	require.Len(t, d.workers, defaultWorkers)

	for _, id := range []string{"", "a", "65f0c0ffee", "post-123"} {
		idx := d.shardIndex(id)
		assert.Equal(t, idx, d.shardIndex(id))
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, defaultWorkers)
	}
}
