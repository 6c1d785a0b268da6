package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/contactsel/internal/core"
)

func staticDecoder(rows ...core.Row) Decoder {
	return DecoderFunc(func(context.Context, string, []byte) ([]core.Row, error) {
		return rows, nil
	})
}

func newTestStore(t *testing.T, d Decoder, opts Options) *Store {
	t.Helper()
	st := NewStore(d, opts)
	t.Cleanup(st.Close)
	return st
}

func waitDecode(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestStartDecodeImports(t *testing.T) {
	st := newTestStore(t, staticDecoder(
		core.Row{"Name": "Ada"},
		core.Row{"First Name": "Alan", "Last Name": "Turing"},
	), Options{})

	sess := st.Create()
	require.NoError(t, st.StartDecode(sess, "contacts.csv", []byte("x")))
	waitDecode(t, sess)

	snap := sess.Snapshot()
	assert.False(t, snap.Pending)
	assert.NoError(t, snap.LastError)
	assert.Equal(t, 2, snap.State.Total())
	assert.Equal(t, "contacts.csv", snap.State.Source())
	assert.NotEmpty(t, snap.State.ImportID())
	assert.Len(t, snap.State.Unselected(), 2)
	assert.Empty(t, snap.State.Selected())
}

func TestStartDecodeRejectsReentry(t *testing.T) {
	release := make(chan struct{})
	st := newTestStore(t, DecoderFunc(func(ctx context.Context, _ string, _ []byte) ([]core.Row, error) {
		<-release
		return []core.Row{{"Name": "Late"}}, nil
	}), Options{})

	sess := st.Create()
	require.NoError(t, st.StartDecode(sess, "first.csv", nil))

	err := st.StartDecode(sess, "second.csv", nil)
	assert.ErrorIs(t, err, ErrDecodePending)

	snap := sess.Snapshot()
	assert.True(t, snap.Pending)
	assert.Equal(t, "first.csv", snap.PendingFile)
	assert.Equal(t, 1, st.PendingDecodes())

	close(release)
	waitDecode(t, sess)

	assert.False(t, sess.Pending())
	assert.Equal(t, "first.csv", sess.State().Source())
	assert.Equal(t, 0, st.PendingDecodes())
}

func TestDecodeFailureKeepsState(t *testing.T) {
	fail := errors.New("invalid spreadsheet: boom")
	calls := 0
	st := newTestStore(t, DecoderFunc(func(context.Context, string, []byte) ([]core.Row, error) {
		calls++
		if calls > 1 {
			return nil, fail
		}
		return []core.Row{{"Name": "Ada"}, {"Name": "Bob"}}, nil
	}), Options{})

	sess := st.Create()
	require.NoError(t, st.StartDecode(sess, "good.csv", nil))
	waitDecode(t, sess)

	before, err := sess.Apply(func(s core.State) (core.State, error) {
		return s.Select("", 1)
	})
	require.NoError(t, err)

	require.NoError(t, st.StartDecode(sess, "bad.xlsx", nil))
	waitDecode(t, sess)

	snap := sess.Snapshot()
	assert.ErrorIs(t, snap.LastError, fail)
	assert.Equal(t, before.ImportID(), snap.State.ImportID())
	assert.Equal(t, 1, snap.State.SelectedCount())
}

func TestReimportInvalidatesOldToggles(t *testing.T) {
	st := newTestStore(t, staticDecoder(core.Row{"Name": "Ada"}, core.Row{"Name": "Bob"}), Options{})
	sess := st.Create()

	require.NoError(t, st.StartDecode(sess, "a.csv", nil))
	waitDecode(t, sess)
	first := sess.State().ImportID()

	_, err := sess.Apply(func(s core.State) (core.State, error) { return s.Select(first, 0) })
	require.NoError(t, err)

	require.NoError(t, st.StartDecode(sess, "a.csv", nil))
	waitDecode(t, sess)

	state := sess.State()
	assert.NotEqual(t, first, state.ImportID())
	assert.Equal(t, 0, state.SelectedCount(), "re-upload resets the selection")

	_, err = sess.Apply(func(s core.State) (core.State, error) { return s.Select(first, 1) })
	assert.ErrorIs(t, err, core.ErrStaleImport)
	assert.Equal(t, 0, sess.State().SelectedCount())
}

func TestDecodeTimeout(t *testing.T) {
	st := newTestStore(t, DecoderFunc(func(ctx context.Context, _ string, _ []byte) ([]core.Row, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), Options{DecodeTimeout: 20 * time.Millisecond})

	sess := st.Create()
	require.NoError(t, st.StartDecode(sess, "slow.csv", nil))
	waitDecode(t, sess)

	assert.ErrorIs(t, sess.Snapshot().LastError, context.DeadlineExceeded)
}

func TestDecodeBusyLimiter(t *testing.T) {
	release := make(chan struct{})
	st := newTestStore(t, DecoderFunc(func(context.Context, string, []byte) ([]core.Row, error) {
		<-release
		return nil, nil
	}), Options{MaxConcurrentDecodes: 1, MaxWait: 20 * time.Millisecond})

	holder := st.Create()
	require.NoError(t, st.StartDecode(holder, "a.csv", nil))
	require.Eventually(t, func() bool { return st.Limiter().ActiveCount() == 1 }, time.Second, 5*time.Millisecond)

	waiter := st.Create()
	require.NoError(t, st.StartDecode(waiter, "b.csv", nil))
	waitDecode(t, waiter)
	assert.ErrorIs(t, waiter.Snapshot().LastError, ErrTooManyDecodes)

	close(release)
	waitDecode(t, holder)
	assert.NoError(t, holder.Snapshot().LastError)
}

func TestCloseCancelsDecodes(t *testing.T) {
	st := NewStore(DecoderFunc(func(ctx context.Context, _ string, _ []byte) ([]core.Row, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), Options{})

	sess := st.Create()
	require.NoError(t, st.StartDecode(sess, "a.csv", nil))

	st.Close()
	st.Close()

	assert.False(t, sess.Pending())
	assert.ErrorIs(t, sess.Snapshot().LastError, context.Canceled)
	assert.ErrorIs(t, st.StartDecode(sess, "b.csv", nil), ErrStoreClosed)
}

func TestCloseRacingStartDecode(t *testing.T) {
	st := NewStore(DecoderFunc(func(ctx context.Context, _ string, _ []byte) ([]core.Row, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), Options{})

	sessions := make([]*Session, 50)
	for i := range sessions {
		sessions[i] = st.Create()
	}

	var wg sync.WaitGroup
	errs := make([]error, len(sessions))
	start := make(chan struct{})
	for i, sess := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = st.StartDecode(sess, "a.csv", nil)
		}()
	}
	close(start)
	st.Close()
	wg.Wait()

	for i, sess := range sessions {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], ErrStoreClosed)
			continue
		}
		// Close waited for every decode it let in.
		assert.False(t, sess.Pending())
		assert.ErrorIs(t, sess.Snapshot().LastError, context.Canceled)
	}
	assert.Equal(t, 0, st.PendingDecodes())
}

func TestWaitForDecodes(t *testing.T) {
	release := make(chan struct{})
	st := newTestStore(t, DecoderFunc(func(context.Context, string, []byte) ([]core.Row, error) {
		<-release
		return nil, nil
	}), Options{})

	require.NoError(t, st.StartDecode(st.Create(), "a.csv", nil))

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, st.WaitForDecodes(short), context.DeadlineExceeded)

	close(release)
	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	assert.NoError(t, st.WaitForDecodes(ctx))
}

func TestGetAndGetOrCreate(t *testing.T) {
	st := newTestStore(t, staticDecoder(), Options{})

	_, err := st.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s, created := st.GetOrCreate("")
	assert.True(t, created)

	again, created := st.GetOrCreate(s.ID())
	assert.False(t, created)
	assert.Same(t, s, again)

	_, created = st.GetOrCreate("expired-cookie")
	assert.True(t, created)
	assert.Equal(t, 2, st.Len())

	st.Delete(s.ID())
	assert.Equal(t, 1, st.Len())
}

func TestEvictIdleKeepsPending(t *testing.T) {
	release := make(chan struct{})
	st := newTestStore(t, DecoderFunc(func(context.Context, string, []byte) ([]core.Row, error) {
		<-release
		return nil, nil
	}), Options{})

	idle := st.Create()
	busy := st.Create()
	require.NoError(t, st.StartDecode(busy, "a.csv", nil))

	evicted := st.EvictIdle(time.Now().Add(time.Hour))
	assert.Equal(t, 1, evicted)

	_, err := st.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Get(busy.ID())
	assert.NoError(t, err)

	close(release)
	waitDecode(t, busy)
}

func TestJanitorEvicts(t *testing.T) {
	st := newTestStore(t, staticDecoder(), Options{
		IdleTTL:         time.Millisecond,
		JanitorInterval: 5 * time.Millisecond,
	})
	st.Create()

	assert.Eventually(t, func() bool { return st.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestConcurrentApplyKeepsPartition(t *testing.T) {
	rows := make([]core.Row, 40)
	for i := range rows {
		rows[i] = core.Row{"Name": "c"}
	}
	st := newTestStore(t, staticDecoder(rows...), Options{})
	sess := st.Create()
	require.NoError(t, st.StartDecode(sess, "a.csv", nil))
	waitDecode(t, sess)

	var wg sync.WaitGroup
	for i := 0; i < len(rows); i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _ = sess.Apply(func(s core.State) (core.State, error) { return s.Select("", id) })
			if id%2 == 0 {
				_, _ = sess.Apply(func(s core.State) (core.State, error) { return s.Deselect("", id) })
			}
		}(i)
	}
	wg.Wait()

	state := sess.State()
	require.NoError(t, state.Verify())
	assert.Equal(t, len(rows)/2, state.SelectedCount())
}

func TestSessionContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := newSession("abcdef0123456789")
	got, ok := FromContext(NewContext(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, "abcdef01", ShortID(s.ID()))
	assert.Equal(t, "abc", ShortID("abc"))
}
