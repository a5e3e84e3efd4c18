package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	frames [][]byte
}

func (f *fakeSender) Enqueue(frame []byte) bool {
	f.frames = append(f.frames, frame)
	return true
}

func TestAttachDetach(t *testing.T) {
	r := New()
	s := &fakeSender{}
	r.Attach("p1", s)
	require.True(t, r.Connected("p1"))
	require.Equal(t, []string{"p1"}, r.WaitingSnapshot())

	r.Detach("p1")
	require.False(t, r.Connected("p1"))
	require.Empty(t, r.WaitingSnapshot())
}

func TestSendToVanishedIDIsNoop(t *testing.T) {
	r := New()
	require.NotPanics(t, func() {
		r.Send("ghost", []byte("frame\n"))
	})
}

func TestBroadcastExcludesSet(t *testing.T) {
	r := New()
	s1, s2, s3 := &fakeSender{}, &fakeSender{}, &fakeSender{}
	r.Attach("p1", s1)
	r.Attach("p2", s2)
	r.Attach("p3", s3)

	r.Broadcast([]byte("hi\n"), map[string]bool{"p2": true})

	require.Len(t, s1.frames, 1)
	require.Empty(t, s2.frames)
	require.Len(t, s3.frames, 1)
}

func TestWaitingActiveOrderPreserved(t *testing.T) {
	r := New()
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		r.Attach(id, &fakeSender{})
	}

	r.MoveToActive([]string{"p1", "p2", "p3"})
	require.Equal(t, []string{"p1", "p2", "p3"}, r.ActiveSnapshot())
	require.Equal(t, []string{"p4"}, r.WaitingSnapshot())

	r.ReturnToWaiting([]string{"p1", "p2", "p3"})
	require.Empty(t, r.ActiveSnapshot())
	require.Equal(t, []string{"p1", "p2", "p3", "p4"}, r.WaitingSnapshot())
}

func TestDetachDuringActiveRemovesFromSnapshot(t *testing.T) {
	r := New()
	r.Attach("p1", &fakeSender{})
	r.Attach("p2", &fakeSender{})
	r.MoveToActive([]string{"p1", "p2"})

	r.Detach("p1")
	require.Equal(t, []string{"p2"}, r.ActiveSnapshot())
}
