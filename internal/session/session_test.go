package session

import (
	"sync"
	"testing"

	"github.com/dmitrijs2005/bizsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_CurrentWithoutSession(t *testing.T) {
	h := NewHolder()
	_, err := h.Current()
	require.ErrorIs(t, err, common.ErrNoSession)
}

func TestHolder_SetClear(t *testing.T) {
	h := NewHolder()
	h.Set(Owner{ID: "u1", Name: "Ann"})

	o, err := h.Current()
	require.NoError(t, err)
	assert.Equal(t, Owner{ID: "u1", Name: "Ann"}, o)

	h.Clear()
	_, err = h.Current()
	require.ErrorIs(t, err, common.ErrNoSession)
}

func TestHolder_SubscribeAndUnsubscribe(t *testing.T) {
	h := NewHolder()

	var seen []string
	unsub := h.Subscribe(func(o *Owner) {
		if o == nil {
			seen = append(seen, "<nil>")
			return
		}
		seen = append(seen, o.ID)
	})

	h.Set(Owner{ID: "u1"})
	h.Set(Owner{ID: "u2"})
	h.Clear()
	h.Clear()

	unsub()
	unsub()
	h.Set(Owner{ID: "u3"})

	assert.Equal(t, []string{"u1", "u2", "<nil>"}, seen)
}

func TestHolder_SubscriberMayReadCurrent(t *testing.T) {
	h := NewHolder()
	var got Owner
	h.Subscribe(func(*Owner) {
		got, _ = h.Current()
	})
	h.Set(Owner{ID: "u9"})
	assert.Equal(t, "u9", got.ID)
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	h := NewHolder()
	h.Set(Owner{ID: "u1"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				o, err := h.Current()
				if err == nil {
					assert.Equal(t, "u1", o.ID)
				}
			}
		}()
	}
	wg.Wait()
}
