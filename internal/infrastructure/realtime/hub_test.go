package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func note(companyID string, userID *string, title string) entity.Notification {
	return entity.Notification{ID: title, CompanyID: companyID, UserID: userID, Title: title, Type: entity.NotificationInfo}
}

func recv(t *testing.T, s *Subscription) entity.Notification {
	t.Helper()
	select {
	case n, ok := <-s.C:
		require.True(t, ok, "canal cerrado")
		return n
	case <-time.After(time.Second):
		t.Fatal("no llegó la notificación")
	}
	return entity.Notification{}
}

func assertEmpty(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case n := <-s.C:
		t.Fatalf("notificación inesperada: %s", n.Title)
	default:
	}
}

func TestBroadcast_FiltraPorEmpresaYUsuario(t *testing.T) {
	h := NewHub(4, nil)
	defer h.Close()

	ana := h.Subscribe("c1", "u-ana")
	luis := h.Subscribe("c1", "u-luis")
	otra := h.Subscribe("c2", "u-x")

	h.Broadcast(note("c1", nil, "para todos"))
	target := "u-ana"
	h.Broadcast(note("c1", &target, "solo ana"))

	assert.Equal(t, "para todos", recv(t, ana).Title)
	assert.Equal(t, "solo ana", recv(t, ana).Title)
	assert.Equal(t, "para todos", recv(t, luis).Title)
	assertEmpty(t, luis)
	assertEmpty(t, otra)
}

func TestBroadcast_ClienteLentoNoBloquea(t *testing.T) {
	h := NewHub(1, nil)
	defer h.Close()
	s := h.Subscribe("c1", "u1")

	h.Broadcast(note("c1", nil, "1"))
	h.Broadcast(note("c1", nil, "2"))

	assert.Equal(t, "1", recv(t, s).Title)
	assertEmpty(t, s)
}

func TestCancel_CierraCanalYLimpia(t *testing.T) {
	h := NewHub(0, nil)
	s := h.Subscribe("c1", "u1")
	assert.Equal(t, 1, h.Count("c1"))

	s.Cancel()
	s.Cancel()
	_, ok := <-s.C
	assert.False(t, ok)
	assert.Equal(t, 0, h.Count("c1"))

	h.Close()
	h.Close()
	late := h.Subscribe("c1", "u1")
	_, ok = <-late.C
	assert.False(t, ok)
	late.Cancel()
}

func TestConcurrente_SinFugas(t *testing.T) {
	h := NewHub(8, nil)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		s := h.Subscribe("c1", "u1")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range s.C {
			}
		}()
	}
	for i := 0; i < 50; i++ {
		h.Broadcast(note("c1", nil, "n"))
	}
	h.Close()
	wg.Wait()
}
