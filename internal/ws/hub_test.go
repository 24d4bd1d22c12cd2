package ws

import (
	"sync"
	"testing"

	"affiliate-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestPublishRoutesByRoleAndOwner(t *testing.T) {
	hub := NewHub()
	admin := &Client{UserID: 1, Role: domain.RoleAdmin, Send: make(chan []byte, 4)}
	owner := &Client{UserID: 2, Role: domain.RoleAffiliate, Send: make(chan []byte, 4)}
	other := &Client{UserID: 3, Role: domain.RoleAffiliate, Send: make(chan []byte, 4)}
	hub.Register(admin)
	hub.Register(owner)
	hub.Register(other)

	hub.Publish(Event{Type: "commission.approved", AffiliateID: 9, UserID: 2})

	assert.Len(t, admin.Send, 1)
	assert.Len(t, owner.Send, 1)
	assert.Len(t, other.Send, 0)
}

func TestPublishDuringCloseDoesNotPanic(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 50; i++ {
		c := &Client{UserID: 1, Role: domain.RoleAdmin, Send: make(chan []byte, 1)}
		hub.Register(c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Publish(Event{Type: "payout.completed", UserID: 1})
		}()
		go func() {
			defer wg.Done()
			c.Close()
		}()
		wg.Wait()
	}
	assert.Zero(t, hub.ClientCount())
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	hub := NewHub()
	slow := &Client{UserID: 1, Role: domain.RoleAdmin, Send: make(chan []byte)}
	hub.Register(slow)

	// Nobody draining the unbuffered channel; Publish must not block.
	hub.Publish(Event{Type: "commission.created", UserID: 1})
	slow.Close()
}
