// internal/realtime/board_hub.go
package realtime

import (
	"context"
	"log"
	"sync"

	"vtask/internal/models"
)

// Lister re-reads the authoritative ordered list of one (owner, status)
// partition. Satisfied by repositories.TaskRepository.
type Lister interface {
	ListByStatus(ctx context.Context, ownerID string, status models.Status) ([]models.Task, error)
}

type partitionKey struct {
	ownerID string
	status  models.Status
}

// Subscription is one live feed of full partition snapshots. The channel
// carries the complete current list on every underlying change; slow readers
// only ever miss intermediate states, never the latest one.
type Subscription struct {
	C <-chan []models.Task

	hub *BoardHub
	key partitionKey
	ch  chan []models.Task
}

// Close releases the subscription. It must be called on teardown; the hub
// holds the only other reference.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// BoardHub fans authoritative partition snapshots out to subscribers. After
// every committed write the services invalidate the touched partitions; the
// hub re-queries and pushes.
type BoardHub struct {
	mu     sync.RWMutex
	lister Lister
	subs   map[partitionKey]map[*Subscription]struct{}
}

func NewBoardHub(lister Lister) *BoardHub {
	return &BoardHub{
		lister: lister,
		subs:   make(map[partitionKey]map[*Subscription]struct{}),
	}
}

// Subscribe opens a feed for one partition and queues its current snapshot
// as the first element.
func (h *BoardHub) Subscribe(ctx context.Context, ownerID string, status models.Status) (*Subscription, error) {
	key := partitionKey{ownerID: ownerID, status: status}
	sub := &Subscription{hub: h, key: key, ch: make(chan []models.Task, 1)}
	sub.C = sub.ch

	snapshot, err := h.lister.ListByStatus(ctx, ownerID, status)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*Subscription]struct{})
	}
	h.subs[key][sub] = struct{}{}
	h.mu.Unlock()

	sub.push(snapshot)
	return sub, nil
}

func (h *BoardHub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.subs[sub.key]; ok {
		delete(conns, sub)
		if len(conns) == 0 {
			delete(h.subs, sub.key)
		}
	}
}

// Invalidate re-queries each given partition and pushes the fresh snapshot
// to its subscribers. Safe to call from any goroutine; partitions without
// subscribers are skipped without a query.
func (h *BoardHub) Invalidate(ownerID string, statuses ...models.Status) {
	for _, status := range statuses {
		key := partitionKey{ownerID: ownerID, status: status}

		h.mu.RLock()
		targets := make([]*Subscription, 0, len(h.subs[key]))
		for sub := range h.subs[key] {
			targets = append(targets, sub)
		}
		h.mu.RUnlock()
		if len(targets) == 0 {
			continue
		}

		snapshot, err := h.lister.ListByStatus(context.Background(), ownerID, status)
		if err != nil {
			log.Printf("[board][hub][err] refresh owner=%s status=%s: %v", ownerID, status, err)
			continue
		}
		for _, sub := range targets {
			sub.push(snapshot)
		}
	}
}

// push delivers a snapshot without blocking: if the subscriber has not
// consumed the previous one, it is replaced. Latest wins.
func (s *Subscription) push(snapshot []models.Task) {
	for {
		select {
		case s.ch <- snapshot:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
