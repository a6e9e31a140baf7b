package main

import (
	"context"
	"sync"
	"time"

	"grievance-portal/pkg/events"

	"github.com/prometheus/client_golang/prometheus"
)

// Push is what a connected browser receives. Mail-only fields stay behind.
type Push struct {
	ID          string    `json:"id,omitempty"`
	Type        string    `json:"type"`
	GrievanceID string    `json:"grievance_id,omitempty"`
	Title       string    `json:"title,omitempty"`
	Status      string    `json:"status,omitempty"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

func pushOf(n events.Notification) Push {
	return Push{
		ID:          n.ID,
		Type:        n.Type,
		GrievanceID: n.GrievanceID,
		Title:       n.Title,
		Status:      n.Status,
		Message:     n.Subject,
		CreatedAt:   n.CreatedAt,
	}
}

// Subscriber is one open connection for one account.
type Subscriber struct {
	UserID string
	Send   chan Push
}

func NewSubscriber(userID string) *Subscriber {
	return &Subscriber{UserID: userID, Send: make(chan Push, 16)}
}

// Hub fans notifications out to the subscribers they address. A user may
// hold several connections at once.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]struct{}

	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan events.Notification
	done       chan struct{}

	connected prometheus.Gauge
	pushed    *prometheus.CounterVec
}

func NewHub(reg prometheus.Registerer) *Hub {
	h := &Hub{
		subscribers: make(map[string]map[*Subscriber]struct{}),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan events.Notification, 100),
		done:        make(chan struct{}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inapp_connected_clients",
			Help: "Open in-app notification connections.",
		}),
		pushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inapp_pushes_total",
			Help: "In-app notifications handed to subscribers, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(h.connected, h.pushed)
	return h
}

// Run owns subscriber bookkeeping until ctx is cancelled, then closes every
// open subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.subscribers {
				for s := range set {
					close(s.Send)
				}
			}
			h.subscribers = make(map[string]map[*Subscriber]struct{})
			h.mu.Unlock()
			h.connected.Set(0)
			return

		case s := <-h.register:
			h.mu.Lock()
			set, ok := h.subscribers[s.UserID]
			if !ok {
				set = make(map[*Subscriber]struct{})
				h.subscribers[s.UserID] = set
			}
			set[s] = struct{}{}
			h.mu.Unlock()
			h.connected.Inc()

		case s := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.subscribers[s.UserID]; ok {
				if _, ok := set[s]; ok {
					delete(set, s)
					close(s.Send)
					h.connected.Dec()
				}
				if len(set) == 0 {
					delete(h.subscribers, s.UserID)
				}
			}
			h.mu.Unlock()

		case n := <-h.broadcast:
			h.deliver(n)
		}
	}
}

func (h *Hub) deliver(n events.Notification) {
	p := pushOf(n)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range n.UserIDs {
		for s := range h.subscribers[id] {
			select {
			case s.Send <- p:
				h.pushed.WithLabelValues("delivered").Inc()
			default:
				h.pushed.WithLabelValues("dropped").Inc()
			}
		}
	}
}

// Register adds s to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(s *Subscriber) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Publish queues n for delivery. It blocks only while the broadcast buffer
// is full and the hub is still running.
func (h *Hub) Publish(n events.Notification) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- n:
		return true
	case <-h.done:
		return false
	}
}

// Connected reports how many connections the user currently holds.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.subscribers {
		total += len(set)
	}
	return total
}
