// Package ws pushes submission events to connected admin dashboards.
// Delivery is best effort: slow or gone clients are dropped, nothing
// is queued for later.
package ws

// Hub fans messages out to every registered client. All client-set
// mutation happens on the Run goroutine.
type Hub struct {
	Broadcast chan []byte

	register   chan *Client
	unregister chan *Client
	clients    map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// client can't keep up
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}
