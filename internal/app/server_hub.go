package server

import (
	"encoding/json"
	"log"
	"sync"
)

// wsFrame is the envelope for every frame in either direction.
type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// peer serializes writes to one connected client. The mutex guards the
// encoder because broadcasts and direct replies come from different
// goroutines.
type peer struct {
	mu      sync.Mutex
	id      string
	encoder *json.Encoder
}

func newPeer(id string, encoder *json.Encoder) *peer {
	return &peer{id: id, encoder: encoder}
}

func (p *peer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// hub tracks the connected client set for broadcast fan-out.
//
// There is no delivery guarantee: a write that fails is dropped for that
// peer, which self-heals on its next full reload.
type hub struct {
	mu    sync.Mutex
	peers map[*peer]struct{}
}

func newHub() *hub {
	return &hub{peers: make(map[*peer]struct{})}
}

func (h *hub) register(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) unregister(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
}

// broadcast fans a frame out to every connected peer, optionally skipping
// the originator.
func (h *hub) broadcast(frame wsFrame, except *peer) {
	h.mu.Lock()
	targets := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		if p == except {
			continue
		}
		targets = append(targets, p)
	}
	h.mu.Unlock()

	for _, target := range targets {
		if err := target.writeFrame(frame); err != nil {
			log.Printf("hub: dropped %s frame for client %s: %v", frame.Type, target.id, err)
		}
	}
}

func writeWSError(p *peer, requestID string, code string, message string) error {
	return p.writeFrame(wsFrame{
		Type:      frameError,
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{
				Code:      code,
				Message:   message,
				Retryable: false,
			},
		}),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
