package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"baby-name-game/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// wsClient serializes writes; gorilla connections allow one concurrent writer.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{groups: make(map[string]map[*wsClient]struct{})}
}

func (h *wsHub) Add(topic string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[topic]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[topic] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(topic string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[topic]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, topic)
	}
}

func (h *wsHub) Broadcast(topic string, payload any) {
	h.mu.Lock()
	group := h.groups[topic]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()
	for _, client := range clients {
		if err := client.send(payload); err != nil {
			h.Remove(topic, client)
		}
	}
}

func (h *wsHub) Count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[topic])
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleGameSocket streams every player and guess change of one game.
func (s *Server) handleGameSocket(c *gin.Context) {
	game, err := s.svc.GetGameByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected game_id=%s remote=%s", game.ID, c.Request.RemoteAddr)
	client := &wsClient{conn: conn}
	topic := realtime.GameTopic(game.ID)
	sub := s.svc.SubscribeGame(game.ID)
	s.ws.Add(topic, client)
	_ = client.send(wsMessage{Type: "snapshot", Data: publicGameFrom(game, s.now())})
	go forwardChanges(sub, client)
	go s.readWS(topic, client, sub)
}

// handlePlayerSocket streams one player's row changes plus timer and summary pushes.
func (s *Server) handlePlayerSocket(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	playerID := uuid.MustParse(uri.ID)
	player, err := s.svc.GetPlayerByID(c.Request.Context(), playerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected player_id=%s remote=%s", player.ID, c.Request.RemoteAddr)
	client := &wsClient{conn: conn}
	topic := realtime.PlayerTopic(player.ID)
	sub := s.svc.SubscribePlayer(player.ID)
	s.ws.Add(topic, client)
	_ = client.send(wsMessage{Type: "snapshot", Data: player})
	if play, ok := s.plays.FindPlayer(player.ID); ok {
		_ = client.send(wsMessage{Type: "timer", Data: play.Snapshot().Elapsed})
	}
	go forwardChanges(sub, client)
	go s.readWS(topic, client, sub)
}

func forwardChanges(sub *realtime.Subscription, client *wsClient) {
	for change := range sub.C {
		if err := client.send(wsMessage{Type: "change", Data: change}); err != nil {
			sub.Close()
			return
		}
	}
}

func (s *Server) readWS(topic string, client *wsClient, sub *realtime.Subscription) {
	defer s.ws.Remove(topic, client)
	defer sub.Close()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected topic=%s error=%v", topic, err)
			return
		}
	}
}
