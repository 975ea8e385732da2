package server

import (
	"encoding/json"

	"github.com/lxzan/gws"
	"go.uber.org/zap"

	"github.com/soar/joymidi/internal/hub"
)

const clientKey = "client"

// wsHandler attaches each websocket to the hub.
type wsHandler struct {
	gws.BuiltinEventHandler
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	logger      *zap.SugaredLogger
}

func (h *wsHandler) OnOpen(socket *gws.Conn) {
	client := hub.NewClient(socket, h.logger)
	socket.Session().Store(clientKey, client)
	h.hub.Register(client)
	h.broadcaster.SendInitialState(client)
	go client.WritePump()
}

func (h *wsHandler) OnClose(socket *gws.Conn, err error) {
	if client, ok := clientOf(socket); ok {
		h.hub.Unregister(client)
	}
	h.logger.Debugw("websocket closed", "error", err)
}

func (h *wsHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	var msg hub.ClientMessage
	if err := json.Unmarshal(message.Bytes(), &msg); err != nil {
		h.logger.Debugw("ignoring client message", "error", err)
		return
	}
	switch msg.Type {
	case "sync":
		if client, ok := clientOf(socket); ok {
			h.broadcaster.SendInitialState(client)
		}
	}
}

func clientOf(socket *gws.Conn) (*hub.Client, bool) {
	v, ok := socket.Session().Load(clientKey)
	if !ok {
		return nil, false
	}
	client, ok := v.(*hub.Client)
	return client, ok
}
