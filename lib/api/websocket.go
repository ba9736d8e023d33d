package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(req *http.Request) bool {
		return true
	},
}

// @Summary	Open websocket for realtime status information
// @Router		/api/ws [get]
// @Param		Upgrade	header	string	true	"websocket"
// @Tags		base
// @Success	101
func (a *Api) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("couldn't make websocket: %s", err), 400)
		return
	}
	defer func(ws *websocket.Conn) {
		err := ws.Close()
		if err != nil {
			a.log.Debug("could not close websocket", "err", err)
		}
	}(ws)

	a.wsMu.Lock()
	a.wsClients[ws] = true
	a.Stats.SetWsClients(len(a.wsClients))
	a.wsMu.Unlock()

	go a.websocketWriter(ws)

	for {
		_, _, err := ws.ReadMessage()
		if err != nil {
			a.wsMu.Lock()
			delete(a.wsClients, ws)
			a.Stats.SetWsClients(len(a.wsClients))
			a.wsMu.Unlock()
			break
		}
	}
}

func (a *Api) websocketWriter(ws *websocket.Conn) {
	pingTicker := time.NewTicker(2 * time.Second)
	defer func() {
		pingTicker.Stop()
		err := ws.Close()
		if err != nil {
			return
		}
	}()

	timeout := 10 * time.Second
	for range pingTicker.C {
		packet, err := json.Marshal(a.Stats.Snapshot())
		if err != nil {
			return
		}
		err = ws.SetWriteDeadline(time.Now().Add(timeout))
		if err != nil {
			a.log.Debug("could not set write deadline", "err", err)
			return
		}
		if err := ws.WriteMessage(websocket.TextMessage, packet); err != nil {
			return
		}
	}
}
