package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/drewmcarthur/guard-patrol/internal/patrol"
	"github.com/drewmcarthur/guard-patrol/internal/repository"
)

type wsMessage struct {
	Type  string          `json:"type"`
	Trial *patrol.Trial   `json:"trial,omitempty"`
	Run   *repository.Run `json:"run,omitempty"`
	Error string          `json:"error,omitempty"`
}

// handleConnectWs analyzes every grid a client sends, streaming each
// obstruction trial as it completes and the run once the search is over.
func (app *application) handleConnectWs(w http.ResponseWriter, r *http.Request) {
	c, err := app.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.log.Error("upgrade: ", err)
		return
	}
	defer c.Close()
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				app.log.Warn("read: ", err)
			}
			break
		}
		if mt != websocket.TextMessage {
			break
		}
		if err := app.streamRun(r.Context(), c, strings.TrimSpace(string(message))); err != nil {
			app.log.Error("write: ", err)
			break
		}
	}
}

func (app *application) streamRun(ctx context.Context, c *websocket.Conn, text string) error {
	grid, err := patrol.Parse(text)
	if err != nil {
		return c.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeErr error
	onTrial := func(t patrol.Trial) {
		if writeErr != nil {
			return
		}
		if writeErr = c.WriteJSON(wsMessage{Type: "trial", Trial: &t}); writeErr != nil {
			cancel()
		}
	}

	run, err := app.compute(ctx, grid, patrol.OnTrial(onTrial))
	if writeErr != nil {
		return writeErr
	}
	if err == nil {
		run, err = app.save(ctx, run)
	}
	if err != nil {
		return c.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
	}
	return c.WriteJSON(wsMessage{Type: "run", Run: run})
}
