package controllers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"agriaid/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		log.Printf("write websocket json: %v", err)
	}
	return err
}

// QuestionsFeed streams live question snapshots to a UI client. Each
// connection gets its own change feed; the feed is torn down when the client
// disconnects or the session is revoked. The token comes as a query
// parameter since browsers cannot set headers on websocket requests.
func QuestionsFeed(ctx *gin.Context) {
	token := ctx.Query("token")
	ident, err := gate.Identify(token)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	wctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	revoked, err := gate.WatchRevoked(wctx, token)
	if err != nil {
		fail(ctx, err)
		return
	}

	ws, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Printf("upgrade websocket: %v", err)
		return
	}
	defer ws.Close()
	log.Printf("questions feed opened for %s", ident.ID)

	feed, err := services.OpenChangeFeed(wctx, docStore)
	if err != nil {
		sendJSON(ws, gin.H{"type": "error", "error": err.Error()})
		return
	}
	defer feed.Close()

	// read pump, only to notice the client going away
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-clientGone:
			return
		case <-revoked:
			sendJSON(ws, gin.H{"type": "signed_out"})
			return
		case ev, ok := <-feed.Events():
			if !ok {
				return
			}
			if ev.Err != nil {
				// degraded state; the client decides whether to reconnect
				sendJSON(ws, gin.H{"type": "error", "error": ev.Err.Error()})
				return
			}
			if sendJSON(ws, gin.H{"type": "snapshot", "questions": ev.Snapshot}) != nil {
				return
			}
		}
	}
}
