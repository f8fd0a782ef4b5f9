package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"projecthub/internal/logging"
	"projecthub/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	socketCommandTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, allowed := range config.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	},
}

// socketCommand is an inbound frame on a project channel. Two commands
// exist: move_task {task_id, status} and assign_task {task_id, user_id}.
type socketCommand struct {
	Action string `json:"action"`
	TaskID int64  `json:"task_id"`
	Status string `json:"status"`
	UserID int64  `json:"user_id"`
}

// handleProjectSocket attaches the caller to the project's channel after the
// view predicate passes. The subscriber then receives every entity-changed
// and action event for that project until the connection drops.
func handleProjectSocket(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Logger.Errorf("websocket upgrade failed: %v", err)

		return
	}

	sub := hub.Subscribe(projectID)

	go writePump(conn, sub)
	readPump(conn, sub, projectID)
}

// writePump is the single writer on the connection. It drains the
// subscriber's queue and keeps the connection alive with pings.
func writePump(conn *websocket.Conn, sub *realtime.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound command frames until the connection dies, then
// detaches the subscriber. Tearing down cancels nothing in flight; the
// subscriber just stops being a fan-out target.
func readPump(conn *websocket.Conn, sub *realtime.Subscriber, projectID int64) {
	defer func() {
		hub.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd socketCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Logger.Debugf("subscriber %s read error: %v", sub.ID, err)
			}

			return
		}

		if err := dispatchCommand(cmd, projectID); err != nil {
			sendErrorFrame(sub, err)
		}
	}
}

// dispatchCommand performs the mutation behind an inbound command and emits
// the explicit action broadcast. The generic entity-changed event fires
// inside the mutation itself, so socket-triggered moves and assigns publish
// twice by design.
func dispatchCommand(cmd socketCommand, projectID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), socketCommandTimeout)
	defer cancel()

	switch cmd.Action {
	case "move_task":
		if err := MoveTask(ctx, projectID, cmd.TaskID, cmd.Status); err != nil {
			return err
		}
		hub.Publish(projectID, realtime.ActionEvent{
			Action:    realtime.ActionTaskMoved,
			TaskID:    cmd.TaskID,
			Status:    cmd.Status,
			Timestamp: time.Now().UTC(),
		})
		return nil

	case "assign_task":
		if _, err := GetUserByID(ctx, cmd.UserID); err != nil {
			return err
		}
		if _, err := GetTask(ctx, projectID, cmd.TaskID); err != nil {
			return err
		}
		if err := AssignTask(ctx, projectID, cmd.TaskID, cmd.UserID); err != nil {
			return err
		}
		hub.Publish(projectID, realtime.ActionEvent{
			Action:    realtime.ActionTaskAssigned,
			TaskID:    cmd.TaskID,
			UserID:    cmd.UserID,
			Timestamp: time.Now().UTC(),
		})
		return nil

	default:
		return &ValidationError{Field: "action", Reason: "unknown command"}
	}
}

// sendErrorFrame queues an error frame for this subscriber only. All writes
// go through the write pump; if the queue is full the frame is dropped.
func sendErrorFrame(sub *realtime.Subscriber, cmdErr error) {
	frame, err := json.Marshal(gin.H{"error": cmdErr.Error()})
	if err != nil {
		return
	}
	select {
	case sub.Send <- frame:
	default:
	}
}
