package server

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// wsWriteTimeout bounds each outbound websocket write.
const wsWriteTimeout = 10 * time.Second

// wsEvent is one progress or terminal frame on the render socket.
type wsEvent struct {
	Event  string `json:"event"`
	STL    string `json:"stl,omitempty"`
	Script string `json:"script,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// handleRenderWS accepts one render request over a websocket and streams
// job lifecycle events while the compilation runs, finishing with a single
// terminal frame.
func (s *Server) handleRenderWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	ctx := r.Context()

	var req renderRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		conn.Close(websocket.StatusInvalidFramePayloadData, "invalid request frame")
		return
	}

	send := func(ev wsEvent) {
		wctx, cancel := timeoutCtx(ctx, wsWriteTimeout)
		defer cancel()
		if err := wsjson.Write(wctx, conn, ev); err != nil {
			s.log.Debug("render socket write failed", zap.Error(err))
		}
	}

	result, err := s.engine.RenderObserved(ctx, req.Script, func(event string) {
		send(wsEvent{Event: event})
	})
	if err != nil {
		ev := wsEvent{Event: "failed", Error: err.Error()}
		if kind, ok := kindOf(err); ok {
			ev.Kind = kind
		}
		send(ev)
		conn.Close(websocket.StatusNormalClosure, "done")
		return
	}

	send(wsEvent{
		Event:  "done",
		STL:    encodeArtifact(result.Bytes),
		Script: result.ScriptText,
	})
	conn.Close(websocket.StatusNormalClosure, "done")
}
