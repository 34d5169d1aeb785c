package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/coupon-studio/backend/internal/editor"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types for the editor protocol
const (
	// Client -> Server messages
	MsgTypePointerDown    = "pointer:down"
	MsgTypePointerMove    = "pointer:move"
	MsgTypePointerUp      = "pointer:up"
	MsgTypePointerLeave   = "pointer:leave"
	MsgTypeZoomSet        = "zoom:set"
	MsgTypeModeSet        = "mode:set"
	MsgTypeTogglesSet     = "toggles:set"
	MsgTypeFieldUpdate    = "field:update"
	MsgTypeFieldSelect    = "field:select"
	MsgTypePreviewRequest = "preview:request"
	MsgTypeSave           = "save"
	MsgTypePing           = "ping"

	// Server -> Client messages
	MsgTypeState   = "state"
	MsgTypePreview = "preview"
	MsgTypeSaved   = "saved"
	MsgTypeError   = "error"
	MsgTypePong    = "pong"
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Pointer event payload, view-space coordinates
type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zoom payload
type ZoomPayload struct {
	Zoom float64 `json:"zoom"`
}

// Edit mode payload
type ModePayload struct {
	EditMode bool `json:"editMode"`
}

// Toggle payload
type TogglesPayload struct {
	QREnabled     bool `json:"qrEnabled"`
	AmountVisible bool `json:"amountVisible"`
}

// Field update payload
type FieldUpdatePayload struct {
	FieldID string           `json:"fieldId"`
	Edit    editor.FieldEdit `json:"edit"`
}

// Field select payload
type FieldSelectPayload struct {
	FieldID string `json:"fieldId"`
}

// WSPreviewResponse carries a PNG preview as base64
type WSPreviewResponse struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   string `json:"data"` // Base64-encoded PNG
}

// WSErrorResponse is the error payload
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler bridges one WebSocket connection to one edit session,
// so drag gestures avoid per-event HTTP overhead.
type WebSocketHandler struct {
	editor   *EditorHandlerImpl
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new editor WebSocket handler
func NewWebSocketHandler(editorH *EditorHandlerImpl) *WebSocketHandler {
	return &WebSocketHandler{
		editor: editorH,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// wsConn serializes writes; gorilla connections allow one writer at a time.
type wsConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) sendJSON(v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(v); err != nil {
		fmt.Printf("[WebSocket] write failed: %v\n", err)
	}
}

// HandleEditorSocket upgrades the connection and runs the editor protocol
// against the session named in the path.
func (wsh *WebSocketHandler) HandleEditorSocket(c echo.Context) error {
	sessionID := c.Param("sessionId")
	s, ok := wsh.editor.sessionByID(sessionID)
	if !ok {
		return NewNotFoundError("session", sessionID)
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	conn := &wsConn{ws: ws}
	fmt.Printf("[WebSocket] editor client connected (session %s)\n", sessionID[:8])

	// Initial state so the client can draw immediately.
	wsh.sendState(conn, s)

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("[WebSocket] connection error: %v\n", err)
			}
			break
		}

		wsh.editor.manager.TouchSession(sessionID)
		wsh.dispatch(conn, s, msg)
	}

	fmt.Printf("[WebSocket] editor client disconnected (session %s)\n", sessionID[:8])
	return nil
}

func (wsh *WebSocketHandler) dispatch(conn *wsConn, s *editor.Session, msg WSMessage) {
	switch msg.Type {
	case MsgTypePing:
		conn.sendJSON(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})

	case MsgTypePointerDown, MsgTypePointerMove:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			wsh.sendError(conn, "invalid pointer payload: "+err.Error(), "INVALID_PAYLOAD")
			return
		}
		if msg.Type == MsgTypePointerDown {
			s.PointerDown(p.X, p.Y)
		} else {
			s.PointerMove(p.X, p.Y)
		}
		wsh.sendState(conn, s)

	case MsgTypePointerUp:
		s.PointerUp()
		wsh.sendState(conn, s)

	case MsgTypePointerLeave:
		s.PointerLeave()
		wsh.sendState(conn, s)

	case MsgTypeZoomSet:
		var p ZoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			wsh.sendError(conn, "invalid zoom payload: "+err.Error(), "INVALID_PAYLOAD")
			return
		}
		s.SetZoom(p.Zoom)
		wsh.sendState(conn, s)

	case MsgTypeModeSet:
		var p ModePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			wsh.sendError(conn, "invalid mode payload: "+err.Error(), "INVALID_PAYLOAD")
			return
		}
		s.SetEditMode(p.EditMode)
		wsh.sendState(conn, s)

	case MsgTypeTogglesSet:
		var p TogglesPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			wsh.sendError(conn, "invalid toggles payload: "+err.Error(), "INVALID_PAYLOAD")
			return
		}
		s.SetToggles(p.QREnabled, p.AmountVisible)
		wsh.sendState(conn, s)

	case MsgTypeFieldUpdate:
		var p FieldUpdatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			wsh.sendError(conn, "invalid field payload: "+err.Error(), "INVALID_PAYLOAD")
			return
		}
		if err := s.UpdateField(p.FieldID, p.Edit); err != nil {
			wsh.sendError(conn, err.Error(), "FIELD_UPDATE_REJECTED")
			return
		}
		wsh.sendState(conn, s)

	case MsgTypeFieldSelect:
		var p FieldSelectPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			wsh.sendError(conn, "invalid select payload: "+err.Error(), "INVALID_PAYLOAD")
			return
		}
		s.Select(p.FieldID)
		wsh.sendState(conn, s)

	case MsgTypePreviewRequest:
		wsh.sendPreview(conn, s)

	case MsgTypeSave:
		fields := s.Save()
		payload, _ := json.Marshal(map[string]interface{}{"fields": fields})
		conn.sendJSON(WSMessage{Type: MsgTypeSaved, Payload: payload, Timestamp: time.Now().UnixMilli()})

	default:
		wsh.sendError(conn, "Unknown message type: "+msg.Type, "INVALID_TYPE")
	}
}

func (wsh *WebSocketHandler) sendState(conn *wsConn, s *editor.Session) {
	payload, err := json.Marshal(s.State())
	if err != nil {
		wsh.sendError(conn, "failed to encode state", "ENCODE_ERROR")
		return
	}
	conn.sendJSON(WSMessage{Type: MsgTypeState, Payload: payload, Timestamp: time.Now().UnixMilli()})
}

func (wsh *WebSocketHandler) sendPreview(conn *wsConn, s *editor.Session) {
	img := s.RenderPreview()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		wsh.sendError(conn, "failed to encode preview", "ENCODE_ERROR")
		return
	}

	payload, _ := json.Marshal(WSPreviewResponse{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Data:   base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	conn.sendJSON(WSMessage{Type: MsgTypePreview, Payload: payload, Timestamp: time.Now().UnixMilli()})
}

func (wsh *WebSocketHandler) sendError(conn *wsConn, message, code string) {
	payload, _ := json.Marshal(WSErrorResponse{Message: message, Code: code})
	conn.sendJSON(WSMessage{Type: MsgTypeError, Payload: payload, Timestamp: time.Now().UnixMilli()})
}
