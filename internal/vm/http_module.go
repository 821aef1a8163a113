package vm

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// httpClient is shared by every VM; requests time out after five seconds so
// a stuck endpoint cannot hang the interpreter loop.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// socketTable tracks the open WebSocket connections of one VM, keyed by the
// numeric handle handed to scripts.
type socketTable struct {
	mu    sync.Mutex
	conns map[float64]*websocket.Conn
	next  float64
}

func newSocketTable() *socketTable {
	return &socketTable{conns: make(map[float64]*websocket.Conn)}
}

func (t *socketTable) add(conn *websocket.Conn) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.conns[t.next] = conn
	return t.next
}

func (t *socketTable) get(id float64) (*websocket.Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conn, ok := t.conns[id]
	return conn, ok
}

func (t *socketTable) remove(id float64) (*websocket.Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conn, ok := t.conns[id]
	if ok {
		delete(t.conns, id)
	}
	return conn, ok
}

func (t *socketTable) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, conn := range t.conns {
		conn.Close()
	}
	t.conns = make(map[float64]*websocket.Conn)
}

func (vm *VM) registerHTTPModule() {
	vm.nativeModules["http"] = map[string]Value{
		"get": native("get", 1, func(args []Value) (Value, error) {
			url, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("http.get expects a string URL")
			}
			resp, err := httpClient.Get(url)
			if err != nil {
				return nil, fmt.Errorf("http.get failed: %v", err)
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("http.get failed reading body: %v", err)
			}
			return NewDict(map[Value]Value{
				"status": float64(resp.StatusCode),
				"body":   string(body),
			}), nil
		}),
		"post": native("post", 2, func(args []Value) (Value, error) {
			url, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("http.post expects a string URL")
			}
			payload := ToString(args[1])
			contentType := "text/plain"
			if strings.HasPrefix(strings.TrimSpace(payload), "{") ||
				strings.HasPrefix(strings.TrimSpace(payload), "[") {
				contentType = "application/json"
			}
			resp, err := httpClient.Post(url, contentType, strings.NewReader(payload))
			if err != nil {
				return nil, fmt.Errorf("http.post failed: %v", err)
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("http.post failed reading body: %v", err)
			}
			return NewDict(map[Value]Value{
				"status": float64(resp.StatusCode),
				"body":   string(body),
			}), nil
		}),
		"ws_connect": native("ws_connect", 1, vm.wsConnect),
		"ws_send":    native("ws_send", 2, vm.wsSend),
		"ws_recv":    native("ws_recv", 1, vm.wsRecv),
		"ws_close":   native("ws_close", 1, vm.wsClose),
	}
}

func (vm *VM) wsConnect(args []Value) (Value, error) {
	url, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("http.ws_connect expects a string URL")
	}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws_connect failed: %v", err)
	}
	return vm.sockets.add(conn), nil
}

func (vm *VM) wsSend(args []Value) (Value, error) {
	id, ok := args[0].(float64)
	if !ok {
		return nil, fmt.Errorf("http.ws_send expects a connection handle")
	}
	conn, ok := vm.sockets.get(id)
	if !ok {
		return nil, fmt.Errorf("unknown WebSocket connection %g", id)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ToString(args[1]))); err != nil {
		return nil, fmt.Errorf("ws_send failed: %v", err)
	}
	return true, nil
}

func (vm *VM) wsRecv(args []Value) (Value, error) {
	id, ok := args[0].(float64)
	if !ok {
		return nil, fmt.Errorf("http.ws_recv expects a connection handle")
	}
	conn, ok := vm.sockets.get(id)
	if !ok {
		return nil, fmt.Errorf("unknown WebSocket connection %g", id)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("ws_recv failed: %v", err)
	}
	return string(message), nil
}

func (vm *VM) wsClose(args []Value) (Value, error) {
	id, ok := args[0].(float64)
	if !ok {
		return nil, fmt.Errorf("http.ws_close expects a connection handle")
	}
	conn, ok := vm.sockets.remove(id)
	if !ok {
		return nil, fmt.Errorf("unknown WebSocket connection %g", id)
	}
	conn.Close()
	return true, nil
}
