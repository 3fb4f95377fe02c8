package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"foodshare/internal/listing"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 64 // 单个客户端积压上限，超过即断开
)

// client 每个连接一个发送队列和一个写协程，广播方只做非阻塞入队
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub 把 listing store 的变更推送给所有 websocket 客户端
type EventHub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	now      func() time.Time
	log      *zap.Logger
}

func NewEventHub(l *zap.Logger, now func() time.Time) *EventHub {
	if l == nil {
		l = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &EventHub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		now: now,
		log: l.Named("events"),
	}
}

// Attach 订阅 store，返回取消函数
func (h *EventHub) Attach(s *listing.Store) (cancel func()) { return s.Subscribe(h.Broadcast) }

// Serve 升级连接并阻塞到客户端断开
func (h *EventHub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(cl)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(cl)
}

func (h *EventHub) writeLoop(cl *client) {
	defer cl.conn.Close()
	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(cl)
			return
		}
	}
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Broadcast 从不阻塞：队列满的客户端直接断开
func (h *EventHub) Broadcast(ev listing.Event) {
	ev.Item.Status = ev.Item.EffectiveStatus(h.now())
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			h.log.Warn("dropping slow websocket client", zap.String("remote", cl.conn.RemoteAddr().String()))
			h.remove(cl)
			_ = cl.conn.Close()
		}
	}
}

func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		h.remove(cl)
	}
}

func (h *EventHub) drop(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(cl)
}

// remove 调用方持有 mu；关闭 send 让写协程收尾并关闭连接
func (h *EventHub) remove(cl *client) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

// EventModule GET /events，任意已登录角色
type EventModule struct{ d Deps }

func NewEventModule(d Deps) *EventModule { return &EventModule{d: d} }

func (m *EventModule) Priority() int { return 50 }

func (m *EventModule) MountAPI(api *gin.RouterGroup) {
	if m.d.Hub == nil {
		return
	}
	m.d.authed(api).GET("/events", func(c *gin.Context) {
		m.d.Hub.Serve(c.Writer, c.Request)
	})
}
