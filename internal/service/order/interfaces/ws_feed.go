// internal/service/order/interfaces/ws_feed.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"emporium/internal/pkg/logger"
	"emporium/internal/service/order/domain"
	"emporium/internal/service/order/domain/port"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// 慢客户端的发送缓冲，塞满了就踢掉，不让它拖住广播
	clientBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 管理后台同源部署，这里放开
		return true
	},
}

// feedMessage 推给前端的事件信封。
type feedMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// FeedHub 维护所有订阅订单事件的 websocket 连接，并把领域事件广播出去。
// 它同时实现了 port.EventPublisher，和 Kafka 发布方并列挂在 Fanout 上。
type FeedHub struct {
	mu      sync.RWMutex
	clients map[*feedClient]struct{}

	register   chan *feedClient
	unregister chan *feedClient
	broadcast  chan feedMessage
	done       chan struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients:    make(map[*feedClient]struct{}),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		broadcast:  make(chan feedMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run 驱动 hub 的注册/注销/广播循环，放在单独的 goroutine 里。
func (h *FeedHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.removeClient(c)
		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				logger.L().Error().Err(err).Msg("failed to marshal feed message")
				continue
			}
			h.mu.RLock()
			var stale []*feedClient
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					stale = append(stale, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range stale {
				h.removeClient(c)
			}
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Close 停止广播循环并断开所有客户端。
func (h *FeedHub) Close() {
	close(h.done)
}

func (h *FeedHub) removeClient(c *feedClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// clientCount 测试用。
func (h *FeedHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS 把 HTTP 连接升级成 websocket 并纳入 hub。
func (h *FeedHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &feedClient{hub: h, conn: conn, send: make(chan []byte, clientBuffer)}
	h.register <- c
	go c.writePump()
	go c.readPump()
}

// PublishOrderPlaced 实现 port.EventPublisher。
func (h *FeedHub) PublishOrderPlaced(_ context.Context, event *domain.OrderPlaced) {
	h.enqueue(feedMessage{Type: "order.placed", Payload: event})
}

func (h *FeedHub) PublishOrderStatusChanged(_ context.Context, event *domain.OrderStatusChanged) {
	h.enqueue(feedMessage{Type: "order.status_changed", Payload: event})
}

func (h *FeedHub) PublishOrderCancelled(_ context.Context, event *domain.OrderCancelled) {
	h.enqueue(feedMessage{Type: "order.cancelled", Payload: event})
}

func (h *FeedHub) enqueue(msg feedMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// 广播队列满说明没有消费者在跑，丢弃而不是阻塞业务路径
	}
}

var _ port.EventPublisher = (*FeedHub)(nil)

// feedClient 是一个 websocket 连接的代表
type feedClient struct {
	hub  *FeedHub
	conn *websocket.Conn
	send chan []byte
}

// writePump 把 send channel 里的消息写入连接，顺带周期性 ping。
func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只消费心跳/关闭帧，订阅方不向服务端发业务消息。
func (c *feedClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
