// Package uibridge is the local server the dashboard frontend connects to.
// It pushes refresh events and notification updates over a websocket and
// serves current scope snapshots over HTTP.
package uibridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/cors"
	"github.com/sasha-s/go-deadlock"

	"orgmachine/engine/notifications"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = pongWait / 2

	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Inbound is what the frontend sends up the socket. The only message today
// is the wallet state, reported on connect and whenever the user switches
// accounts or chains.
type Inbound struct {
	Type      string `json:"type"`
	Address   string `json:"address"`
	ChainID   int64  `json:"chainId"`
	HasSigner bool   `json:"hasSigner"`
}

// Frame is one JSON message pushed to the frontend.
type Frame struct {
	Type          string                       `json:"type"`
	Event         refreshbus.Event             `json:"event,omitempty"`
	Data          map[string]interface{}       `json:"data,omitempty"`
	TimestampMs   int64                        `json:"timestampMs,omitempty"`
	Notifications []notifications.Notification `json:"notifications,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Frame
}

// Bridge fans refresh events and notification snapshots out to every
// connected frontend and exposes scope snapshots over HTTP.
type Bridge struct {
	mutex     *deadlock.Mutex
	clients   map[*client]bool
	router    *mux.Router
	snapshots map[string]func() interface{}
	onWallet  func(orgmachine.WalletState)
}

func New(bus *refreshbus.Bus, list *notifications.List) *Bridge {
	b := &Bridge{
		mutex:     &deadlock.Mutex{},
		clients:   make(map[*client]bool),
		router:    mux.NewRouter(),
		snapshots: make(map[string]func() interface{}),
	}
	// catch the websocket call before anything else
	b.router.Path("/").Headers("Upgrade", "websocket").HandlerFunc(b.handleWebsocket)
	b.router.Path("/scopes/{name}").Methods("GET").HandlerFunc(b.handleSnapshot)

	bus.Subscribe(refreshbus.Wildcard, func(p refreshbus.Payload) {
		b.broadcast(Frame{
			Type:        "refresh",
			Event:       p.Event,
			Data:        p.Data,
			TimestampMs: p.TimestampMs,
		})
	})
	list.OnChange(func(items []notifications.Notification) {
		b.broadcast(Frame{Type: "notifications", Notifications: items})
	})
	return b
}

// OnWallet registers the handler for wallet frames arriving from the
// frontend. The wiring layer feeds these into the global wallet state and
// the user scope's parameters.
func (b *Bridge) OnWallet(fn func(orgmachine.WalletState)) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.onWallet = fn
}

// Serve registers a scope snapshot under GET /scopes/<name>.
func (b *Bridge) Serve(name string, snapshot func() interface{}) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.snapshots[name] = snapshot
}

// Start runs the server until terminate closes.
func (b *Bridge) Start(terminate chan struct{}, wg *sync.WaitGroup) {
	addr := orgmachine.MakeOrGetConfig().GetString("websocketAddr")
	srv := &http.Server{
		Handler:           cors.Default().Handler(b.router),
		Addr:              addr,
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	wg.Add(1)
	go func() {
		<-terminate
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		b.closeAll()
		wg.Done()
	}()
	go func() {
		orgmachine.LogCLI("uibridge listening on "+addr, 4)
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			orgmachine.LogCLI(err.Error(), 0)
		}
	}()
}

func (b *Bridge) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	b.mutex.Lock()
	snapshot, ok := b.snapshots[name]
	b.mutex.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(snapshot())
	if err != nil {
		orgmachine.LogCLI(err, 1)
		http.Error(w, "marshalling failed", http.StatusInternalServerError)
		return
	}
	w.Write(body)
}

func (b *Bridge) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		orgmachine.LogCLI("failed to upgrade websocket", 3)
		return
	}
	c := &client{conn: conn, send: make(chan Frame, 64)}
	b.mutex.Lock()
	b.clients[c] = true
	b.mutex.Unlock()

	// reader: wallet frames come up this way; everything else is control
	// traffic we drain to notice the close
	go func() {
		defer b.drop(c)
		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					orgmachine.LogCLI("unexpected close of websocket", 3)
				}
				return
			}
			var inbound Inbound
			if err := json.Unmarshal(message, &inbound); err != nil {
				orgmachine.LogCLI("undecodable frame from frontend", 3)
				continue
			}
			if inbound.Type == "wallet" {
				b.mutex.Lock()
				handler := b.onWallet
				b.mutex.Unlock()
				if handler != nil {
					handler(orgmachine.WalletState{
						Address:   inbound.Address,
						ChainID:   inbound.ChainID,
						HasSigner: inbound.HasSigner,
					})
				}
			}
		}
	}()

	// writer
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			b.drop(c)
		}()
		for {
			select {
			case frame, ok := <-c.send:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(frame); err != nil {
					orgmachine.LogCLI(err.Error(), 3)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					orgmachine.LogCLI("couldn't ping, exterminating socket", 3)
					return
				}
			}
		}
	}()
}

func (b *Bridge) broadcast(frame Frame) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for c := range b.clients {
		select {
		case c.send <- frame:
		default:
			orgmachine.LogCLI(fmt.Sprintf("dropping slow uibridge client %s", c.conn.RemoteAddr()), 3)
		}
	}
}

func (b *Bridge) drop(c *client) {
	b.mutex.Lock()
	if _, live := b.clients[c]; live {
		delete(b.clients, c)
		close(c.send)
	}
	b.mutex.Unlock()
	c.conn.Close()
}

func (b *Bridge) closeAll() {
	b.mutex.Lock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mutex.Unlock()
	for _, c := range clients {
		b.drop(c)
	}
}

// ClientCount reports connected frontends.
func (b *Bridge) ClientCount() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.clients)
}
