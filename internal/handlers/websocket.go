package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pontifex-go/internal/auth"
	"pontifex-go/internal/config"
	ws "pontifex-go/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			// Non-browser clients (no Origin) are allowed.
			return true
		}
		if cfgDevAllowAll() {
			return true
		}
		if cfgIsDev() {
			return isLocalhostOrigin(origin) || isAllowedOrigin(origin)
		}
		return isAllowedOrigin(origin)
	},
}

// set by config at startup
var originMu sync.RWMutex
var allowedOrigins = map[string]bool{}
var devMode = false
var devAllowAll = false

func SetWebSocketOriginPolicy(isDev bool, allowAllDev bool, origins []string) {
	originMu.Lock()
	defer originMu.Unlock()
	devMode = isDev
	devAllowAll = allowAllDev
	allowedOrigins = map[string]bool{}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			allowedOrigins[o] = true
		}
	}
}

func cfgIsDev() bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return devMode
}
func cfgDevAllowAll() bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return devMode && devAllowAll
}
func isAllowedOrigin(origin string) bool {
	originMu.RLock()
	defer originMu.RUnlock()
	return allowedOrigins[origin]
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

type wsDrawMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// WebSocketHandler upgrades the connection and attaches it to a cipher
// session's room. Watchers receive every draw broadcast for the session and
// may draw themselves by sending {"type":"draw","count":n}.
func WebSocketHandler(hubProvider func() (*ws.Hub, bool), db *sql.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromHeaderOrQuery(c, cfg)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseAndValidateToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// Preconditions before attempting the upgrade so we can return HTTP
		// errors normally.
		session, err := loadOwnedSession(db, strings.TrimSpace(c.Query("session")), claims.UserID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		hub, ok := hubProvider()
		if !ok || hub == nil {
			log.Printf("WebSocketHandler hubProvider returned nil: user_id=%d session=%d", claims.UserID, session.ID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			log.Printf("ws upgrade failed: user_id=%d err=%v", claims.UserID, err)
			return
		}

		client := ws.NewClient(conn, hub, sessionRoom(session.ID), claims.UserID)
		hub.Register(client)

		go client.WritePump()
		client.ReadPump(func(raw []byte) {
			var msg wsDrawMessage
			if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "draw" {
				sendToClient(client, "error", gin.H{"error": "expected {\"type\":\"draw\",\"count\":n}"})
				return
			}
			// drawFromSession broadcasts the values to the whole room,
			// this client included.
			if _, _, err := drawFromSession(db, session.ID, msg.Count); err != nil {
				sendToClient(client, "error", gin.H{"error": err.Error()})
			}
		})
	}
}

func sendToClient(c *ws.Client, typ string, payload any) {
	data, err := json.Marshal(map[string]any{
		"type":      typ,
		"payload":   payload,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

func tokenFromHeaderOrQuery(c *gin.Context, cfg config.Config) string {
	if v, err := c.Cookie(auth.AuthCookieName); err == nil {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	if authz := c.GetHeader("Authorization"); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	// Query tokens show up in access logs; only honored when explicitly
	// enabled (browser WebSocket clients cannot set headers).
	if cfg.WSAllowQueryTokens || cfg.AppEnv == "development" {
		return strings.TrimSpace(c.Query("token"))
	}
	return ""
}
