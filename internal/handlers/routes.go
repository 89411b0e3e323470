package handlers

import (
	"database/sql"

	"pontifex-go/internal/config"
	"pontifex-go/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes wires account endpoints.
func RegisterAuthRoutes(rg *gin.RouterGroup, db *sql.DB, cfg config.Config) {
	rg.POST("/auth/register", RegisterHandler(db, cfg))
	rg.POST("/auth/login", LoginHandler(db, cfg))
	rg.GET("/auth/me", middleware.RequireAuth(cfg), MeHandler(db))
	rg.POST("/auth/logout", LogoutHandler(cfg))
}

// RegisterKeyRoutes wires named key-deck endpoints.
func RegisterKeyRoutes(rg *gin.RouterGroup, db *sql.DB) {
	rg.GET("/keys", ListKeysHandler(db))
	rg.POST("/keys", CreateKeyHandler(db))
	rg.GET("/keys/:id", GetKeyHandler(db))
	rg.DELETE("/keys/:id", DeleteKeyHandler(db))
}

// RegisterSessionRoutes wires persistent keystream session endpoints.
func RegisterSessionRoutes(rg *gin.RouterGroup, db *sql.DB, cfg config.Config) {
	rg.GET("/sessions", ListSessionsHandler(db))
	rg.POST("/sessions", CreateSessionHandler(db))
	rg.GET("/sessions/:id", GetSessionHandler(db))
	rg.DELETE("/sessions/:id", DeleteSessionHandler(db))
	rg.POST("/sessions/:id/keystream", DrawKeystreamHandler(db))
	rg.POST("/sessions/:id/encrypt", SessionEncryptHandler(db, cfg))
	rg.POST("/sessions/:id/decrypt", SessionDecryptHandler(db, cfg))
}

// RegisterCipherRoutes wires the one-shot encrypt/decrypt endpoints.
func RegisterCipherRoutes(rg *gin.RouterGroup, db *sql.DB, cfg config.Config) {
	rg.POST("/cipher/encrypt", EncryptHandler(db, cfg))
	rg.POST("/cipher/decrypt", DecryptHandler(db, cfg))
}
