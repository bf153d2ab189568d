package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/clubwize/backend/src/api/config"
	"github.com/clubwize/backend/src/api/mail"
	"github.com/clubwize/backend/src/api/storage"
)

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client, mailer mail.Service, store storage.Service) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, db, rdb, mailer, store)
	return g
}
