package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/arielwu/deskpulse/internal/api/handlers"
	"github.com/arielwu/deskpulse/internal/api/middleware"
)

type Deps struct {
	JWTSecret string

	State   *handlers.StateHandler
	History *handlers.HistoryHandler
	Session *handlers.SessionHandler
	WS      *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWTSecret))

	auth.GET("/state/:user_id", d.State.Get)

	auth.GET("/history/:user_id", d.History.List)
	auth.POST("/history/:user_id/event", d.History.AppendEvent)
	auth.GET("/report/:user_id", d.History.Report)

	auth.POST("/session/join", d.Session.Join)
	auth.GET("/session/:user_id", d.Session.Get)
	auth.POST("/session/:user_id/offer", d.Session.Offer)
	auth.POST("/session/:user_id/capture/start", d.Session.StartCapture)
	auth.POST("/session/:user_id/capture/stop", d.Session.StopCapture)
	auth.POST("/session/:user_id/close", d.Session.Close)
	auth.POST("/detect/:user_id", d.Session.Detect)

	auth.GET("/ws/session/:user_id", d.WS.SessionWS)
}
