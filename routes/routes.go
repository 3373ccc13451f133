package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xrpscan/tezsync/controllers"
	"github.com/xrpscan/tezsync/socketio"
)

func Add(e *echo.Echo, syncer controllers.AccountSyncer, hub *socketio.Hub) {
	accountController := controllers.NewAccountController(syncer)

	e.GET("/health", accountController.Health)
	e.GET("/account/:address", accountController.GetAccount)
	e.POST("/account/:address/sync", accountController.SyncAccount)
	e.GET("/account/:address/operations", controllers.GetStoredOperations)

	e.Any("/socket.io/", echo.WrapHandler(http.HandlerFunc(hub.HandleSocketIO)))
	e.Any("/socket.io/*", echo.WrapHandler(http.HandlerFunc(hub.HandleSocketIO)))

	e.GET("/socketio/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "socketio",
			"clients": hub.ClientCount(),
		})
	})
}
