package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xrpscan/tezsync/accounts"
	"github.com/xrpscan/tezsync/models"
)

// AccountSyncer is satisfied by *producers.Syncer
type AccountSyncer interface {
	Account(address string) (*models.Account, bool)
	Addresses() []string
	SyncAccount(ctx context.Context, address string) (*models.Account, error)
}

type AccountController struct {
	syncer AccountSyncer
}

func NewAccountController(syncer AccountSyncer) *AccountController {
	return &AccountController{syncer: syncer}
}

// GetAccount returns the last adopted state of a tracked address
// GET /account/:address
func (ac *AccountController) GetAccount(c echo.Context) error {
	address := c.Param("address")
	account, ok := ac.syncer.Account(address)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"status":  http.StatusNotFound,
			"message": "account is not tracked",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "success",
		"data":    account,
	})
}

// SyncAccount synchronizes an address now, tracking it if needed
// POST /account/:address/sync
func (ac *AccountController) SyncAccount(c echo.Context) error {
	address := c.Param("address")
	if address == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "address is required",
		})
	}

	account, err := ac.syncer.SyncAccount(c.Request().Context(), address)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, accounts.ErrUnsupportedAccountType) {
			status = http.StatusUnprocessableEntity
		}
		return c.JSON(status, map[string]interface{}{
			"status":  status,
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Account synchronized",
		"data":    account,
	})
}

// Health reports the tracked addresses
// GET /health
func (ac *AccountController) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "tezsync",
		"addresses": ac.syncer.Addresses(),
	})
}
