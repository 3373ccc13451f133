package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xrpscan/tezsync/connections"
)

const maxOperationsLimit = 1000

type StoredOperation struct {
	OperationID string    `json:"operation_id"`
	Hash        string    `json:"hash"`
	Type        string    `json:"type"`
	Value       string    `json:"value"`
	Fee         string    `json:"fee"`
	Sender      string    `json:"sender"`
	Recipient   string    `json:"recipient"`
	BlockHeight uint64    `json:"block_height"`
	Date        time.Time `json:"date"`
	HasFailed   bool      `json:"has_failed"`
}

func parsePaging(c echo.Context) (limit, offset int, err error) {
	limitStr := c.QueryParam("limit")
	offsetStr := c.QueryParam("offset")
	if limitStr == "" || offsetStr == "" {
		return 0, 0, fmt.Errorf("limit and offset query parameters are required")
	}
	if limit, err = strconv.Atoi(limitStr); err != nil || limit <= 0 || limit > maxOperationsLimit {
		return 0, 0, fmt.Errorf("invalid limit parameter %q", limitStr)
	}
	if offset, err = strconv.Atoi(offsetStr); err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter %q", offsetStr)
	}
	return limit, offset, nil
}

// GetStoredOperations lists the operations of an address stored in ClickHouse
// GET /account/:address/operations?limit=&offset=
func GetStoredOperations(c echo.Context) error {
	limit, offset, err := parsePaging(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": err.Error(),
		})
	}

	if connections.ClickHouseConn == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":  http.StatusServiceUnavailable,
			"message": "ClickHouse is not enabled",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// Latest version of every operation, most recent first
	rows, err := connections.ClickHouseConn.Query(ctx, `
		SELECT operation_id, hash, type, toString(value), toString(fee), sender, recipient, block_height, date, has_failed
		FROM tezos.operations FINAL
		WHERE address = ?
		ORDER BY date DESC, operation_id
		LIMIT ? OFFSET ?
	`, c.Param("address"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": fmt.Sprintf("Failed to get operations: %v", err),
		})
	}
	defer rows.Close()

	ops := []StoredOperation{}
	for rows.Next() {
		var op StoredOperation
		err := rows.Scan(&op.OperationID, &op.Hash, &op.Type, &op.Value, &op.Fee, &op.Sender, &op.Recipient, &op.BlockHeight, &op.Date, &op.HasFailed)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": fmt.Sprintf("Failed to scan operations: %v", err),
			})
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": fmt.Sprintf("Error iterating rows: %v", err),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Operations fetched successfully",
		"data":    ops,
	})
}
