package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/portfolio"
)

func (s *Server) handleListStocks(c *gin.Context) {
	stocks, err := s.stocks.ListByUser(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list stocks", "error_code": errCodeInternal})
		return
	}
	if stocks == nil {
		stocks = []portfolio.Stock{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stocks": stocks})
}

func (s *Server) handleUpsertStock(c *gin.Context) {
	var body struct {
		Symbol       string  `json:"symbol"`
		Quantity     float64 `json:"quantity"`
		AveragePrice float64 `json:"averagePrice"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}

	stock := portfolio.Stock{
		UserID:       c.GetString("userID"),
		Symbol:       strings.ToUpper(strings.TrimSpace(body.Symbol)),
		Quantity:     body.Quantity,
		AveragePrice: body.AveragePrice,
	}
	if err := stock.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}

	saved, err := s.stocks.Upsert(c.Request.Context(), stock)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to save stock", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "stock": saved})
}

func (s *Server) handleDeleteStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id", "error_code": errCodeBadRequest})
		return
	}

	err = s.stocks.Delete(c.Request.Context(), c.GetString("userID"), id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "stock not found", "error_code": errCodeNotFound})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete stock", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
