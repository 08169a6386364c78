package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RevenueHandler struct {
	Revenue *services.RevenueService
}

func NewRevenueHandler(revenue *services.RevenueService) *RevenueHandler {
	return &RevenueHandler{Revenue: revenue}
}

type RecordTransactionRequest struct {
	WalletAddress   string           `json:"walletAddress" validate:"required"`
	TransactionHash string           `json:"transactionHash" validate:"required"`
	TransactionTime time.Time        `json:"transactionTime" validate:"required"`
	TokenAmount     json.Number      `json:"tokenAmount" validate:"required"`
	TokenSymbol     string           `json:"tokenSymbol" validate:"required"`
	UsdAmount       *decimal.Decimal `json:"usdAmount" validate:"required"`
}

func (h *RevenueHandler) RecordTransaction(c *fiber.Ctx) error {
	var req RecordTransactionRequest
	if err := parseRequest(c, &req); err != nil {
		return badRequest(c, err)
	}

	tx, err := h.Revenue.RecordTransaction(c.UserContext(), services.RecordTransactionInput{
		WalletAddress:   req.WalletAddress,
		TransactionHash: req.TransactionHash,
		TransactionTime: req.TransactionTime,
		TokenAmount:     req.TokenAmount.String(),
		TokenSymbol:     req.TokenSymbol,
		UsdAmount:       *req.UsdAmount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Transaction recorded successfully",
		"transaction": tx,
	})
}

func (h *RevenueHandler) GetWalletTransactions(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", services.DefaultPageSize)

	result, err := h.Revenue.GetWalletTransactions(c.UserContext(), c.Params("walletAddress"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *RevenueHandler) GetRevenueStats(c *fiber.Ctx) error {
	start, end, err := dateRange(c)
	if err != nil {
		return badRequest(c, err)
	}

	stats, err := h.Revenue.GetRevenueStats(c.UserContext(), start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *RevenueHandler) GetTopTraders(c *fiber.Ctx) error {
	traders, err := h.Revenue.GetTopTraders(c.UserContext(), c.QueryInt("limit", services.DefaultTopTraders))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(traders)
}

func (h *RevenueHandler) GenerateReport(c *fiber.Ctx) error {
	start, end, err := dateRange(c)
	if err != nil {
		return badRequest(c, err)
	}

	report, err := h.Revenue.ExportTransactionsCSV(c.UserContext(), start, end)
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"revenue_%s_to_%s.csv\"", boundLabel(start), boundLabel(end)))
	return c.Send(report)
}

func boundLabel(t *time.Time) string {
	if t == nil {
		return "all"
	}
	return t.UTC().Format(dateLayout)
}
