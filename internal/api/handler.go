package api

import (
	"bytes"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/bank-sms-parser/internal/ingest"
	"github.com/insightdelivered/bank-sms-parser/internal/logger"
	"github.com/insightdelivered/bank-sms-parser/internal/models"
	"github.com/insightdelivered/bank-sms-parser/internal/writer"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// MessageRequest is the JSON body of /ingest-message and /parse.
type MessageRequest struct {
	RawText   string     `json:"raw_text"`
	Timestamp *time.Time `json:"timestamp"`
	Source    string     `json:"source"`
	Sender    string     `json:"sender"`
}

// TransactionResponse is returned by /ingest-message.
type TransactionResponse struct {
	ID              int64   `json:"id"`
	Date            *string `json:"date"`
	Amount          float64 `json:"amount"`
	Merchant        string  `json:"merchant"`
	Category        string  `json:"category"`
	Bank            string  `json:"bank"`
	TransactionType string  `json:"transaction_type"`
}

// ParseResponse is returned by /parse.
type ParseResponse struct {
	Date            *string `json:"date"`
	TransactionType string  `json:"transaction_type"`
	Amount          float64 `json:"amount"`
	Merchant        string  `json:"merchant"`
	ReferenceID     *string `json:"reference_id"`
	Bank            string  `json:"bank"`
	RawMessage      string  `json:"raw_message"`
	IsValid         bool    `json:"is_valid"`
	IsGuess         bool    `json:"is_guess"`
}

// ListItem is one row of /transactions.
type ListItem struct {
	Date      string  `json:"Date"`
	Amount    float64 `json:"Amount"`
	Recipient string  `json:"Recipient"`
	Type      string  `json:"Type"`
	UserBank  string  `json:"User_Bank"`
}

// ListResponse is the body of /transactions.
type ListResponse struct {
	Count        int        `json:"count"`
	Transactions []ListItem `json:"transactions"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Service          *ingest.Service
	MaxMessageLength int
	DefaultListLimit int
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HandleHealth)
	app.Post("/ingest-message", h.HandleIngest)
	app.Post("/parse", h.HandleParse)
	app.Get("/transactions", h.HandleList)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
		"engine":  "fiber",
	})
}

// HandleIngest parses and stores a message. 204 means the message was not a
// transaction (or had no amount) and was ignored.
func (h *Handler) HandleIngest(c *fiber.Ctx) error {
	msg, err := h.decodeMessage(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	res, err := h.Service.Ingest(c.UserContext(), msg)
	if err != nil {
		return h.ingestError(c, err)
	}
	if res.Outcome == ingest.Ignored {
		return c.SendStatus(fiber.StatusNoContent)
	}

	txn := res.Transaction
	return c.JSON(TransactionResponse{
		ID:              txn.ID,
		Date:            optional(txn.Date),
		Amount:          txn.Amount.InexactFloat64(),
		Merchant:        txn.Merchant,
		Category:        txn.Category,
		Bank:            txn.Bank,
		TransactionType: string(txn.TransactionType),
	})
}

// HandleParse runs only the extraction engine and returns the full record.
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	msg, err := h.decodeMessage(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}
	parsed, ok := h.Service.Parse(msg)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(ParseResponse{
		Date:            parsed.Date,
		TransactionType: string(parsed.TransactionType),
		Amount:          parsed.Amount.InexactFloat64(),
		Merchant:        parsed.Merchant,
		ReferenceID:     parsed.ReferenceID,
		Bank:            parsed.Bank,
		RawMessage:      parsed.RawMessage,
		IsValid:         parsed.IsValid,
		IsGuess:         parsed.IsGuess,
	})
}

// HandleList returns stored transactions newest first, as JSON or, with
// format=csv, as a CSV download.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", h.listLimit())
	if limit <= 0 {
		return writeError(c, fiber.StatusBadRequest, "limit must be positive")
	}

	txns, err := h.Service.List(c.UserContext(), limit)
	if err != nil {
		return h.ingestError(c, err)
	}

	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		w := &writer.CSVWriter{IncludeHeader: false}
		if err := w.WriteStored(&buf, txns); err != nil {
			return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
		}
		c.Attachment("transactions.csv")
		c.Set(fiber.HeaderContentType, "text/csv")
		return c.Send(buf.Bytes())
	}

	items := make([]ListItem, 0, len(txns))
	for _, t := range txns {
		items = append(items, ListItem{
			Date:      t.CreatedAt.Format("2006-01-02 15:04"),
			Amount:    t.Amount.InexactFloat64(),
			Recipient: t.Merchant,
			Type:      string(t.TransactionType),
			UserBank:  t.Bank,
		})
	}
	return c.JSON(ListResponse{Count: len(items), Transactions: items})
}

func (h *Handler) decodeMessage(c *fiber.Ctx) (models.Message, error) {
	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.Message{}, fmt.Errorf("invalid request body: %v", err)
	}
	if req.RawText == "" {
		return models.Message{}, errors.New("raw_text is required")
	}
	if limit := h.MaxMessageLength; limit > 0 && utf8.RuneCountInString(req.RawText) > limit {
		return models.Message{}, fmt.Errorf("raw_text exceeds %d characters", limit)
	}

	msg := models.Message{
		Body:   req.RawText,
		Sender: req.Sender,
		Source: req.Source,
	}
	if req.Timestamp != nil {
		msg.Timestamp = *req.Timestamp
	} else {
		msg.Timestamp = time.Now().UTC()
	}
	return msg, nil
}

func (h *Handler) ingestError(c *fiber.Ctx, err error) error {
	log := logger.FromContext(c.UserContext())

	var ierr *ingest.Error
	if errors.As(err, &ierr) {
		switch ierr.Code {
		case ingest.ErrInvalidMessage:
			return writeError(c, fiber.StatusBadRequest, ierr.Message)
		case ingest.ErrCategorizationFailed:
			log.Error().Err(err).Msg("categorization failed")
			return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Classification error: %v", ierr.Cause))
		case ingest.ErrStorageFailed:
			log.Error().Err(err).Msg("storage failed")
			return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Database error: %v", ierr.Cause))
		}
	}
	log.Error().Err(err).Msg("unexpected ingest error")
	return writeError(c, fiber.StatusInternalServerError, err.Error())
}

func (h *Handler) listLimit() int {
	if h.DefaultListLimit > 0 {
		return h.DefaultListLimit
	}
	return 100
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}
