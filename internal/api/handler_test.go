package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-sms-parser/internal/categorize"
	"github.com/insightdelivered/bank-sms-parser/internal/ingest"
	"github.com/insightdelivered/bank-sms-parser/internal/parser"
	"github.com/insightdelivered/bank-sms-parser/internal/store"
)

const amazonDebit = "Rs.450.00 debited from A/C XXXX1234 to Amazon on 01-01-2025 UPI Ref 123456789"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := ingest.NewService(parser.New(), categorize.NewKeywordCategorizer(), store.NewMemoryStore(), time.Minute)
	h := &Handler{Service: svc, MaxMessageLength: 200, DefaultListLimit: 50}
	return NewApp(h, zerolog.Nop())
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandleHealth(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestHandleIngest_Stored(t *testing.T) {
	app := newTestApp(t)

	resp := postJSON(t, app, "/ingest-message", MessageRequest{RawText: amazonDebit, Sender: "HDFCBK", Source: "sms"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got TransactionResponse
	decode(t, resp, &got)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 450.0, got.Amount)
	assert.Equal(t, "Amazon", got.Merchant)
	assert.Equal(t, "Shopping", got.Category)
	assert.Equal(t, "HDFC Bank", got.Bank)
	assert.Equal(t, "Expense", got.TransactionType)
	require.NotNil(t, got.Date)
	assert.Equal(t, "2025-01-01", *got.Date)
}

func TestHandleIngest_DuplicateReturnsExisting(t *testing.T) {
	app := newTestApp(t)
	req := MessageRequest{RawText: amazonDebit, Sender: "HDFCBK"}

	var first, second TransactionResponse
	decode(t, postJSON(t, app, "/ingest-message", req), &first)
	decode(t, postJSON(t, app, "/ingest-message", req), &second)
	assert.Equal(t, first.ID, second.ID)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/transactions", nil))
	require.NoError(t, err)
	var list ListResponse
	decode(t, resp, &list)
	assert.Equal(t, 1, list.Count)
}

func TestHandleIngest_Ignored(t *testing.T) {
	app := newTestApp(t)

	resp := postJSON(t, app, "/ingest-message", MessageRequest{RawText: "Your OTP is 4521, do not share", Sender: "VM-HDFC"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHandleIngest_BadRequests(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing raw_text", map[string]string{"sender": "HDFCBK"}},
		{"blank raw_text", MessageRequest{RawText: "   "}},
		{"too long", MessageRequest{RawText: "Rs 10 debited " + strings.Repeat("x", 300)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/ingest-message", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body ErrorResponse
			decode(t, resp, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandleIngest_MalformedJSON(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/ingest-message", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleParse(t *testing.T) {
	app := newTestApp(t)

	resp := postJSON(t, app, "/parse", MessageRequest{RawText: amazonDebit, Sender: "HDFCBK"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	decode(t, resp, &got)
	assert.Equal(t, "Amazon", got["merchant"])
	assert.Equal(t, 450.0, got["amount"], "amount must be a JSON number")
	assert.Equal(t, "123456789", got["reference_id"])
	assert.Equal(t, true, got["is_valid"])
	assert.Equal(t, false, got["is_guess"])

	// parse never stores
	listResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/transactions", nil))
	require.NoError(t, err)
	var list ListResponse
	decode(t, listResp, &list)
	assert.Equal(t, 0, list.Count)
}

func TestHandleParse_NotATransaction(t *testing.T) {
	app := newTestApp(t)

	resp := postJSON(t, app, "/parse", MessageRequest{RawText: "Meeting at 5pm"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHandleList(t *testing.T) {
	app := newTestApp(t)
	postJSON(t, app, "/ingest-message", MessageRequest{RawText: amazonDebit, Sender: "HDFCBK"})
	postJSON(t, app, "/ingest-message", MessageRequest{
		RawText: "INR 1,500 received from Priya Sharma",
		Sender:  "AX-SBIINB",
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/transactions?limit=1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list ListResponse
	decode(t, resp, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Priya Sharma", list.Transactions[0].Recipient)
	assert.Equal(t, "Income", list.Transactions[0].Type)
	assert.Equal(t, "SBI", list.Transactions[0].UserBank)
	assert.Equal(t, 1500.0, list.Transactions[0].Amount)
}

func TestHandleList_InvalidLimit(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/transactions?limit=0", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleList_CSV(t *testing.T) {
	app := newTestApp(t)
	postJSON(t, app, "/ingest-message", MessageRequest{RawText: amazonDebit, Sender: "HDFCBK"})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/transactions?format=csv", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "transactions.csv")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Amazon")
	assert.Contains(t, lines[1], "450.00")
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
