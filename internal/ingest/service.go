// Package ingest turns incoming bank messages into stored, categorized
// transactions.
package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-sms-parser/internal/categorize"
	"github.com/insightdelivered/bank-sms-parser/internal/logger"
	"github.com/insightdelivered/bank-sms-parser/internal/models"
	"github.com/insightdelivered/bank-sms-parser/internal/parser"
	"github.com/insightdelivered/bank-sms-parser/internal/store"
)

// Outcome says what Ingest did with a message.
type Outcome int

const (
	// Ignored: not a transaction, or no amount could be extracted.
	Ignored Outcome = iota
	// Duplicate: the reference was already stored; the existing record is returned.
	Duplicate
	// Stored: a new record was created.
	Stored
)

func (o Outcome) String() string {
	switch o {
	case Duplicate:
		return "duplicate"
	case Stored:
		return "stored"
	default:
		return "ignored"
	}
}

// PaymentMode is recorded on every stored transaction.
const PaymentMode = "UPI"

// defaultSender stands in for a missing sender id.
const defaultSender = "UNKNOWN"

// Result is the outcome of one Ingest call.
type Result struct {
	Outcome Outcome
	// Parsed is set unless the message was rejected as not a transaction.
	Parsed *models.ParsedTransaction
	// Transaction is set for Duplicate and Stored.
	Transaction *models.StoredTransaction
}

// Service wires the parser, the categorizer and the store together.
type Service struct {
	engine      *parser.Engine
	categorizer categorize.Categorizer
	store       store.Store
	recent      *cache.Cache // reference -> models.StoredTransaction
}

// NewService creates a Service. References stored or seen within ttl are
// answered from memory without a store lookup.
func NewService(engine *parser.Engine, categorizer categorize.Categorizer, st store.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		engine:      engine,
		categorizer: categorizer,
		store:       st,
		recent:      cache.New(ttl, 2*ttl),
	}
}

// Parse runs only the extraction engine.
func (s *Service) Parse(msg models.Message) (models.ParsedTransaction, bool) {
	return s.engine.ParseMessage(withDefaults(msg))
}

// Ingest parses, categorizes, deduplicates and stores one message.
func (s *Service) Ingest(ctx context.Context, msg models.Message) (*Result, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(msg.Body) == "" {
		return nil, &Error{Code: ErrInvalidMessage, Message: "raw_text is empty"}
	}
	msg = withDefaults(msg)

	parsed, ok := s.engine.ParseMessage(msg)
	if !ok {
		log.Debug().Str("sender", msg.Sender).Msg("message is not a transaction")
		return &Result{Outcome: Ignored}, nil
	}
	if !parsed.IsValid {
		log.Debug().Str("sender", msg.Sender).Msg("transaction without amount ignored")
		return &Result{Outcome: Ignored, Parsed: &parsed}, nil
	}

	category, err := s.categorizer.Categorize(parsed.Merchant)
	if err != nil {
		return nil, &Error{Code: ErrCategorizationFailed, Message: "could not categorize merchant " + parsed.Merchant, Cause: err}
	}

	if ref := parsed.Reference(); ref != "" {
		existing, err := s.lookup(ctx, ref)
		if err != nil {
			return nil, &Error{Code: ErrStorageFailed, Message: "reference lookup failed", Cause: err}
		}
		if existing != nil {
			log.Info().Str("reference", ref).Int64("id", existing.ID).Msg("duplicate transaction")
			return &Result{Outcome: Duplicate, Parsed: &parsed, Transaction: existing}, nil
		}
	}

	txn := &models.StoredTransaction{
		Date:            parsed.DateString(),
		Amount:          parsed.Amount,
		Merchant:        parsed.Merchant,
		Category:        category,
		Bank:            parsed.Bank,
		PaymentMode:     PaymentMode,
		TransactionType: parsed.TransactionType,
		ReferenceID:     parsed.Reference(),
		RawMessage:      msg.Body,
	}
	if err := s.store.Create(ctx, txn); err != nil {
		if errors.Is(err, store.ErrDuplicateReference) {
			// lost a race with a concurrent delivery of the same message
			if existing, lerr := s.lookup(ctx, txn.ReferenceID); lerr == nil && existing != nil {
				return &Result{Outcome: Duplicate, Parsed: &parsed, Transaction: existing}, nil
			}
		}
		return nil, &Error{Code: ErrStorageFailed, Message: "could not save transaction", Cause: err}
	}
	if txn.ReferenceID != "" {
		s.recent.SetDefault(txn.ReferenceID, *txn)
	}

	logEvent(log.Info(), txn, parsed).Msg("transaction stored")
	return &Result{Outcome: Stored, Parsed: &parsed, Transaction: txn}, nil
}

// List returns stored transactions, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]models.StoredTransaction, error) {
	txns, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, &Error{Code: ErrStorageFailed, Message: "could not list transactions", Cause: err}
	}
	return txns, nil
}

// lookup checks the recent cache, then the store. A miss is (nil, nil).
func (s *Service) lookup(ctx context.Context, ref string) (*models.StoredTransaction, error) {
	if v, ok := s.recent.Get(ref); ok {
		txn := v.(models.StoredTransaction)
		return &txn, nil
	}
	existing, err := s.store.FindByReference(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.recent.SetDefault(ref, *existing)
	return existing, nil
}

func withDefaults(msg models.Message) models.Message {
	if strings.TrimSpace(msg.Sender) == "" {
		msg.Sender = defaultSender
	}
	return msg
}

func logEvent(e *zerolog.Event, txn *models.StoredTransaction, parsed models.ParsedTransaction) *zerolog.Event {
	return e.Int64("id", txn.ID).
		Str("bank", txn.Bank).
		Str("merchant", txn.Merchant).
		Str("category", txn.Category).
		Str("amount", txn.Amount.StringFixed(2)).
		Str("type", string(txn.TransactionType)).
		Bool("guess", parsed.IsGuess)
}
