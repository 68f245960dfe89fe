// Package extractor turns free-form statement text into transaction records
// using a generative model.
package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/eshaffer321/statement-reconciler/internal/domain/statement"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Extractor reads a statement and returns the transactions it lists.
type Extractor interface {
	Extract(ctx context.Context, statementText string) ([]statement.ParsedTransaction, error)
}

// ModelClient sends one prompt to a model and returns its raw text answer.
type ModelClient interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Cache stores extraction results keyed by statement fingerprint.
type Cache interface {
	Get(key string) ([]statement.ParsedTransaction, bool)
	Set(key string, txs []statement.ParsedTransaction)
}

// GeminiExtractor asks a model for a strict JSON array of transactions.
type GeminiExtractor struct {
	client ModelClient
	model  string
	cache  Cache
	logger *slog.Logger
}

// NewGeminiExtractor creates an extractor. A nil cache disables caching.
func NewGeminiExtractor(client ModelClient, model string, cache Cache, logger *slog.Logger) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GeminiExtractor{
		client: client,
		model:  model,
		cache:  cache,
		logger: logger,
	}
}

// modelRecord is one element of the array the model is asked to produce.
// Amount is kept raw so both numbers and formatted strings are accepted.
type modelRecord struct {
	Date        string          `json:"date"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
}

// Extract implements Extractor.
//
// Records with an unreadable date or amount are returned with a zero Date so
// callers that Validate them count them as skipped rather than losing them silently.
func (g *GeminiExtractor) Extract(ctx context.Context, statementText string) ([]statement.ParsedTransaction, error) {
	if strings.TrimSpace(statementText) == "" {
		return []statement.ParsedTransaction{}, nil
	}

	key := fingerprint(statementText)
	if g.cache != nil {
		if txs, ok := g.cache.Get(key); ok {
			g.logger.Debug("extraction cache hit", "records", len(txs))
			return txs, nil
		}
	}

	raw, err := g.client.Generate(ctx, g.model, buildPrompt(statementText))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	var records []modelRecord
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &records); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}

	txs := make([]statement.ParsedTransaction, 0, len(records))
	unreadable := 0
	for _, rec := range records {
		tx, ok := rec.toParsed()
		if !ok {
			unreadable++
		}
		txs = append(txs, tx)
	}

	g.logger.Info("statement extracted",
		"model", g.model,
		"records", len(txs),
		"unreadable", unreadable,
	)

	if g.cache != nil {
		g.cache.Set(key, txs)
	}
	return txs, nil
}

func (r modelRecord) toParsed() (statement.ParsedTransaction, bool) {
	tx := statement.ParsedTransaction{Description: strings.TrimSpace(r.Description)}

	date, dateOK := statement.ParseDate(r.Date)
	amount, amountOK := statement.ParseAmount(strings.Trim(string(r.Amount), `"`))
	if !dateOK || !amountOK {
		tx.Date = civil.Date{}
		return tx, false
	}

	tx.Date = date
	tx.Amount = amount
	return tx, true
}

func buildPrompt(statementText string) string {
	return "You are a financial statement parser.\n\n" +
		"Task:\n" +
		"- Parse ALL transactions in the statement below.\n" +
		"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
		"- Output a JSON array of objects.\n\n" +
		"Each object must have these fields:\n" +
		"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
		"- \"amount\": number, the absolute value of the transaction\n" +
		"- \"description\": string, the merchant or payee as printed\n\n" +
		"Rules:\n" +
		"- Skip opening and closing balances, totals and interest summaries.\n" +
		"- If a row has no readable date, still include it with \"date\": \"\".\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Output must begin with \"[\" and end with \"]\".\n\n" +
		"Statement:\n" + statementText
}

// cleanModelJSON strips Markdown fences and any prose around the JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line (``` or ```json).
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func fingerprint(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
