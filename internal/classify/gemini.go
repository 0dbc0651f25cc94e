package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/ethos-ledger/ethos/internal/model"
	"github.com/ethos-ledger/ethos/internal/values"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

var maxWeight = decimal.NewFromInt(100)

// generator is the slice of *genai.Models the classifier needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClassifier classifies vendors with a Gemini model.
type GeminiClassifier struct {
	models generator
	model  string
	logger zerolog.Logger
}

// NewGeminiClassifier creates a client for the Gemini API. An empty model
// name selects DefaultModelName.
func NewGeminiClassifier(ctx context.Context, apiKey, modelName string, logger zerolog.Logger) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return newGeminiClassifier(client.Models, modelName, logger), nil
}

func newGeminiClassifier(models generator, modelName string, logger zerolog.Logger) *GeminiClassifier {
	if modelName == "" {
		modelName = DefaultModelName
	}
	return &GeminiClassifier{
		models: models,
		model:  modelName,
		logger: logger.With().Str("component", "gemini").Str("model", modelName).Logger(),
	}
}

// Classify sends txs to the model in a single request. Results that fail
// validation are dropped and logged; the caller leaves those transactions
// pending.
func (c *GeminiClassifier) Classify(ctx context.Context, txs []model.Transaction) ([]model.ClassificationResult, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(txs)}},
		},
	}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return nil, errors.New("empty response from model")
	}

	var results []model.ClassificationResult
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &results); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}

	valid := results[:0]
	for _, r := range results {
		if r.UnethicalPractices == nil {
			r.UnethicalPractices = []string{}
		}
		if r.EthicalPractices == nil {
			r.EthicalPractices = []string{}
		}
		if err := validateResult(r); err != nil {
			c.logger.Warn().Err(err).Str("transaction_id", r.MatchingTransactionID).Msg("dropping classification")
			continue
		}
		valid = append(valid, r)
	}
	c.logger.Debug().Int("requested", len(txs)).Int("returned", len(valid)).Msg("classified batch")
	return valid, nil
}

func validateResult(r model.ClassificationResult) error {
	if !r.Complete() {
		return errors.New("practice without weight")
	}
	for p, w := range r.PracticeWeights {
		if w.IsNegative() || w.GreaterThan(maxWeight) {
			return fmt.Errorf("weight %s for %q out of range 0..100", w, p)
		}
	}
	return nil
}

func buildPrompt(txs []model.Transaction) string {
	var b strings.Builder
	b.WriteString("You are an analyst assessing the ethical practices of the companies behind consumer purchases.\n\n")
	b.WriteString("For each transaction below, identify the vendor and list its notable unethical and ethical practices.\n")
	b.WriteString("Assign every practice to exactly one of these categories:\n")
	for _, c := range values.Categories() {
		fmt.Fprintf(&b, "- %s: %s\n", c.DisplayName, c.Description)
	}
	b.WriteString("\nOutput STRICT JSON only: an array with one object per transaction, each with these fields:\n")
	b.WriteString("- \"matchingTransactionId\": string, the id given below\n")
	b.WriteString("- \"vendorName\": string\n")
	b.WriteString("- \"unethicalPractices\": array of strings (empty array if none)\n")
	b.WriteString("- \"ethicalPractices\": array of strings (empty array if none)\n")
	b.WriteString("- \"practiceWeights\": object mapping every practice to the percentage (0-100) of the purchase it affects\n")
	b.WriteString("- \"practiceCategories\": object mapping every practice to one category name from the list above\n")
	b.WriteString("- \"information\": string, a short summary\n")
	b.WriteString("- \"citations\": array of source URLs\n\n")
	b.WriteString("Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n\n")
	b.WriteString("Transactions (id | date | name | amount):\n")
	for _, tx := range txs {
		fmt.Fprintf(&b, "%s | %s | %s | %s\n", tx.ID, tx.Date.Format("2006-01-02"), tx.Name, tx.Amount.StringFixed(2))
	}
	return b.String()
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost array if the model added prose around it.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
