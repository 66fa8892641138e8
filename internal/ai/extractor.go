// Package ai wraps the Gemini API for contract field extraction. A backup
// key, when configured, takes over transparently whenever the primary key is
// out of quota.
package ai

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sawtoothmedia/contractdesk/internal/apperrors"
	"github.com/sawtoothmedia/contractdesk/internal/config"
	"github.com/sawtoothmedia/contractdesk/internal/utils"
)

// ContractDetails are the fields the model reads off a contract PDF.
type ContractDetails struct {
	Client         string   `json:"client"`
	Agency         string   `json:"agency"`
	EstimateNumber string   `json:"estimateNumber"`
	Stations       []string `json:"stations"`
}

// Extractor runs prompts against the primary model and falls back to the
// backup model on quota exhaustion only. Other failures surface immediately.
type Extractor struct {
	primary *genai.Client
	backup  *genai.Client
	model   string
}

// New connects the primary and, if configured, backup Gemini clients.
func New(ctx context.Context, cfg config.AIConfig) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.Errorf(apperrors.KindConfig, "ai.New",
			"GOOGLE_API_KEY is not configured in the .env file")
	}
	primary, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, apperrors.E(apperrors.KindCredential, "ai.New", err)
	}
	ex := &Extractor{primary: primary, model: cfg.Model}
	if cfg.BackupAPIKey != "" {
		backup, err := genai.NewClient(ctx, option.WithAPIKey(cfg.BackupAPIKey))
		if err != nil {
			primary.Close()
			return nil, apperrors.E(apperrors.KindCredential, "ai.New", err)
		}
		ex.backup = backup
	}
	return ex, nil
}

// Close releases both clients.
func (ex *Extractor) Close() {
	ex.primary.Close()
	if ex.backup != nil {
		ex.backup.Close()
	}
}

func (ex *Extractor) generate(ctx context.Context, client *genai.Client, parts ...genai.Part) (string, error) {
	model := client.GenerativeModel(ex.model)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", apperrors.FromGoogleAPI("ai.generate", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.Errorf(apperrors.KindExternal, "ai.generate", "model returned no candidates")
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", apperrors.Errorf(apperrors.KindExternal, "ai.generate", "model returned no text")
	}
	return text, nil
}

// generateWithFallback tries the primary client and retries on the backup
// only when the primary failure is quota exhaustion.
func (ex *Extractor) generateWithFallback(ctx context.Context, parts ...genai.Part) (string, error) {
	text, err := ex.generate(ctx, ex.primary, parts...)
	if err == nil {
		return text, nil
	}
	if ex.backup == nil || apperrors.KindOf(err) != apperrors.KindQuota {
		return "", err
	}
	log.Println("⚠️ Primary Gemini key out of quota, retrying with backup key")
	return ex.generate(ctx, ex.backup, parts...)
}

// ExtractContractDetails reads client, agency, estimate number and stations
// from a contract PDF.
func (ex *Extractor) ExtractContractDetails(ctx context.Context, pdf []byte) (ContractDetails, error) {
	text, err := ex.generateWithFallback(ctx,
		genai.Blob{MIMEType: "application/pdf", Data: pdf},
		genai.Text(extractDetailsPrompt),
	)
	if err != nil {
		return ContractDetails{}, err
	}
	var details ContractDetails
	if err := json.Unmarshal([]byte(utils.SanitizeJSON(text)), &details); err != nil {
		return ContractDetails{}, apperrors.E(apperrors.KindParse, "ai.ExtractContractDetails", err)
	}
	return details, nil
}

// ExtractContractDate reads the order entry date from a contract PDF.
func (ex *Extractor) ExtractContractDate(ctx context.Context, pdf []byte) (time.Time, error) {
	text, err := ex.generateWithFallback(ctx,
		genai.Blob{MIMEType: "application/pdf", Data: pdf},
		genai.Text(extractDatePrompt),
	)
	if err != nil {
		return time.Time{}, err
	}
	var parsed struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Day   int `json:"day"`
	}
	if err := json.Unmarshal([]byte(utils.SanitizeJSON(text)), &parsed); err != nil {
		return time.Time{}, apperrors.E(apperrors.KindParse, "ai.ExtractContractDate", err)
	}
	if parsed.Year == 0 || parsed.Month < 1 || parsed.Month > 12 || parsed.Day < 1 || parsed.Day > 31 {
		return time.Time{}, apperrors.Errorf(apperrors.KindParse, "ai.ExtractContractDate",
			"model found no usable entry date")
	}
	return time.Date(parsed.Year, time.Month(parsed.Month), parsed.Day, 0, 0, 0, 0, time.UTC), nil
}

// Generate runs a free-form text prompt, used for dashboard insights.
func (ex *Extractor) Generate(ctx context.Context, prompt string) (string, error) {
	return ex.generateWithFallback(ctx, genai.Text(prompt))
}
