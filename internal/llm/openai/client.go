package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/preventio/duerp-import/internal/common"
	"github.com/preventio/duerp-import/internal/entity"
	"github.com/preventio/duerp-import/internal/llm"
)

// Structure implements llm.Structurer using text-only chat/completions.
func (c *Client) Structure(ctx context.Context, req llm.StructureRequest) (*entity.Structure, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.structure.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"tier", req.Tier,
		"format", req.Format,
		"text_len", len(req.Text),
	)

	schema := llm.BuildStructureJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req)},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	rawContent, err := c.complete(ctx, rid, body)
	if err != nil {
		c.log.Error("llm.structure.failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, &common.StructuringError{Cause: err}
	}

	// Validate strictly first; fall back to a lenient sanitize pass.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		cleaned, dropped, sErr := llm.SanitizeStructure(rawContent)
		if sErr != nil {
			c.log.Error("llm.structure.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, rawContent, &common.StructuringError{Cause: fmt.Errorf("sanitize failed: %w", sErr)}
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.structure.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, rawContent, &common.StructuringError{Cause: fmt.Errorf("schema validation failed: %w", vErr)}
		}
		c.log.Warn("llm.structure.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out entity.Structure
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.log.Error("llm.structure.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, &common.StructuringError{Cause: fmt.Errorf("unmarshal structure: %w", err)}
	}

	c.log.Info("llm.structure.ok",
		"req_id", rid,
		"work_units", len(out.WorkUnits),
		"risks", len(out.Risks),
		"measures", len(out.Measures),
		"confidence", out.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &out, rawContent, nil
}

// Enrich implements llm.Enricher with a second structured-output pass.
func (c *Client) Enrich(ctx context.Context, req llm.EnrichRequest) (*llm.EnrichSuggestions, error) {
	rid := uuid.New().String()
	start := time.Now()

	existing, err := json.Marshal(req.Structure)
	if err != nil {
		return nil, fmt.Errorf("marshal structure: %w", err)
	}

	c.log.Info("llm.enrich.start", "req_id", rid, "model", c.cfg.Model, "sector", req.Sector)

	schema := llm.BuildEnrichJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildEnrichSystemPrompt(req.Sector)},
			{"role": "user", "content": "Validated risk assessment:\n" + string(existing) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	rawContent, err := c.complete(ctx, rid, body)
	if err != nil {
		c.log.Error("llm.enrich.failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, &common.StructuringError{Cause: err}
	}
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.log.Error("llm.enrich.schema_validation_failed", "req_id", rid, "error", err)
		return nil, &common.StructuringError{Cause: err}
	}

	var out llm.EnrichSuggestions
	if err := json.Unmarshal(rawContent, &out); err != nil {
		return nil, &common.StructuringError{Cause: fmt.Errorf("unmarshal suggestions: %w", err)}
	}

	c.log.Info("llm.enrich.ok",
		"req_id", rid,
		"suggested_risks", len(out.Risks),
		"suggested_measures", len(out.Measures),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &out, nil
}

// complete posts a chat/completions body and returns the first choice's
// trimmed message content.
func (c *Client) complete(ctx context.Context, rid string, body map[string]any) ([]byte, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.no_choices", "req_id", rid, "raw_bytes", len(raw))
		return nil, fmt.Errorf("no choices in openai response")
	}
	return []byte(strings.TrimSpace(cc.Choices[0].Message.Content)), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
