package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deepspec/deepspec/internal/entity"
	"github.com/deepspec/deepspec/internal/llm"
)

// fencedJSON pulls a JSON body out of a ```json ... ``` markdown fence,
// the most common way models wrap an otherwise valid response.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// ExtractFields implements llm.FieldExtractor against chat/completions.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (entity.PaperFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	chunks := llm.ChunkWindow(req.Text, req.Mode)
	schema := llm.BuildPaperJSONSchema()
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req, chunks)

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"role", req.Role,
		"mode", req.Mode,
		"text_len", len(req.Text),
		"chunks", len(chunks),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.PaperFields{}, nil, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.PaperFields{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.PaperFields{}, raw, fmt.Errorf("no choices in openai response")
	}

	rawContent := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))
	if !json.Valid(rawContent) {
		if m := fencedJSON.FindSubmatch(rawContent); m != nil {
			rawContent = m[1]
		}
	}

	// Validate strictly first; on mismatch try the lenient normalize pass.
	if err := llm.ValidatePaper(rawContent); err != nil {
		if !c.cfg.Lenient {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return entity.PaperFields{}, rawContent, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, touched, sErr := llm.NormalizeFlexibleFields(rawContent)
		if sErr != nil {
			c.logger.Error("llm.extract.normalize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return entity.PaperFields{}, rawContent, fmt.Errorf("normalize response: %w", sErr)
		}
		if vErr := llm.ValidatePaper(cleaned); vErr != nil {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return entity.PaperFields{}, rawContent, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("llm.extract.lenient_normalize_applied",
			"req_id", rid, "touched", touched,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	} else {
		// Response validated but list fields may still be bare strings.
		cleaned, _, sErr := llm.NormalizeFlexibleFields(rawContent)
		if sErr == nil {
			rawContent = cleaned
		}
	}

	var out entity.PaperFields
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.PaperFields{}, rawContent, fmt.Errorf("unmarshal fields: %w", err)
	}
	out = out.Normalized()

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"title", out.Title,
		"conclusions", len(out.Conclusions),
		"formulas", len(out.Formulas),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
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
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
