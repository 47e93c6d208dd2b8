// Package ai extracts a structured dosing-schedule draft from free text,
// so "Apixaban 5mg every Monday and Wednesday at 9am and 11pm" can be
// captured without filling in a form. The draft is advisory: it is mapped
// into domain types and sanitized before anything is persisted.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *Client) SetModel(model string) {
	c.model = model
}

// ScheduleDraft is the raw extraction result. Times are clock strings and
// weekdays are free tokens; the importer parses and normalizes both,
// dropping anything malformed.
type ScheduleDraft struct {
	DrugName      string      `json:"drug_name"`
	PRN           bool        `json:"prn"`
	FreqType      string      `json:"freq_type"`
	EveryNDays    int         `json:"every_n_days"`
	IntervalHours int         `json:"interval_hours"`
	ByWeekday     []string    `json:"by_weekday"`
	Times         []DraftTime `json:"times"`
	RawResponse   string      `json:"-"`
}

type DraftTime struct {
	Time  string  `json:"time"` // "HH:MM" or "h:mma"
	Count float64 `json:"count"`
}

const systemPromptTemplate = `You extract medication dosing schedules from free text.

Current time: %s

Rules:
1. freq_type is one of DAILY, WEEKLY, EVERY_N_DAYS, EVERY_N_HOURS, PRN.
2. "as needed", "when required", "PRN" mean prn = true and freq_type = PRN, with no weekdays and no times.
3. by_weekday uses three-letter tokens: MON, TUE, WED, THU, FRI, SAT, SUN. Only set it for WEEKLY schedules.
4. every_n_days is only set for EVERY_N_DAYS (e.g. "every 3 days" -> 3). interval_hours only for EVERY_N_HOURS.
5. times holds each dose time as HH:MM (24-hour) with the count of units taken at that time; default count is 1.
6. drug_name is the medication name only, without strength or form.`

func getSystemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04 (Monday)"))
}

// JSON Schema for structured output
var draftSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"drug_name": {
			"type": "string",
			"description": "Medication name without strength or dosage form"
		},
		"prn": {
			"type": "boolean",
			"description": "True when the medication is taken as needed"
		},
		"freq_type": {
			"type": "string",
			"enum": ["DAILY", "WEEKLY", "EVERY_N_DAYS", "EVERY_N_HOURS", "PRN"],
			"description": "Recurrence cadence"
		},
		"every_n_days": {
			"type": "integer",
			"description": "Day interval for EVERY_N_DAYS, otherwise 0"
		},
		"interval_hours": {
			"type": "integer",
			"description": "Hour interval for EVERY_N_HOURS, otherwise 0"
		},
		"by_weekday": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Weekday tokens for WEEKLY schedules"
		},
		"times": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"time": {"type": "string"},
					"count": {"type": "number"}
				},
				"required": ["time", "count"],
				"additionalProperties": false
			},
			"description": "Dose times of day with unit counts"
		}
	},
	"required": ["drug_name", "prn", "freq_type", "every_n_days", "interval_hours", "by_weekday", "times"],
	"additionalProperties": false
}`)

// ExtractSchedule parses a free-text schedule description into a draft.
func (c *Client) ExtractSchedule(ctx context.Context, text string, now time.Time) (*ScheduleDraft, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: getSystemPrompt(now)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "schedule_draft",
				Schema: draftSchema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract schedule: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	content := resp.Choices[0].Message.Content
	draft := &ScheduleDraft{RawResponse: content}
	if err := json.Unmarshal([]byte(content), draft); err != nil {
		return nil, fmt.Errorf("failed to parse schedule draft: %w", err)
	}
	return draft, nil
}
