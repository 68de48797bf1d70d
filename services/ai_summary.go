package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"legal_diary/models"
	"legal_diary/services/judicial"

	"github.com/sashabaranov/go-openai"
	"gorm.io/gorm"
)

// ErrAIUnavailable means no AI provider is configured
var ErrAIUnavailable = errors.New("AI summary is not configured")

const summarySystemPrompt = "You are an assistant to an Indian litigation practice. " +
	"Summarise the case for the advocate in under 200 words: the parties, the current stage, " +
	"what happened at the last hearing date and what to prepare for the next one. " +
	"Do not invent facts that are not in the case record."

// AISummaryService generates case summaries with an OpenAI compatible API
type AISummaryService struct {
	db      *gorm.DB
	client  *openai.Client
	model   string
	timeout time.Duration
	cal     *judicial.Calendar
	now     func() time.Time
}

// AISummaryConfig configures the OpenAI client. BaseURL is optional.
// Calendar, when set, flags hearings that fall on closed court days.
type AISummaryConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	Calendar *judicial.Calendar
}

func NewAISummaryService(db *gorm.DB, cfg AISummaryConfig) *AISummaryService {
	s := &AISummaryService{db: db, model: cfg.Model, timeout: cfg.Timeout, cal: cfg.Calendar, now: time.Now}
	if s.model == "" {
		s.model = openai.GPT4oMini
	}
	if s.timeout <= 0 {
		s.timeout = 60 * time.Second
	}
	if cfg.APIKey == "" {
		log.Println("[AI] OPENAI_API_KEY not set, case summaries disabled")
		return s
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

// Enabled reports whether summaries can be generated
func (s *AISummaryService) Enabled() bool {
	return s.client != nil
}

// Get returns the stored summary of a visible case
func (s *AISummaryService) Get(ctx context.Context, scope *AccessScope, caseID string) (*models.AISummary, error) {
	if _, err := scope.FindCase(s.db.WithContext(ctx), caseID); err != nil {
		return nil, err
	}
	var summary models.AISummary
	err := s.db.WithContext(ctx).Where("case_id = ?", caseID).First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &summary, nil
}

// Generate asks the model for a fresh summary of a visible case and stores it,
// replacing any previous one
func (s *AISummaryService) Generate(ctx context.Context, scope *AccessScope, caseID string) (*models.AISummary, error) {
	if !s.Enabled() {
		return nil, ErrAIUnavailable
	}

	c, err := scope.FindCase(s.db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}
	hearings, err := CaseHearings(ctx, s.db, scope, caseID)
	if err != nil {
		return nil, err
	}

	prompt := BuildCasePrompt(c, hearings, s.now(), s.cal)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		log.Printf("[AI] Summary for case %s failed: %v", c.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: model returned no summary", ErrProvider)
	}

	summary := &models.AISummary{
		CaseID:        c.ID,
		Summary:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:         resp.Model,
		GeneratedAt:   s.now(),
		GeneratedByID: scope.UserID,
	}
	if summary.Model == "" {
		summary.Model = s.model
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", c.ID).Delete(&models.AISummary{}).Error; err != nil {
			return err
		}
		return tx.Create(summary).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}
	return summary, nil
}

// BuildCasePrompt renders the case record and its hearing history as plain
// text. cal may be nil.
func BuildCasePrompt(c *models.Case, hearings []HearingWithNeighbors, now time.Time, cal *judicial.Calendar) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case number: %s\n", c.CaseNumber)
	fmt.Fprintf(&b, "Title: %s\n", c.Title)
	fmt.Fprintf(&b, "Client: %s\n", c.ClientName)
	fmt.Fprintf(&b, "Status: %s, priority %s\n", c.Status, c.Priority)
	if c.CaseType != "" {
		fmt.Fprintf(&b, "Type: %s\n", c.CaseType)
	}
	if c.CourtName != "" {
		fmt.Fprintf(&b, "Court: %s\n", c.CourtName)
	}
	if c.JudgeName != nil {
		fmt.Fprintf(&b, "Judge: %s\n", *c.JudgeName)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(&b, "Today: %s\n", now.Format(models.DateLayout))

	if len(hearings) == 0 {
		b.WriteString("\nNo hearings recorded.\n")
		return b.String()
	}

	b.WriteString("\nHearings (oldest first):\n")
	for _, h := range hearings {
		fmt.Fprintf(&b, "- %s %s [%s]", h.HearingDate.Format(models.DateLayout), h.HearingType, h.Status)
		if h.HearingTime != nil {
			fmt.Fprintf(&b, " at %s", *h.HearingTime)
		}
		if cal != nil {
			if status := cal.Resolve(h.HearingDate); !status.IsWorkingDay && status.Label != "" {
				fmt.Fprintf(&b, " (court closed: %s)", status.Label)
			}
		}
		if h.NextDate != nil {
			fmt.Fprintf(&b, ", adjourned to %s", h.NextDate.Format(models.DateLayout))
		}
		if h.Notes != nil {
			fmt.Fprintf(&b, "\n  Notes: %s", *h.Notes)
		}
		b.WriteString("\n")
	}
	return b.String()
}
