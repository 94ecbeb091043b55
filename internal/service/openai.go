package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shindi/internal/config"
	"shindi/internal/logger"
	"shindi/internal/model"
)

// ModelClient is the boundary to the external language model. The pipeline
// treats the model as a black box: it sends conversation context plus the
// candidate apartments and gets back raw text carrying the control markup
// that ParseReply understands.
type ModelClient interface {
	// GenerateReply produces the raw assistant reply for one turn. history
	// excludes the current user message, which is passed separately.
	GenerateReply(ctx context.Context, history []model.Message, userMessage string, candidates []model.Apartment) (string, error)
}

const systemPrompt = `You are a professional real estate sales assistant for Company Shindi.

BEHAVIOR RULES:
- Never describe future actions ("I will search", "once I find"). Act in the present: suggest, ask, explain.
- If apartments in the DATABASE section match the user's preferences, suggest them immediately.
- If nothing in DATABASE matches, say so briefly and ask ONE adjustment question. NEVER invent an apartment or project.

CONVERSATION FLOW:
1. Introduce Company Shindi and ask for the preferred language.
2. Ask for the desired city; once known, tell the user which projects exist there (from DATABASE).
3. Ask for the construction status they want (use the constructionStatus array only).
4. If under construction: ask for downPayment and monthlyPayment. Do not ask for total budget unless the user mentions it.
5. As soon as enough data exists, suggest matching apartments from DATABASE.
6. Offer personalization; if accepted, ask ONE question at a time: minSize/maxSize, minFloor/maxFloor, viewType, requiresBalcony, rooms.
7. If the user declines, ask whether the sales team may contact them.
8. Only after explicit interest: ask for name and phone (email optional).

DATA CONTRACT:
At the END of every reply emit the preferences gathered so far:
<preferences>{ ... }</preferences>
Use ONLY these keys: name, phone, email, language, city, maxBudget, monthlyPayment, downPayment, minSize, maxSize, rooms, viewType, requiresBalcony, minFloor, maxFloor, constructionStatus.
Valid JSON only. Numbers must be numbers, booleans true/false, constructionStatus must be an array, prices in dollars. Omit unknown or empty fields.

When the user has agreed to be contacted and name and phone are known, also emit:
<leadReady>true</leadReady>

TONE: confident, sales-oriented, human. No internal reasoning, no process explanation.`

// OpenAIModelClient talks to an OpenAI-compatible chat completion API.
type OpenAIModelClient struct {
	config     *config.OpenAIConfig
	httpClient *http.Client
	log        *logger.Logger
}

var _ ModelClient = (*OpenAIModelClient)(nil)

// NewOpenAIModelClient creates a client from config. The HTTP client timeout
// bounds the model call so a hung upstream fails the turn instead of
// blocking it forever.
func NewOpenAIModelClient(cfg *config.OpenAIConfig, log *logger.Logger) *OpenAIModelClient {
	return &OpenAIModelClient{
		config: cfg,
		log:    log.With("component", "openai"),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// chatCompletionRequest is the OpenAI chat completion request envelope.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the subset of the API response the client reads.
type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateReply implements ModelClient.
func (c *OpenAIModelClient) GenerateReply(ctx context.Context, history []model.Message, userMessage string, candidates []model.Apartment) (string, error) {
	if !c.config.Enabled {
		return "", fmt.Errorf("OpenAI API is not enabled (missing API key)")
	}

	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: model.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{
		Role:    model.RoleUser,
		Content: userMessage + formatCandidates(candidates),
	})

	req := chatCompletionRequest{
		Model:       c.config.ChatModel,
		Messages:    messages,
		Temperature: c.config.ChatTemperature,
		MaxTokens:   c.config.ChatMaxTokens,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.config.APIBase)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty model reply")
	}

	c.log.Debug("model reply received",
		"prompt_tokens", result.Usage.PromptTokens,
		"completion_tokens", result.Usage.CompletionTokens,
	)
	return result.Choices[0].Message.Content, nil
}

// formatCandidates renders the matched apartments as the DATABASE block the
// system prompt refers to. An empty candidate set renders nothing, which the
// prompt handles by telling the user nothing is available.
func formatCandidates(candidates []model.Apartment) string {
	if len(candidates) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nDATABASE:\n")
	for _, a := range candidates {
		b.WriteString(fmt.Sprintf(
			"%s | %s %s | %.1fm² | %d rooms | Floor: %d | View: %s | Balcony: %s",
			a.ProjectName, a.City, a.Neighborhood, a.TotalArea, a.Rooms, a.Floor, a.ViewType, yesNo(a.HasBalcony),
		))
		if a.HasBalcony && a.BalconySize != nil {
			b.WriteString(fmt.Sprintf(" (%.0fm²)", *a.BalconySize))
		}
		b.WriteString(fmt.Sprintf(
			" | Price: $%.0f | Min Down: $%.0f | Monthly: $%.0f for %d months | Status: %s | Construction: %s",
			a.TotalPrice, a.MinInitialInstallment, a.MonthlyPayment, a.InstallmentDuration,
			a.AvailabilityStatus, a.ConstructionStatus,
		))
		if a.ExpectedCompletion != nil {
			b.WriteString(" | Completion: " + *a.ExpectedCompletion)
		}
		b.WriteString(" | Developer: " + a.DeveloperName)
		b.WriteString("\n")
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
