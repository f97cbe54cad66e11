package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/taskey/taskey-api/internal/models"
)

// Recommender is the advisory AI collaborator. Callers must tolerate any
// error it returns.
type Recommender interface {
	// RankHelpers orders candidate helper ids by fit for the task.
	RankHelpers(ctx context.Context, task *models.Task, candidates []models.HelperProfile) ([]uint64, error)

	// SuggestSkills proposes service categories from a helper's self-description.
	SuggestSkills(ctx context.Context, aboutMe string, current []string) ([]string, error)
}

// OpenAIRecommender implements Recommender with the OpenAI chat API
type OpenAIRecommender struct {
	client *openai.Client
	model  string
}

func NewOpenAIRecommender(apiKey, model string) *OpenAIRecommender {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIRecommender{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

type helperCandidate struct {
	ID               uint64   `json:"id"`
	Categories       []string `json:"categories"`
	Areas            []string `json:"areas"`
	RatingAvg        float64  `json:"rating_avg"`
	JobsCompleted    int      `json:"jobs_completed"`
	ReliabilityLevel string   `json:"reliability_level"`
	AboutMe          string   `json:"about_me"`
}

// RankHelpers asks the model for candidate ids, best fit first
func (r *OpenAIRecommender) RankHelpers(ctx context.Context, task *models.Task, candidates []models.HelperProfile) ([]uint64, error) {
	list := make([]helperCandidate, len(candidates))
	for i, h := range candidates {
		list[i] = helperCandidate{
			ID:               h.UserID,
			Categories:       h.ServiceCategories,
			Areas:            h.ServiceAreas,
			RatingAvg:        h.Stats.RatingAvg,
			JobsCompleted:    h.Stats.JobsCompleted,
			ReliabilityLevel: string(h.Stats.ReliabilityLevel),
			AboutMe:          h.AboutMe,
		}
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidates: %w", err)
	}

	prompt := fmt.Sprintf(`You match household tasks with helpers.

Task:
title: %s
category: %s
area: %s
effort: %s
required tools: %s
description:
%s

Candidates (JSON):
%s

Return only a JSON array of candidate ids ordered from best to worst fit, for example [12, 7, 3].
Leave out candidates that clearly cannot do the task. Return [] if none fit.`,
		task.Title, task.Category, task.Area, task.Effort,
		strings.Join(task.RequiredTools, ", "), task.Description, encoded)

	content, err := r.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	if err := json.Unmarshal([]byte(content), &ids); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	return ids, nil
}

// SuggestSkills asks the model for service categories matching aboutMe
func (r *OpenAIRecommender) SuggestSkills(ctx context.Context, aboutMe string, current []string) ([]string, error) {
	prompt := fmt.Sprintf(`A helper on a household task marketplace describes themselves as:

%s

They already list these service categories: %s

Suggest additional short service category names (one to three words each) that fit the description.
Return only a JSON array of strings. Return [] if nothing fits.`,
		aboutMe, strings.Join(current, ", "))

	content, err := r.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var skills []string
	if err := json.Unmarshal([]byte(content), &skills); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	return skills, nil
}

func (r *OpenAIRecommender) complete(ctx context.Context, prompt string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: r.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.2,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return stripCodeFence(resp.Choices[0].Message.Content), nil
}

// stripCodeFence removes a markdown code fence the model sometimes wraps
// JSON in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
