package gemini

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/marcucus/goldwen-backend/internal/domain/enums"
	"github.com/marcucus/goldwen-backend/internal/services/moderation"
)

const defaultModel = "models/gemini-1.5-flash"

// Client classifies dating-profile content with Gemini's safety ratings.
// No generation output is used; the model is only asked to look at the
// content and the verdict is read from the safety metadata.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	if strings.TrimSpace(modelName) == "" {
		modelName = defaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockMediumAndAbove},
	}

	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) ClassifyText(ctx context.Context, text string) (moderation.Classification, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return moderation.Classification{}, fmt.Errorf("gemini classify text: %w", err)
	}
	return interpret(resp), nil
}

func (c *Client) ClassifyImage(ctx context.Context, data []byte, mimeType string) (moderation.Classification, error) {
	format := "jpeg"
	if rest := strings.TrimPrefix(mimeType, "image/"); rest != mimeType && rest != "" {
		format = rest
	}

	resp, err := c.model.GenerateContent(ctx, genai.ImageData(format, data))
	if err != nil {
		return moderation.Classification{}, fmt.Errorf("gemini classify image: %w", err)
	}
	return interpret(resp), nil
}

// interpret reads the verdict out of prompt feedback and candidate safety
// ratings. Anything the model refused to process, or rated medium or
// higher on a harm category, blocks.
func interpret(resp *genai.GenerateContentResponse) moderation.Classification {
	var out moderation.Classification

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		out.Flagged = true
		out.ShouldBlock = true
		out.Reason = "content refused by safety filter"
		for _, rating := range resp.PromptFeedback.SafetyRatings {
			if category, ok := mapCategory(rating.Category); ok && rating.Probability >= genai.HarmProbabilityMedium {
				out.Categories = append(out.Categories, category)
			}
		}
		if len(out.Categories) == 0 {
			out.Categories = []enums.ContentCategory{enums.ContentCategoryOther}
		}
		return out
	}

	for _, candidate := range resp.Candidates {
		if candidate.FinishReason == genai.FinishReasonSafety {
			out.Flagged = true
			out.ShouldBlock = true
			out.Reason = "content stopped by safety filter"
		}
		for _, rating := range candidate.SafetyRatings {
			category, ok := mapCategory(rating.Category)
			if !ok || rating.Probability < genai.HarmProbabilityMedium {
				continue
			}
			out.Flagged = true
			out.ShouldBlock = true
			out.Categories = append(out.Categories, category)
		}
	}

	if out.ShouldBlock && out.Reason == "" {
		out.Reason = "harmful content detected"
	}
	return out
}

func mapCategory(category genai.HarmCategory) (enums.ContentCategory, bool) {
	switch category {
	case genai.HarmCategoryHarassment:
		return enums.ContentCategoryHarassment, true
	case genai.HarmCategoryHateSpeech:
		return enums.ContentCategoryHateSpeech, true
	case genai.HarmCategorySexuallyExplicit:
		return enums.ContentCategorySexuallyExplicit, true
	case genai.HarmCategoryDangerousContent:
		return enums.ContentCategoryDangerous, true
	default:
		return enums.ContentCategoryOther, false
	}
}
