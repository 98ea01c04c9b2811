package moderation

import (
	"fmt"
	"strings"

	"github.com/marcucus/goldwen-backend/internal/domain/enums"
)

const classifierUnavailableReason = "content could not be verified automatically"

const (
	rejectedTextTitle  = "Content not accepted"
	rejectedPhotoTitle = "Photo not accepted"
)

func blockedTermsReason(terms []string) string {
	if len(terms) == 0 {
		return "contains disallowed terms"
	}
	return fmt.Sprintf("contains disallowed terms: %s", strings.Join(terms, ", "))
}

func flaggedCategoriesReason(categories []enums.ContentCategory) string {
	if len(categories) == 0 {
		return "flagged by content review"
	}

	labels := make([]string, 0, len(categories))
	for _, category := range categories {
		labels = append(labels, string(category))
	}
	return fmt.Sprintf("flagged by content review: %s", strings.Join(labels, ", "))
}

func rejectedTextBody(reason string) string {
	if reason == "" {
		return "Part of your profile text was rejected by moderation. Please edit it and try again."
	}
	return fmt.Sprintf("Part of your profile text was rejected by moderation (%s). Please edit it and try again.", reason)
}

func rejectedPhotoBody(reason string) string {
	if reason == "" {
		return "One of your photos was rejected by moderation. Please upload a different one."
	}
	return fmt.Sprintf("One of your photos was rejected by moderation (%s). Please upload a different one.", reason)
}
