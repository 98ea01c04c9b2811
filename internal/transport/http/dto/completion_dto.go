package dto

type CompletionRequirements struct {
	MinimumPhotos            bool `json:"minimum_photos"`
	MinimumPrompts           bool `json:"minimum_prompts"`
	PersonalityQuestionnaire bool `json:"personality_questionnaire"`
	BasicInfo                bool `json:"basic_info"`
}

type CompletionResponse struct {
	IsComplete           bool                   `json:"is_complete"`
	CompletionPercentage int                    `json:"completion_percentage"`
	Requirements         CompletionRequirements `json:"requirements"`
	MissingSteps         []string               `json:"missing_steps"`
	NextStep             string                 `json:"next_step"`
}
