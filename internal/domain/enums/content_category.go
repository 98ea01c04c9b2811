package enums

// ContentCategory is the fixed vocabulary the moderation pipeline maps
// classifier output onto. Raw classifier categories outside this set are
// collapsed into ContentCategoryOther.
type ContentCategory string

const (
	ContentCategoryBlocklist        ContentCategory = "blocklist"
	ContentCategoryHarassment       ContentCategory = "harassment"
	ContentCategoryHateSpeech       ContentCategory = "hate_speech"
	ContentCategorySexuallyExplicit ContentCategory = "sexually_explicit"
	ContentCategoryDangerous        ContentCategory = "dangerous"
	ContentCategoryOther            ContentCategory = "other"
)
