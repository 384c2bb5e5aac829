package pipeline

// Stage names a point in the ingestion state machine.
type Stage string

const (
	StageReceived      Stage = "Received"
	StageDecoding      Stage = "Decoding"
	StagePrompting     Stage = "Prompting"
	StageAwaitingModel Stage = "AwaitingModel"
	StageExtracting    Stage = "Extracting"
	StagePersisting    Stage = "Persisting"
	StageCompleted     Stage = "Completed"
	StageFailed        Stage = "Failed"
)

const (
	// DefaultTransactionType is assigned when the model omits "type".
	DefaultTransactionType = "expense"

	// UserIDPlaceholder is substituted with the caller's user id in the receipt prompt.
	UserIDPlaceholder = "{{USER_ID}}"
)

// SuggestedTags are the expense categories the model is nudged towards.
// Tags stay free text; the model may still pick something else.
var SuggestedTags = []string{
	"Food",
	"Transportation",
	"Housing",
	"Utilities",
	"Health",
	"Entertainment",
	"Shopping",
	"Education",
	"Travel",
	"Other",
}
