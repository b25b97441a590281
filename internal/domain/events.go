package domain

// Client event types carried over the WebSocket transport.
const (
	EventStartInterview = "start_interview"
	EventMessage        = "message"
	EventUserInfo       = "user_info"
)

// Server event types.
const (
	EventResponse = "response"
	EventError    = "error"
)

// ClientEvent is a JSON frame received from the client.
type ClientEvent struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	UserID      string `json:"userId,omitempty"`
	InterviewID string `json:"interviewId,omitempty"`
}

// ServerEvent is a JSON frame sent to the client. The optional tags mark
// which kind of turn produced the response.
type ServerEvent struct {
	Type            string `json:"type"`
	Text            string `json:"text"`
	QuestionCount   int    `json:"questionCount,omitempty"`
	IsFirstQuestion bool   `json:"isFirstQuestion,omitempty"`
	IsFollowup      bool   `json:"isFollowup,omitempty"`
	FollowupCount   int    `json:"followupCount,omitempty"`
	IsConclusion    bool   `json:"isConclusion,omitempty"`
}
