// Package domain holds the core interview types shared across the service.
package domain

// Transcript roles. The gateway contract only knows these two.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one text fragment of a conversation turn.
type Part struct {
	Text string `json:"text"`
}

// Turn is a single conversation turn in the interview transcript. The
// transcript is append-only and is sent in full to the gateway on every call.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// UserTurn builds a user-role turn from plain text.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// ModelTurn builds a model-role turn from plain text.
func ModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// Text returns the concatenated text of a turn's parts.
func (t Turn) Text() string {
	if len(t.Parts) == 1 {
		return t.Parts[0].Text
	}
	var out string
	for _, p := range t.Parts {
		out += p.Text
	}
	return out
}
