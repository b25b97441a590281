package interview

import (
	"fmt"

	"github.com/hirevox/interview-server/internal/domain"
)

// Sampling temperatures per turn kind. Question turns use a band keyed off
// the question count; follow-ups and conclusions are fixed.
const (
	defaultTemperature  = 0.7
	followupTemperature = 0.5
)

// topicTable is the fixed rotation used for mid-interview questions, indexed
// by questionCount mod 8.
var topicTable = [8]string{
	"programming fundamentals",
	"data structures",
	"algorithms",
	"system design principles",
	"software architecture",
	"debugging techniques",
	"performance optimization",
	"testing methodologies",
}

// questionTemperature returns the sampling temperature for the question band:
// warm-up questions run hot, late questions slightly above the mid band.
func questionTemperature(questionCount int) float64 {
	switch {
	case questionCount < 2:
		return 0.7
	case questionCount > 6:
		return 0.6
	default:
		return 0.5
	}
}

func openingDirective() string {
	return "You are a professional technical interviewer running a live screening interview. " +
		"Introduce yourself briefly, welcome the candidate, and ask one easy opening question " +
		"about their background. Keep it to a few sentences and end with the question."
}

// nextQuestionDirective selects the directive for the next question based on
// how far the interview has progressed and the inferred candidate level.
func nextQuestionDirective(questionCount int, level domain.CandidateLevel, maxQuestions int) string {
	switch {
	case questionCount < 2:
		return fmt.Sprintf(
			"Acknowledge the candidate's answer in one sentence, then ask an easy warm-up "+
				"technical question suitable for a %s-level candidate.", level)
	case questionCount < 5:
		topic := topicTable[questionCount%len(topicTable)]
		return fmt.Sprintf(
			"Briefly acknowledge the answer, then ask a moderately difficult question about %s, "+
				"pitched at a %s-level candidate. Ask one question only.", topic, level)
	case questionCount == maxQuestions-1:
		return fmt.Sprintf(
			"This is the final question of the interview. Ask the candidate one challenging, "+
				"open-ended question worthy of a %s-level engineer, and mention that it is the "+
				"last question.", level)
	default:
		return fmt.Sprintf(
			"Acknowledge the answer, then ask a harder, open-ended question that probes the "+
				"depth of a %s-level candidate's experience. Ask one question only.", level)
	}
}

// followupDirective returns the re-engagement wording for the nth consecutive
// silent period (1 or 2).
func followupDirective(followupCount int) string {
	if followupCount <= 1 {
		return "The candidate has gone quiet. Gently check in, reassure them there is no rush, " +
			"and restate the current question in a simpler form."
	}
	return "The candidate is still silent after your check-in. Ask once more whether they would " +
		"like to continue, and offer to move on to a different question if this one is difficult."
}

// conclusionDirective returns the closing wording, distinguishing a normally
// completed interview from one ended by repeated silence.
func conclusionDirective(silent bool) string {
	if silent {
		return "The candidate has stopped responding. Politely wrap up the interview, note that " +
			"it can be rescheduled, and say goodbye."
	}
	return "The interview has covered all planned questions. Thank the candidate warmly for " +
		"their time, give a short encouraging summary of the conversation, and explain that " +
		"the team will follow up with next steps."
}
