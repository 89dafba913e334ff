package interview

import (
	"errors"
	"fmt"
	"strings"
)

type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

var ErrOutOfTurn = errors.New("speaker is out of turn")

// Turn is one message of the conversation.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Transcript is an ordered list of turns that alternate, interviewer first.
type Transcript struct {
	turns []Turn
}

// Append adds turn if it is the expected speaker's turn.
func (t *Transcript) Append(turn Turn) error {
	if expected := t.next(); turn.Speaker != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrOutOfTurn, expected, turn.Speaker)
	}

	t.turns = append(t.turns, turn)
	return nil
}

func (t *Transcript) next() Speaker {
	if len(t.turns)%2 == 0 {
		return SpeakerInterviewer
	}
	return SpeakerCandidate
}

// AwaitingQuestion reports whether the next turn belongs to the interviewer.
func (t *Transcript) AwaitingQuestion() bool {
	return t.next() == SpeakerInterviewer
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the turns.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Format renders the transcript submitted for analysis:
// "AI: Q1\n\nCandidate: A1\n\nAI: Q2".
func (t *Transcript) Format() string {
	return t.render("AI", "Candidate", "\n\n")
}

// PreviousAnswers renders the conversation history sent with the next-question request:
// "Question: Q1\nAnswer: A1". It is empty before the first question.
func (t *Transcript) PreviousAnswers() string {
	return t.render("Question", "Answer", "\n")
}

func (t *Transcript) render(interviewerLabel, candidateLabel, sep string) string {
	lines := make([]string, 0, len(t.turns))
	for _, turn := range t.turns {
		label := candidateLabel
		if turn.Speaker == SpeakerInterviewer {
			label = interviewerLabel
		}
		lines = append(lines, label+": "+turn.Text)
	}
	return strings.Join(lines, sep)
}
