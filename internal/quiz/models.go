package quiz

// AnswerKind distinguishes single-choice from multi-choice questions.
// It is resolved once when the bank is parsed; nothing downstream
// re-inspects the raw shape of the correct field.
type AnswerKind string

const (
	SingleChoice AnswerKind = "single"
	MultiChoice  AnswerKind = "multi"
)

type Question struct {
	Text    string     `json:"question"`
	Options []string   `json:"options"`
	Kind    AnswerKind `json:"kind"`
	// Correct holds exactly one element for single-choice questions and
	// the expected set (order irrelevant) for multi-choice.
	Correct []string `json:"correct,omitempty"`
}

// Answer is a participant's recorded answer for one question. Its Kind
// must match the question's kind; a mismatched shape scores as incorrect.
type Answer struct {
	Kind   AnswerKind `json:"kind"`
	Single string     `json:"single,omitempty"`
	Multi  []string   `json:"multi,omitempty"`
}

// Empty reports whether the answer carries no selection.
func (a Answer) Empty() bool {
	switch a.Kind {
	case SingleChoice:
		return a.Single == ""
	case MultiChoice:
		return len(a.Multi) == 0
	}
	return true
}

type Participant struct {
	Name       string `json:"name"`
	EmployeeNo string `json:"employee_no,omitempty"`
	Department string `json:"department,omitempty"`
}

// Session is one participant's attempt: a fixed sampled question
// sequence, the answers recorded so far, and a cursor. Once Submitted
// flips true the session is immutable; further interaction requires a
// fresh session.
type Session struct {
	ID          string         `json:"id"`
	Participant Participant    `json:"participant"`
	Questions   []Question     `json:"questions"`
	Answers     map[int]Answer `json:"answers"`
	Current     int            `json:"current"`
	Submitted   bool           `json:"submitted"`
}

// NewSession builds a fresh session over an already-sampled question
// sequence.
func NewSession(id string, p Participant, questions []Question) *Session {
	return &Session{
		ID:          id,
		Participant: p,
		Questions:   questions,
		Answers:     map[int]Answer{},
	}
}

// Last reports whether the cursor sits on the final question.
func (s *Session) Last() bool {
	return s.Current == len(s.Questions)-1
}

// AttemptResult is the scored outcome handed to the history store.
// The timestamp is assigned by the store, not here.
type AttemptResult struct {
	Name       string `json:"name"`
	EmployeeNo string `json:"employee_no,omitempty"`
	Department string `json:"department,omitempty"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Passed     bool   `json:"passed"`
}
