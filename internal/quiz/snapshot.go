package quiz

// Snapshot is a read-only projection of the controller for the API
// layer. Answer keys are never exposed while a session is in progress;
// the result's review is the only place correct answers appear, and only
// after submission.
type Snapshot struct {
	State     State         `json:"state"`
	LoadError string        `json:"load_error,omitempty"`
	Question  *QuestionView `json:"question,omitempty"`
	Result    *Result       `json:"result,omitempty"`
}

type QuestionView struct {
	Index      int        `json:"index"` // 1-based, for "Question N of M"
	Total      int        `json:"total"`
	Text       string     `json:"text"`
	Options    []string   `json:"options"`
	Kind       AnswerKind `json:"kind"`
	Selected   []string   `json:"selected,omitempty"`
	CanAdvance bool       `json:"can_advance"`
	CanSubmit  bool       `json:"can_submit"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{State: c.state, LoadError: c.loadErr}
	switch c.state {
	case StateQuestion:
		s := c.session
		q := s.Questions[s.Current]
		ans := s.Answers[s.Current]
		view := &QuestionView{
			Index:   s.Current + 1,
			Total:   len(s.Questions),
			Text:    q.Text,
			Options: q.Options,
			Kind:    q.Kind,
		}
		switch ans.Kind {
		case SingleChoice:
			if ans.Single != "" {
				view.Selected = []string{ans.Single}
			}
		case MultiChoice:
			view.Selected = append([]string(nil), ans.Multi...)
		}
		answered := !ans.Empty()
		view.CanAdvance = answered && !s.Last()
		view.CanSubmit = answered && s.Last()
		snap.Question = view
	case StateResult:
		snap.Result = c.result
	}
	return snap
}
