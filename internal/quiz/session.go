package quiz

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the single screen-state enumeration the whole UI projects
// from. Every screen is a pure function of the controller snapshot.
type State string

const (
	StateWelcome     State = "welcome"
	StateLoading     State = "loading"
	StateUnavailable State = "unavailable"
	StateQuestion    State = "question"
	StateResult      State = "result"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrSubmitted      = errors.New("session already submitted")
	ErrNotQuestion    = errors.New("no question in progress")
	ErrEmptySelection = errors.New("current question has no recorded answer")
	ErrLastQuestion   = errors.New("already on the last question")
	ErrNotLast        = errors.New("submit is only available on the last question")
	ErrUnknownOption  = errors.New("option is not part of the current question")
	ErrNotPassed      = errors.New("certificate requires a passed session")
	ErrNameRequired   = errors.New("participant name is required")
)

// Recorder persists a finalized attempt. Failures are non-fatal to the
// participant flow; the controller keeps the message for display.
type Recorder interface {
	Record(ctx context.Context, r AttemptResult) error
}

type ControllerConfig struct {
	SampleSize   int
	PassMark     int           // percentage threshold
	AdvanceDelay time.Duration // single-choice auto-advance
	FetchTimeout time.Duration
}

// Result is the scored outcome shown after submission.
type Result struct {
	Score       int      `json:"score"`
	Total       int      `json:"total"`
	Percent     int      `json:"percent"`
	Passed      bool     `json:"passed"`
	RecordError string   `json:"record_error,omitempty"`
	Review      []Review `json:"review,omitempty"`
}

// Review explains one incorrectly answered question.
type Review struct {
	Question string   `json:"question"`
	Given    []string `json:"given,omitempty"`
	Correct  []string `json:"correct"`
}

// Controller owns the single active session of this instance and is the
// only thing that mutates it. All methods are safe for concurrent use.
//
// Every load (start or retry) bumps an epoch; a bank fetch that resolves
// for a superseded epoch is discarded, so a reset issued while a fetch is
// in flight can never resurrect a stale session. The same guard covers
// the deferred single-choice auto-advance.
type Controller struct {
	mu       sync.Mutex
	cfg      ControllerConfig
	source   BankSource
	recorder Recorder
	rng      *rand.Rand

	state       State
	epoch       uint64
	participant Participant
	session     *Session
	result      *Result
	loadErr     string
}

func NewController(cfg ControllerConfig, source BankSource, recorder Recorder, rng *rand.Rand) *Controller {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Controller{
		cfg:      cfg,
		source:   source,
		recorder: recorder,
		rng:      rng,
		state:    StateWelcome,
	}
}

// Start captures the participant identity and kicks an asynchronous bank
// load. The controller moves to StateLoading immediately; the load
// resolves to StateQuestion or StateUnavailable.
func (c *Controller) Start(p Participant) error {
	if p.Name == "" {
		return ErrNameRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.participant = p
	c.beginLoadLocked()
	return nil
}

// Retry discards the finished session and samples a fresh one for the
// same participant. Nothing carries over.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.participant.Name == "" {
		return ErrNoSession
	}
	c.beginLoadLocked()
	return nil
}

// Reset returns to the welcome state and invalidates anything in flight.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.participant = Participant{}
	c.session = nil
	c.result = nil
	c.loadErr = ""
	c.state = StateWelcome
}

// beginLoadLocked resets session state and launches the fetch for a new
// epoch. Caller holds c.mu.
func (c *Controller) beginLoadLocked() {
	c.epoch++
	epoch := c.epoch
	c.session = nil
	c.result = nil
	c.loadErr = ""
	c.state = StateLoading

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FetchTimeout)
		defer cancel()
		raw, err := c.source.Fetch(ctx)
		var bank []Question
		if err == nil {
			bank, err = Parse(raw)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if epoch != c.epoch {
			// A reset or retry superseded this load; drop the response.
			return
		}
		if err != nil {
			c.loadErr = err.Error()
			c.state = StateUnavailable
			return
		}
		c.session = NewSession(uuid.NewString(), c.participant, c.sample(bank))
		c.state = StateQuestion
	}()
}

func (c *Controller) sample(bank []Question) []Question {
	return Sample(bank, c.cfg.SampleSize, c.rng)
}

// Select records option o against the current question. Single-choice
// overwrites the answer and schedules the auto-advance; multi-choice
// toggles set membership.
func (c *Controller) Select(o string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.activeLocked()
	if err != nil {
		return err
	}
	q := s.Questions[s.Current]
	if !contains(q.Options, o) {
		return ErrUnknownOption
	}

	switch q.Kind {
	case SingleChoice:
		s.Answers[s.Current] = Answer{Kind: SingleChoice, Single: o}
		if !s.Last() {
			c.scheduleAdvanceLocked(s.Current)
		}
	case MultiChoice:
		ans := s.Answers[s.Current]
		ans.Kind = MultiChoice
		ans.Multi = toggle(ans.Multi, o)
		s.Answers[s.Current] = ans
	}
	return nil
}

// scheduleAdvanceLocked defers the single-choice advance so the UI can
// flash the selection first. The timer re-validates the epoch and cursor:
// a reset, retry, submit or manual navigation in the meantime wins.
func (c *Controller) scheduleAdvanceLocked(index int) {
	epoch := c.epoch
	time.AfterFunc(c.cfg.AdvanceDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if epoch != c.epoch || c.state != StateQuestion || c.session == nil {
			return
		}
		s := c.session
		if s.Submitted || s.Current != index || s.Last() {
			return
		}
		s.Current++
	})
}

// Advance moves to the next question. It is refused while the current
// question has no recorded answer and on the last question, where submit
// takes its place.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.activeLocked()
	if err != nil {
		return err
	}
	if s.Answers[s.Current].Empty() {
		return ErrEmptySelection
	}
	if s.Last() {
		return ErrLastQuestion
	}
	s.Current++
	return nil
}

// Submit finalizes the session: scores it, flips the monotonic submitted
// flag, and records the attempt exactly once. A recorder failure does not
// block the result; its message is retained on the result instead.
func (c *Controller) Submit(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	s, err := c.activeLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if !s.Last() {
		c.mu.Unlock()
		return nil, ErrNotLast
	}
	if s.Answers[s.Current].Empty() {
		c.mu.Unlock()
		return nil, ErrEmptySelection
	}

	s.Submitted = true
	score := Score(s)
	total := len(s.Questions)
	res := &Result{
		Score:   score,
		Total:   total,
		Percent: percent(score, total),
		Passed:  Passed(score, total, c.cfg.PassMark),
		Review:  review(s),
	}
	c.result = res
	c.state = StateResult
	attempt := AttemptResult{
		Name:       s.Participant.Name,
		EmployeeNo: s.Participant.EmployeeNo,
		Department: s.Participant.Department,
		Score:      score,
		Total:      total,
		Passed:     res.Passed,
	}
	recorder := c.recorder
	c.mu.Unlock()

	// Persist outside the lock; the participant sees the result whether
	// or not the insert succeeds.
	if recorder != nil {
		if err := recorder.Record(ctx, attempt); err != nil {
			c.mu.Lock()
			if c.result == res {
				res.RecordError = err.Error()
			}
			c.mu.Unlock()
		}
	}
	return res, nil
}

// CertificateData returns what the certificate renderer needs. Only a
// passed, submitted session has a certificate.
func (c *Controller) CertificateData() (Participant, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateResult || c.result == nil {
		return Participant{}, 0, ErrNoSession
	}
	if !c.result.Passed {
		return Participant{}, 0, ErrNotPassed
	}
	return c.session.Participant, c.result.Percent, nil
}

func (c *Controller) activeLocked() (*Session, error) {
	if c.state != StateQuestion || c.session == nil {
		return nil, ErrNotQuestion
	}
	if c.session.Submitted {
		return nil, ErrSubmitted
	}
	return c.session, nil
}

func percent(score, total int) int {
	if total == 0 {
		return 0
	}
	// round half up, matching toFixed(0) on the result screen
	return (score*100 + total/2) / total
}

func review(s *Session) []Review {
	var out []Review
	for i, q := range s.Questions {
		ans := s.Answers[i]
		if IsCorrect(q, ans) {
			continue
		}
		r := Review{Question: q.Text, Correct: q.Correct}
		switch ans.Kind {
		case SingleChoice:
			if ans.Single != "" {
				r.Given = []string{ans.Single}
			}
		case MultiChoice:
			r.Given = ans.Multi
		}
		out = append(out, r)
	}
	return out
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func toggle(set []string, v string) []string {
	for i, x := range set {
		if x == v {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return append(set, v)
}
