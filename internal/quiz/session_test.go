package quiz

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu      sync.Mutex
	raw     []RawQuestion
	err     error
	release chan struct{} // when set, Fetch blocks until closed
	calls   int
}

func (f *fakeSource) Fetch(ctx context.Context) ([]RawQuestion, error) {
	f.mu.Lock()
	f.calls++
	raw, err, release := f.raw, f.err, f.release
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return raw, err
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []AttemptResult
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, r AttemptResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return f.err
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func rawBank(n int) []RawQuestion {
	raw := make([]RawQuestion, 0, n)
	for i := 0; i < n; i++ {
		raw = append(raw, RawQuestion{
			Text:    string(rune('A'+i)) + "?",
			Options: []string{"right", "wrong", "other"},
			Correct: []byte(`"right"`),
		})
	}
	return raw
}

func newTestController(t *testing.T, src BankSource, rec Recorder, passMark int) *Controller {
	t.Helper()
	return NewController(ControllerConfig{
		SampleSize:   10,
		PassMark:     passMark,
		AdvanceDelay: time.Millisecond,
		FetchTimeout: time.Second,
	}, src, rec, rand.New(rand.NewSource(1)))
}

func waitState(t *testing.T, c *Controller, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := c.Snapshot()
		if snap.State == want {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("controller never reached state %q (last: %q)", want, c.Snapshot().State)
	return Snapshot{}
}

func TestController_StartSamplesSession(t *testing.T) {
	src := &fakeSource{raw: rawBank(12)}
	c := newTestController(t, src, &fakeRecorder{}, 10)

	if err := c.Start(Participant{Name: "李雷"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := waitState(t, c, StateQuestion)
	if snap.Question.Total != 10 {
		t.Fatalf("session has %d questions, want 10 of a 12-question bank", snap.Question.Total)
	}
	if snap.Question.Index != 1 {
		t.Fatalf("cursor starts at %d, want 1", snap.Question.Index)
	}
}

func TestController_StartRequiresName(t *testing.T) {
	c := newTestController(t, &fakeSource{raw: rawBank(3)}, &fakeRecorder{}, 10)
	if err := c.Start(Participant{}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("Start err = %v, want ErrNameRequired", err)
	}
}

func TestController_BankUnavailable(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	c := newTestController(t, src, &fakeRecorder{}, 10)

	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := waitState(t, c, StateUnavailable)
	if snap.LoadError == "" {
		t.Fatal("unavailable state should carry the load error")
	}

	// Retry recovers once the source does.
	src.mu.Lock()
	src.err = nil
	src.raw = rawBank(5)
	src.mu.Unlock()
	if err := c.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	waitState(t, c, StateQuestion)
}

func TestController_MalformedBankIsUnavailable(t *testing.T) {
	src := &fakeSource{raw: []RawQuestion{{Text: "q", Options: []string{"a", "b"}, Correct: []byte(`"z"`)}}}
	c := newTestController(t, src, &fakeRecorder{}, 10)

	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateUnavailable)
}

func TestController_SingleChoiceAutoAdvances(t *testing.T) {
	src := &fakeSource{raw: rawBank(3)}
	c := newTestController(t, src, &fakeRecorder{}, 10)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := waitState(t, c, StateQuestion)

	if err := c.Select(snap.Question.Options[0]); err != nil {
		t.Fatalf("Select: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Snapshot().Question.Index == 2 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("single-choice selection never auto-advanced")
}

func TestController_NoAutoAdvancePastLastQuestion(t *testing.T) {
	src := &fakeSource{raw: rawBank(1)}
	c := newTestController(t, src, &fakeRecorder{}, 10)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := waitState(t, c, StateQuestion)

	if err := c.Select(snap.Question.Options[0]); err != nil {
		t.Fatalf("Select: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	snap = c.Snapshot()
	if snap.State != StateQuestion || snap.Question.Index != 1 {
		t.Fatalf("cursor moved past the last question: %+v", snap)
	}
	if !snap.Question.CanSubmit {
		t.Fatal("answered last question should allow submit")
	}
}

func multiBank() []RawQuestion {
	return []RawQuestion{
		{Text: "m1", Options: []string{"A", "B", "C", "D"}, Correct: []byte(`["A","C"]`)},
		{Text: "m2", Options: []string{"A", "B", "C"}, Correct: []byte(`["B"]`)},
	}
}

func TestController_MultiChoiceToggles(t *testing.T) {
	src := &fakeSource{raw: multiBank()}
	c := newTestController(t, src, &fakeRecorder{}, 10)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)

	// Empty set blocks forward navigation.
	if err := c.Advance(); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("Advance on empty set: %v, want ErrEmptySelection", err)
	}

	for _, o := range []string{"A", "B", "A", "C", "A"} {
		if err := c.Select(o); err != nil {
			t.Fatalf("Select(%q): %v", o, err)
		}
	}
	// A toggled in, out, in again; B in; C in.
	sel := c.Snapshot().Question.Selected
	want := map[string]bool{"A": true, "B": true, "C": true}
	if len(sel) != len(want) {
		t.Fatalf("selected = %v, want A B C exactly once each", sel)
	}
	for _, o := range sel {
		if !want[o] {
			t.Fatalf("unexpected selection %q", o)
		}
		delete(want, o)
	}

	// Multi-choice never auto-advances.
	time.Sleep(20 * time.Millisecond)
	if got := c.Snapshot().Question.Index; got != 1 {
		t.Fatalf("multi-choice auto-advanced to %d", got)
	}

	if err := c.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := c.Snapshot().Question.Index; got != 2 {
		t.Fatalf("cursor = %d after Advance, want 2", got)
	}
}

func TestController_UnknownOptionRejected(t *testing.T) {
	src := &fakeSource{raw: rawBank(2)}
	c := newTestController(t, src, &fakeRecorder{}, 10)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)
	if err := c.Select("not-an-option"); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("Select err = %v, want ErrUnknownOption", err)
	}
}

func answerAll(t *testing.T, c *Controller, pick func(view *QuestionView) string) {
	t.Helper()
	for {
		snap := c.Snapshot()
		if snap.State != StateQuestion {
			t.Fatalf("expected question state, got %q", snap.State)
		}
		q := snap.Question
		if err := c.Select(pick(q)); err != nil {
			t.Fatalf("Select on question %d: %v", q.Index, err)
		}
		if q.Index == q.Total {
			return
		}
		if q.Kind == MultiChoice {
			if err := c.Advance(); err != nil {
				t.Fatalf("Advance: %v", err)
			}
		}
		// single-choice advances via its timer; wait either way
		deadline := time.Now().Add(time.Second)
		for c.Snapshot().Question.Index == q.Index {
			if time.Now().After(deadline) {
				t.Fatalf("never advanced past question %d", q.Index)
			}
			time.Sleep(time.Millisecond)
		}
	}
}

func TestController_SubmitScoresAndRecordsOnce(t *testing.T) {
	src := &fakeSource{raw: rawBank(4)}
	rec := &fakeRecorder{}
	c := newTestController(t, src, rec, 70)
	if err := c.Start(Participant{Name: "李雷", EmployeeNo: "42", Department: "ShzP/QMM"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)

	answerAll(t, c, func(*QuestionView) string { return "right" })

	res, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 4 || res.Total != 4 || !res.Passed || res.Percent != 100 {
		t.Fatalf("result = %+v", res)
	}
	if rec.count() != 1 {
		t.Fatalf("recorded %d attempts, want exactly 1", rec.count())
	}
	got := rec.records[0]
	if got.Name != "李雷" || got.EmployeeNo != "42" || got.Department != "ShzP/QMM" || !got.Passed {
		t.Fatalf("recorded attempt = %+v", got)
	}

	// A second submit must not double-record.
	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatal("expected error on second submit")
	}
	if rec.count() != 1 {
		t.Fatalf("second submit recorded again: %d", rec.count())
	}
}

func TestController_SubmitFailedInsertKeepsResult(t *testing.T) {
	src := &fakeSource{raw: rawBank(2)}
	rec := &fakeRecorder{err: errors.New("insert failed: timeout")}
	c := newTestController(t, src, rec, 10)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)
	answerAll(t, c, func(*QuestionView) string { return "right" })

	res, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit must not fail on recorder error: %v", err)
	}
	if res.RecordError == "" {
		t.Fatal("recorder failure should be retained on the result")
	}
	if c.Snapshot().State != StateResult {
		t.Fatal("result screen should still render after a failed insert")
	}
}

func TestController_SubmitRequiresAnsweredLastQuestion(t *testing.T) {
	src := &fakeSource{raw: multiBank()}
	c := newTestController(t, src, &fakeRecorder{}, 10)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotLast) {
		t.Fatalf("Submit off last question: %v, want ErrNotLast", err)
	}
	if err := c.Select("A"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := c.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("Submit with empty answer: %v, want ErrEmptySelection", err)
	}
}

func TestController_ReviewListsWrongAnswers(t *testing.T) {
	src := &fakeSource{raw: rawBank(3)}
	c := newTestController(t, src, &fakeRecorder{}, 10)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)
	answerAll(t, c, func(*QuestionView) string { return "wrong" })

	res, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 0 || len(res.Review) != 3 {
		t.Fatalf("result = %+v", res)
	}
	for _, r := range res.Review {
		if len(r.Given) != 1 || r.Given[0] != "wrong" {
			t.Fatalf("review given = %v", r.Given)
		}
		if len(r.Correct) != 1 || r.Correct[0] != "right" {
			t.Fatalf("review correct = %v", r.Correct)
		}
	}
}

func TestController_RetryDiscardsOldSession(t *testing.T) {
	src := &fakeSource{raw: rawBank(3)}
	rec := &fakeRecorder{}
	c := newTestController(t, src, rec, 10)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)
	answerAll(t, c, func(*QuestionView) string { return "right" })
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := c.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	snap := waitState(t, c, StateQuestion)
	if len(snap.Question.Selected) != 0 || snap.Question.Index != 1 {
		t.Fatalf("retry carried state over: %+v", snap.Question)
	}
}

func TestController_ResetDiscardsStaleFetch(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{raw: rawBank(3), release: release}
	c := newTestController(t, src, &fakeRecorder{}, 10)

	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := c.Snapshot().State; got != StateLoading {
		t.Fatalf("state = %q while fetch in flight, want loading", got)
	}

	c.Reset()
	close(release) // stale response arrives after the reset

	time.Sleep(20 * time.Millisecond)
	if got := c.Snapshot().State; got != StateWelcome {
		t.Fatalf("stale fetch mutated a reset controller: state = %q", got)
	}
}

func TestController_StaleFetchLosesToNewerStart(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{raw: rawBank(3), release: release}
	c := newTestController(t, src, &fakeRecorder{}, 10)

	if err := c.Start(Participant{Name: "first"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Second start supersedes the first while its fetch is blocked.
	src.mu.Lock()
	src.release = nil
	src.mu.Unlock()
	if err := c.Start(Participant{Name: "second"}); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	waitState(t, c, StateQuestion)
	close(release)

	time.Sleep(20 * time.Millisecond)
	snap := c.Snapshot()
	if snap.State != StateQuestion {
		t.Fatalf("state = %q after stale response, want question", snap.State)
	}
}

func TestController_CertificateData(t *testing.T) {
	src := &fakeSource{raw: rawBank(2)}
	c := newTestController(t, src, &fakeRecorder{}, 10)
	if err := c.Start(Participant{Name: "李雷", Department: "ShzP/QMM"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)

	if _, _, err := c.CertificateData(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("CertificateData before result: %v, want ErrNoSession", err)
	}

	answerAll(t, c, func(*QuestionView) string { return "right" })
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	p, pct, err := c.CertificateData()
	if err != nil {
		t.Fatalf("CertificateData: %v", err)
	}
	if p.Name != "李雷" || pct != 100 {
		t.Fatalf("certificate data = %+v %d", p, pct)
	}
}

func TestController_CertificateRequiresPass(t *testing.T) {
	src := &fakeSource{raw: rawBank(2)}
	c := newTestController(t, src, &fakeRecorder{}, 90)
	if err := c.Start(Participant{Name: "x"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitState(t, c, StateQuestion)
	answerAll(t, c, func(*QuestionView) string { return "wrong" })
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, _, err := c.CertificateData(); !errors.Is(err, ErrNotPassed) {
		t.Fatalf("CertificateData on fail: %v, want ErrNotPassed", err)
	}
}
