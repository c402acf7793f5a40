package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// RawQuestion mirrors one record of the external bank source. Correct is
// either a JSON string (single-choice) or a JSON array of strings
// (multi-choice); the shape is resolved exactly once, in Parse.
type RawQuestion struct {
	Text    string          `json:"question"`
	Options []string        `json:"options"`
	Correct json.RawMessage `json:"correct"`
}

// BankSource fetches the raw question bank.
type BankSource interface {
	Fetch(ctx context.Context) ([]RawQuestion, error)
}

// HTTPSource fetches a JSON array of bank records from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]RawQuestion, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bank fetch: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bank fetch: unexpected status %d", res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("bank fetch: %w", err)
	}
	return decodeBank(body)
}

// FileSource reads the bank from a local JSON file.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(ctx context.Context) ([]RawQuestion, error) {
	body, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("bank read: %w", err)
	}
	return decodeBank(body)
}

func decodeBank(body []byte) ([]RawQuestion, error) {
	var raw []RawQuestion
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("bank decode: %w", err)
	}
	return raw, nil
}

// Parse validates raw bank records and resolves each one's answer kind.
// Any malformed record fails the whole bank; the caller surfaces that as
// the "bank unavailable" state rather than serving a partial pool.
func Parse(raw []RawQuestion) ([]Question, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("bank is empty")
	}
	out := make([]Question, 0, len(raw))
	for i, r := range raw {
		q, err := parseQuestion(r)
		if err != nil {
			return nil, fmt.Errorf("bank question %d: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func parseQuestion(r RawQuestion) (Question, error) {
	if r.Text == "" {
		return Question{}, fmt.Errorf("missing question text")
	}
	if len(r.Options) < 2 {
		return Question{}, fmt.Errorf("needs at least 2 options, got %d", len(r.Options))
	}
	opts := map[string]bool{}
	for _, o := range r.Options {
		if opts[o] {
			return Question{}, fmt.Errorf("duplicate option %q", o)
		}
		opts[o] = true
	}

	var single string
	if err := json.Unmarshal(r.Correct, &single); err == nil {
		if !opts[single] {
			return Question{}, fmt.Errorf("correct answer %q is not an option", single)
		}
		return Question{Text: r.Text, Options: r.Options, Kind: SingleChoice, Correct: []string{single}}, nil
	}

	var multi []string
	if err := json.Unmarshal(r.Correct, &multi); err != nil {
		return Question{}, fmt.Errorf("correct must be a string or an array of strings")
	}
	if len(multi) == 0 {
		return Question{}, fmt.Errorf("multi-choice correct set is empty")
	}
	seen := map[string]bool{}
	for _, c := range multi {
		if !opts[c] {
			return Question{}, fmt.Errorf("correct answer %q is not an option", c)
		}
		if seen[c] {
			return Question{}, fmt.Errorf("duplicate correct answer %q", c)
		}
		seen[c] = true
	}
	return Question{Text: r.Text, Options: r.Options, Kind: MultiChoice, Correct: multi}, nil
}
