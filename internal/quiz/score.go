package quiz

import "sort"

// IsCorrect compares a recorded answer against the question's expected
// answer. Single-choice compares by value; multi-choice compares as sets,
// order-independent. An absent answer or one whose shape does not match
// the question's kind is simply incorrect.
func IsCorrect(q Question, ans Answer) bool {
	if ans.Kind != q.Kind {
		return false
	}
	switch q.Kind {
	case SingleChoice:
		return len(q.Correct) == 1 && ans.Single == q.Correct[0]
	case MultiChoice:
		return equalSets(ans.Multi, q.Correct)
	}
	return false
}

// Score counts correct answers. Pure: repeated calls on an unmodified
// session return the same value.
func Score(s *Session) int {
	n := 0
	for i, q := range s.Questions {
		if IsCorrect(q, s.Answers[i]) {
			n++
		}
	}
	return n
}

// Passed applies the configured pass mark. Integer arithmetic keeps the
// boundary case (score/total*100 exactly equal to the mark) exact.
func Passed(score, total, passMark int) bool {
	return score*100 >= passMark*total
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
