package quiz

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

const (
	DefaultFontSize = 32
	Mask            = '_'
)

// Image is a picture shown once its question has been answered. Rotation and
// mirroring are carried as metadata; the viewer applies them.
type Image struct {
	Path    string
	BgColor string
	FlipH   bool
	FlipV   bool
	Rotate  int // 0|90|180|270; other values are passed through
}

// Question unlocks Letter in the solution when answered.
type Question struct {
	Answer   string
	Category string
	Question string // may hold simple HTML
	Letter   rune
	Images   []Image
}

// Quiz is a solution phrase with its questions and the current display.
type Quiz struct {
	Solution    string
	Letters     []rune // sorted, distinct
	Questions   []Question
	DisplayText string
	FontSize    int
}

// New builds a quiz for phrase with one placeholder question per distinct
// letter. Whitespace runs collapse to a single space; punctuation and spaces
// stay in the solution and are never masked.
func New(phrase string) Quiz {
	q := Quiz{
		Solution: strings.Join(strings.Fields(strings.ToUpper(phrase)), " "),
		FontSize: DefaultFontSize,
	}
	if q.Solution == "" {
		return q
	}

	for _, r := range q.Solution {
		if unicode.IsLetter(r) && !slices.Contains(q.Letters, r) {
			q.Letters = append(q.Letters, r)
		}
	}
	slices.Sort(q.Letters)

	q.Questions = make([]Question, 0, len(q.Letters))
	for i, l := range q.Letters {
		no := i + 1
		q.Questions = append(q.Questions, Question{
			Answer:   fmt.Sprintf("Answer %d", no),
			Category: fmt.Sprintf("Category %d", no),
			Question: fmt.Sprintf("Question %d", no),
			Letter:   l,
		})
	}

	q.Reset()
	return q
}

// IsEmpty reports whether the quiz has nothing to play.
func (q *Quiz) IsEmpty() bool {
	return len(q.Letters) == 0 || len(q.Questions) == 0 || q.Solution == ""
}

// Reset masks every letter of the solution.
func (q *Quiz) Reset() {
	q.DisplayText = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return Mask
		}
		return r
	}, q.Solution)
}

// Reveal uncovers every occurrence of letter and returns the display text.
// Anything that is not a letter leaves the display unchanged.
func (q *Quiz) Reveal(letter rune) string {
	if !unicode.IsLetter(letter) {
		return q.DisplayText
	}
	up := unicode.ToUpper(letter)

	sol := []rune(q.Solution)
	disp := []rune(q.DisplayText)
	n := min(len(sol), len(disp))
	for i := 0; i < n; i++ {
		if sol[i] == up {
			disp[i] = sol[i]
		}
	}
	q.DisplayText = string(disp)
	return q.DisplayText
}

// Solved reports whether nothing is masked any more.
func (q *Quiz) Solved() bool {
	return !q.IsEmpty() && q.DisplayText == q.Solution
}

// QuestionFor returns the question unlocking letter, matched case-insensitively.
func (q *Quiz) QuestionFor(letter rune) (Question, bool) {
	up := unicode.ToUpper(letter)
	for _, qq := range q.Questions {
		if qq.Letter == up {
			return qq, true
		}
	}
	return Question{}, false
}
