package game

import (
	"errors"
	"sync"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var (
	ErrNoQuiz       = errors.New("no quiz loaded")
	ErrNotFound     = errors.New("question not found")
	ErrAnswerHidden = errors.New("answer not shown yet")
)

// Entry is one row of the open-questions list. Index is the position of the
// question in the quiz and stays stable while other rows are removed.
type Entry struct {
	Index    int    `json:"index"`
	Category string `json:"category"`
}

type Snapshot struct {
	Display   string  `json:"display"`
	FontSize  int     `json:"font_size"`
	Solved    bool    `json:"solved"`
	Loaded    bool    `json:"loaded"`
	Source    string  `json:"source,omitempty"`
	Remaining []Entry `json:"remaining"`
}

type Prompt struct {
	Index    int    `json:"index"`
	Category string `json:"category"`
	Question string `json:"question"`
	FontSize int    `json:"font_size"`
}

type Result struct {
	Letter  string       `json:"letter"`
	Display string       `json:"display"`
	Solved  bool         `json:"solved"`
	Images  []quiz.Image `json:"-"`
	Source  string       `json:"-"` // key of the quiz the letter belongs to
}

// Session is the live game: one quiz, the questions still open and the
// subscribers watching the board.
type Session struct {
	mu       sync.Mutex
	q        quiz.Quiz
	source   string
	loaded   bool
	open     []int
	shown    map[int]bool
	answered map[int]bool
	subs     map[chan Snapshot]struct{}
}

func NewSession() *Session {
	return &Session{
		shown:    map[int]bool{},
		answered: map[int]bool{},
		subs:     map[chan Snapshot]struct{}{},
	}
}

// Load replaces the running quiz. source names where it came from (library
// id or file path). Empty quizzes are rejected and leave the current game
// untouched.
func (s *Session) Load(q quiz.Quiz, source string) error {
	if q.IsEmpty() {
		return ErrNoQuiz
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q = q
	s.source = source
	s.loaded = true
	s.restartLocked()
	return nil
}

// Reset starts the loaded quiz over.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNoQuiz
	}
	s.restartLocked()
	return nil
}

func (s *Session) restartLocked() {
	s.q.Reset()
	s.open = make([]int, len(s.q.Questions))
	for i := range s.open {
		s.open[i] = i
	}
	s.shown = map[int]bool{}
	s.answered = map[int]bool{}
	s.publishLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Display:   s.q.DisplayText,
		FontSize:  s.q.FontSize,
		Solved:    s.q.Solved(),
		Loaded:    s.loaded,
		Source:    s.source,
		Remaining: make([]Entry, 0, len(s.open)),
	}
	for _, i := range s.open {
		snap.Remaining = append(snap.Remaining, Entry{Index: i, Category: s.q.Questions[i].Category})
	}
	return snap
}

func (s *Session) Remaining() []Entry {
	return s.Snapshot().Remaining
}

// Open returns the question text for an open entry. The answer stays hidden
// until ShowAnswer.
func (s *Session) Open(index int) (Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qq, err := s.openQuestionLocked(index)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Index: index, Category: qq.Category, Question: qq.Question, FontSize: s.q.FontSize}, nil
}

func (s *Session) ShowAnswer(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qq, err := s.openQuestionLocked(index)
	if err != nil {
		return "", err
	}
	s.shown[index] = true
	return qq.Answer, nil
}

// Dismiss closes the question without answering it.
func (s *Session) Dismiss(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.openQuestionLocked(index); err != nil {
		return err
	}
	delete(s.shown, index)
	return nil
}

// Accept reveals the question's letter and removes it from the open list.
func (s *Session) Accept(index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qq, err := s.openQuestionLocked(index)
	if err != nil {
		return Result{}, err
	}
	if !s.shown[index] {
		return Result{}, ErrAnswerHidden
	}

	display := s.q.Reveal(qq.Letter)
	delete(s.shown, index)
	s.answered[index] = true
	for i, v := range s.open {
		if v == index {
			s.open = append(s.open[:i], s.open[i+1:]...)
			break
		}
	}
	s.publishLocked()

	return Result{
		Letter:  string(qq.Letter),
		Display: display,
		Solved:  s.q.Solved(),
		Images:  qq.Images,
		Source:  s.source,
	}, nil
}

// Image returns image n of an answered question.
func (s *Session) Image(index, n int) (quiz.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return quiz.Image{}, ErrNoQuiz
	}
	if !s.answered[index] {
		return quiz.Image{}, ErrNotFound
	}
	imgs := s.q.Questions[index].Images
	if n < 0 || n >= len(imgs) {
		return quiz.Image{}, ErrNotFound
	}
	return imgs[n], nil
}

func (s *Session) openQuestionLocked(index int) (quiz.Question, error) {
	if !s.loaded {
		return quiz.Question{}, ErrNoQuiz
	}
	for _, v := range s.open {
		if v == index {
			return s.q.Questions[index], nil
		}
	}
	return quiz.Question{}, ErrNotFound
}

// Subscribe delivers the current snapshot and every later change. Slow
// readers only see the latest snapshot.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
