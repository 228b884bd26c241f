package quiz

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ropeacademy/academy/core"
	"github.com/ropeacademy/academy/core/user"
)

// Kind is the kind of answer a Question expects.
type Kind string

const (
	KindText   Kind = "text"   // free text, graded leniently
	KindNumber Kind = "number" // graded with a tolerance
	KindChoice Kind = "choice" // one of Question.Choices
)

var Kinds = []Kind{KindText, KindNumber, KindChoice}

type Question struct {
	ID      string   `json:"id" yaml:"id" validate:"required,alphanum_"`
	Prompt  string   `json:"prompt" yaml:"prompt" validate:"required,notblank"`
	Kind    Kind     `json:"kind" yaml:"kind" validate:"required,oneof=text number choice"`
	Answer  string   `json:"answer" yaml:"answer" validate:"required,notblank"`
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Points  int      `json:"points,omitempty" yaml:"points,omitempty" validate:"gte=0"`
}

// Worth returns the points awarded for a correct answer; 1 when unset.
func (q Question) Worth() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// Quiz is a daily quiz form.
type Quiz struct {
	ID        string     `json:"id" yaml:"id" validate:"required,notblank"`
	Title     string     `json:"title" yaml:"title" validate:"required,notblank"`
	Date      string     `json:"date,omitempty" yaml:"date,omitempty"`
	Trainer   *user.User `json:"trainer,omitempty" yaml:"trainer,omitempty" validate:"omitempty"`
	PassMark  float64    `json:"pass_mark,omitempty" yaml:"pass_mark,omitempty" validate:"gte=0,lte=1"`
	Questions []Question `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
}

func (qz *Quiz) Clean() {
	qz.ID = core.CleanString(qz.ID)
	qz.Title = core.CleanString(qz.Title)
	if qz.Trainer != nil {
		qz.Trainer.Clean()
	}
	for i := range qz.Questions {
		q := &qz.Questions[i]
		q.ID = core.CleanString(q.ID)
		q.Kind = Kind(core.CleanString(string(q.Kind), true /* lower */))
		if q.Kind == "" {
			q.Kind = KindText
		}
	}
}

// Copy returns a deep copy of the quiz, safe to clean without touching qz.
func (qz *Quiz) Copy() Quiz {
	c := *qz
	if qz.Trainer != nil {
		trainer := *qz.Trainer
		c.Trainer = &trainer
	}
	if qz.Questions != nil {
		c.Questions = make([]Question, len(qz.Questions))
		for i, q := range qz.Questions {
			q.Choices = append([]string(nil), q.Choices...)
			c.Questions[i] = q
		}
	}
	return c
}

func (qz *Quiz) Validate(validate *validator.Validate) error {
	qz.Clean()
	return validate.Struct(qz)
}

// Question returns the question with the given ID.
func (qz *Quiz) Question(id string) (Question, bool) {
	for _, q := range qz.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Submission holds a trainee's answers to a Quiz, keyed by Question.ID.
type Submission struct {
	QuizID      string            `json:"quiz_id" yaml:"quiz_id" validate:"required,notblank"`
	Trainee     user.User         `json:"trainee" yaml:"trainee"`
	Answers     map[string]string `json:"answers" yaml:"answers"`
	SubmittedAt time.Time         `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
}

func (sub *Submission) Clean() {
	sub.QuizID = core.CleanString(sub.QuizID)
	sub.Trainee.Clean()
	cleaned := make(map[string]string, len(sub.Answers))
	for id, ans := range sub.Answers {
		cleaned[core.CleanString(id)] = ans
	}
	sub.Answers = cleaned
}

func (sub *Submission) Validate(validate *validator.Validate) error {
	sub.Clean()
	return validate.Struct(sub)
}

// Feedback explains an incorrect answer.
type Feedback struct {
	Expected        string   `json:"expected" yaml:"expected"`
	MissingKeywords []string `json:"missing_keywords,omitempty" yaml:"missing_keywords,omitempty"`
	Diff            string   `json:"diff,omitempty" yaml:"diff,omitempty"`
}

type Verdict struct {
	QuestionID string    `json:"question_id" yaml:"question_id"`
	Kind       Kind      `json:"kind" yaml:"kind"`
	Answer     string    `json:"answer" yaml:"answer"`
	Correct    bool      `json:"correct" yaml:"correct"`
	Points     int       `json:"points" yaml:"points"`
	MaxPoints  int       `json:"max_points" yaml:"max_points"`
	Feedback   *Feedback `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

type Result struct {
	ID        string    `json:"id" yaml:"id"`
	QuizID    string    `json:"quiz_id" yaml:"quiz_id"`
	QuizTitle string    `json:"quiz_title" yaml:"quiz_title"`
	Trainee   user.User `json:"trainee" yaml:"trainee"`
	Score     int       `json:"score" yaml:"score"`
	MaxScore  int       `json:"max_score" yaml:"max_score"`
	Percent   float64   `json:"percent" yaml:"percent"`
	PassMark  float64   `json:"pass_mark" yaml:"pass_mark"`
	Passed    bool      `json:"passed" yaml:"passed"`
	Verdicts  []Verdict `json:"verdicts" yaml:"verdicts"`
	GradedAt  time.Time `json:"graded_at" yaml:"graded_at"` // UTC
}

// CorrectCount returns the number of correctly answered questions.
func (r Result) CorrectCount() int {
	var n int
	for _, v := range r.Verdicts {
		if v.Correct {
			n++
		}
	}
	return n
}
