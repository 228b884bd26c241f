package quiz

import (
	"bytes"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ropeacademy/academy/core"
)

const resultTemplate = "quiz_result"

var (
	// errors
	ErrQuizMismatch = errors.New("submission does not answer this quiz")

	NowFunc = time.Now // mockable
)

type Service struct {
	validate *validator.Validate
	mailSvc  core.EmailService
	logger   core.Logger
	passMark float64
}

func NewService(validate *validator.Validate, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
		passMark: conf.Grading.PassMark,
	}
}

// Grade validates the quiz and the submission, then grades every question in quiz order.
// Answers to unknown questions are ignored. The caller's quiz is left untouched.
func (svc *Service) Grade(qz Quiz, sub Submission) (Result, error) {
	qz = qz.Copy()
	if err := qz.Validate(svc.validate); err != nil {
		return Result{}, err
	}
	if err := sub.Validate(svc.validate); err != nil {
		return Result{}, err
	}
	if sub.QuizID != qz.ID {
		return Result{}, core.NewValidationError(ErrQuizMismatch, core.FieldError{Field: "quiz_id", Error: ErrQuizMismatch.Error()})
	}

	res := Result{
		ID:        uuid.New().String(),
		QuizID:    qz.ID,
		QuizTitle: qz.Title,
		Trainee:   sub.Trainee,
		PassMark:  svc.passMarkFor(qz),
		Verdicts:  make([]Verdict, 0, len(qz.Questions)),
		GradedAt:  NowFunc().UTC(),
	}
	for _, q := range qz.Questions {
		v := GradeQuestion(q, sub.Answers[q.ID])
		res.Score += v.Points
		res.MaxScore += v.MaxPoints
		res.Verdicts = append(res.Verdicts, v)
	}
	if res.MaxScore > 0 {
		ratio := float64(res.Score) / float64(res.MaxScore)
		res.Percent = ratio * 100
		res.Passed = ratio >= res.PassMark
	}

	svc.logger.Info(
		fmt.Sprintf("quiz %q graded: %d/%d (passed: %t)", qz.ID, res.Score, res.MaxScore, res.Passed),
		map[string]interface{}{"result_id": res.ID, "quiz_id": qz.ID},
		sub.Trainee,
	)
	return res, nil
}

func (svc *Service) passMarkFor(qz Quiz) float64 {
	if qz.PassMark > 0 {
		return qz.PassMark
	}
	return svc.passMark
}

// Notify emails the result to the trainee and to the quiz trainer, when they have an address.
// The trainer's copy carries the full result as a YAML attachment.
func (svc *Service) Notify(qz Quiz, res Result) error {
	messages := make([]*core.EmailMessage, 0, 2)

	if res.Trainee.HasEmail() {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: res.Trainee.Name, Address: res.Trainee.Email}},
			Subject:      "Quiz result: " + qz.Title,
			TemplateName: resultTemplate,
			TemplateData: res,
		})
	}

	if qz.Trainer != nil && qz.Trainer.HasEmail() {
		msg := &core.EmailMessage{
			To:           []mail.Address{{Name: qz.Trainer.Name, Address: qz.Trainer.Email}},
			Subject:      fmt.Sprintf("Quiz result: %s - %s", qz.Title, res.Trainee.Name),
			TemplateName: resultTemplate,
			TemplateData: res,
		}
		data, err := yaml.Marshal(res)
		if err != nil {
			return errors.Wrap(err, "marshalling result")
		}
		if err := msg.Attach(bytes.NewReader(data), "result-"+res.ID+".yaml", "application/x-yaml"); err != nil {
			return errors.Wrap(err, "attaching result")
		}
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		svc.logger.Warn(fmt.Sprintf("quiz %q result %s: nobody to notify", qz.ID, res.ID), res.Trainee)
		return nil
	}
	svc.mailSvc.SendMessages(messages...)
	return nil
}
