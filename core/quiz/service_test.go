package quiz_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ropeacademy/academy/core"
	"github.com/ropeacademy/academy/core/quiz"
	"github.com/ropeacademy/academy/core/user"
	emailsvc "github.com/ropeacademy/academy/services/email"
	testutil "github.com/ropeacademy/academy/tests"
)

var gradedAt = time.Date(2024, 5, 2, 16, 30, 0, 0, time.UTC)

type serviceFixture struct {
	svc     *quiz.Service
	mailSvc *emailsvc.ConsoleServiceMock
	logger  *testutil.Logger
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	conf := testutil.NewConfig()
	logger := new(testutil.Logger)
	validate, _ := testutil.NewValidator()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	core.ParseEmailTemplates(logger, true)

	nowFunc := quiz.NowFunc
	quiz.NowFunc = func() time.Time { return gradedAt }
	t.Cleanup(func() { quiz.NowFunc = nowFunc })

	return serviceFixture{
		svc:     quiz.NewService(validate, mailSvc, logger, conf),
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func submission(answers map[string]string) quiz.Submission {
	return quiz.Submission{
		QuizID:  testutil.DailyQuiz().ID,
		Trainee: testutil.Trainee(),
		Answers: answers,
	}
}

func TestService_Grade(t *testing.T) {
	tests := []struct {
		name        string
		passMark    float64
		answers     map[string]string
		wantScore   int
		wantCorrect []bool
		wantPassed  bool
		wantPercent float64
	}{
		{
			name: "all correct",
			answers: map[string]string{
				"q1": "connecter ASAP sur la corde de sécurité puis croll et poignée sur la corde de travail",
				"q2": "15",
				"q3": "Casque",
				"q4": "porter un casque",
			},
			wantScore:   5,
			wantCorrect: []bool{true, true, true, true},
			wantPassed:  true,
			wantPercent: 100,
		},
		{
			name: "one wrong still passes",
			answers: map[string]string{
				"q1": "ASAP corde sécurité, croll poignée corde travail",
				"q2": "15,05",
				"q3": "2",
				"q4": "des gants",
			},
			wantScore:   4,
			wantCorrect: []bool{true, true, true, false},
			wantPassed:  true,
			wantPercent: 80,
		},
		{
			name: "missing answers are incorrect",
			answers: map[string]string{
				"q2":      "15",
				"unknown": "ignored",
			},
			wantScore:   1,
			wantCorrect: []bool{false, true, false, false},
			wantPassed:  false,
			wantPercent: 20,
		},
		{
			name:     "quiz pass mark overrides config",
			passMark: 0.5,
			answers: map[string]string{
				"q1": "ASAP corde sécurité, croll poignée corde travail",
				"q2": "20",
				"q3": "Casque",
			},
			wantScore:   3,
			wantCorrect: []bool{true, false, true, false},
			wantPassed:  true,
			wantPercent: 60,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newServiceFixture(t)
			qz := testutil.DailyQuiz()
			qz.PassMark = tt.passMark

			res, err := fx.svc.Grade(qz, submission(tt.answers))
			require.NoError(t, err)

			assert.NotEmpty(t, res.ID)
			assert.Equal(t, qz.ID, res.QuizID)
			assert.Equal(t, qz.Title, res.QuizTitle)
			assert.Equal(t, "Jean Dupont", res.Trainee.Name)
			assert.Equal(t, gradedAt, res.GradedAt)
			assert.Equal(t, 5, res.MaxScore)
			if res.Score != tt.wantScore {
				t.Errorf("Grade() Score = %v, want %v", res.Score, tt.wantScore)
			}
			if res.Passed != tt.wantPassed {
				t.Errorf("Grade() Passed = %v, want %v", res.Passed, tt.wantPassed)
			}
			assert.InDelta(t, tt.wantPercent, res.Percent, 1e-9)

			require.Len(t, res.Verdicts, len(qz.Questions))
			for i, v := range res.Verdicts {
				assert.Equal(t, qz.Questions[i].ID, v.QuestionID, "verdicts follow quiz order")
				assert.Equal(t, tt.wantCorrect[i], v.Correct, v.QuestionID)
			}
			assert.Equal(t, []string{"info"}, fx.logger.Levels())
		})
	}
}

func TestService_Grade_PassMarkBoundary(t *testing.T) {
	fx := newServiceFixture(t)
	qz := testutil.DailyQuiz()
	qz.PassMark = 0.6

	// 3 points out of 5
	res, err := fx.svc.Grade(qz, submission(map[string]string{"q1": "ASAP corde sécurité, croll poignée corde travail", "q3": "Casque"}))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Score)
	assert.True(t, res.Passed)
}

func TestService_Grade_NumberedChoice(t *testing.T) {
	fx := newServiceFixture(t)
	qz := testutil.DailyQuiz()
	qz.Questions[2].Answer = "2"

	res, err := fx.svc.Grade(qz, submission(map[string]string{"q3": "Casque"}))
	require.NoError(t, err)
	assert.True(t, res.Verdicts[2].Correct)

	res, err = fx.svc.Grade(qz, submission(map[string]string{"q3": "2"}))
	require.NoError(t, err)
	assert.True(t, res.Verdicts[2].Correct)
}

func TestService_Grade_KeepsCallerQuiz(t *testing.T) {
	fx := newServiceFixture(t)
	qz := testutil.DailyQuiz()
	qz.Questions[0].ID = " q1 "
	qz.Questions[1].Kind = "NUMBER"
	qz.Trainer.Email = " Claire@Test.CD "
	want := qz.Copy()

	res, err := fx.svc.Grade(qz, submission(map[string]string{"q1": "ASAP corde sécurité, croll poignée corde travail", "q2": "15"}))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Score)
	assert.Equal(t, "q1", res.Verdicts[0].QuestionID)
	assert.Equal(t, quiz.KindNumber, res.Verdicts[1].Kind)

	assert.Equal(t, want, qz)
	assert.Equal(t, " Claire@Test.CD ", qz.Trainer.Email)
}

func TestQuiz_Copy(t *testing.T) {
	qz := testutil.DailyQuiz()
	c := qz.Copy()
	assert.Equal(t, qz, c)

	c.Trainer.Name = "Someone else"
	c.Questions[0].Prompt = "changed"
	c.Questions[2].Choices[0] = "changed"
	assert.Equal(t, "Claire Martin", qz.Trainer.Name)
	assert.NotEqual(t, "changed", qz.Questions[0].Prompt)
	assert.Equal(t, "Gants", qz.Questions[2].Choices[0])
}

func TestService_Grade_Invalid(t *testing.T) {
	_, translator := testutil.NewValidator()

	tests := []struct {
		name      string
		quiz      func() quiz.Quiz
		sub       quiz.Submission
		wantField string
	}{
		{
			name:      "quiz mismatch",
			quiz:      testutil.DailyQuiz,
			sub:       quiz.Submission{QuizID: "daily-2024-05-03", Trainee: testutil.Trainee()},
			wantField: "quiz_id",
		},
		{
			name:      "no trainee name",
			quiz:      testutil.DailyQuiz,
			sub:       quiz.Submission{QuizID: "daily-2024-05-02", Trainee: user.User{Name: "  "}},
			wantField: "trainee.name",
		},
		{
			name: "no questions",
			quiz: func() quiz.Quiz {
				qz := testutil.DailyQuiz()
				qz.Questions = nil
				return qz
			},
			sub:       submission(nil),
			wantField: "questions",
		},
		{
			name: "number question with a text answer",
			quiz: func() quiz.Quiz {
				qz := testutil.DailyQuiz()
				qz.Questions[1].Answer = "quinze"
				return qz
			},
			sub:       submission(nil),
			wantField: "questions[1].answer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newServiceFixture(t)
			_, err := fx.svc.Grade(tt.quiz(), tt.sub)
			require.Error(t, err)

			errs := core.TranslateErrors(err, translator)
			assert.Contains(t, errs, tt.wantField, errs)
			assert.Empty(t, fx.logger.Levels())
		})
	}

	t.Run("mismatch cause", func(t *testing.T) {
		fx := newServiceFixture(t)
		_, err := fx.svc.Grade(testutil.DailyQuiz(), quiz.Submission{QuizID: "other", Trainee: testutil.Trainee()})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, quiz.ErrQuizMismatch, vErr.Err)
	})
}

func TestService_Notify(t *testing.T) {
	fx := newServiceFixture(t)
	qz := testutil.DailyQuiz()

	res, err := fx.svc.Grade(qz, submission(map[string]string{"q2": "15", "q3": "Casque", "q4": "des gants"}))
	require.NoError(t, err)
	require.NoError(t, fx.svc.Notify(qz, res))

	sent := fx.mailSvc.SentMessages()
	require.Len(t, sent, 2)

	trainee, trainer := sent[0], sent[1]
	assert.Equal(t, "jean@test.cd", trainee.To[0].Address)
	assert.Equal(t, "Quiz result: Daily quiz: rope transfer", trainee.Subject)
	assert.Contains(t, trainee.TextContent, "Hello Jean Dupont")
	assert.Contains(t, trainee.TextContent, "Score: 2 / 5 (40%)")
	assert.Contains(t, trainee.TextContent, "NOT PASSED")
	assert.Contains(t, trainee.TextContent, "q4: incorrect (missing: porter, casque, securite)")
	assert.Contains(t, trainee.HTMLContent, "Jean Dupont")
	assert.False(t, trainee.HasAttachments())

	assert.Equal(t, "claire@test.cd", trainer.To[0].Address)
	assert.Equal(t, "Quiz result: Daily quiz: rope transfer - Jean Dupont", trainer.Subject)
	require.Len(t, trainer.Attachments, 1)
	at := trainer.Attachments[0]
	assert.Equal(t, "result-"+res.ID+".yaml", at.Filename)
	assert.Equal(t, "application/x-yaml", at.ContentType)

	raw, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	var decoded quiz.Result
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Equal(t, res.ID, decoded.ID)
	assert.Equal(t, res.Score, decoded.Score)
	assert.Len(t, decoded.Verdicts, 4)
}

func TestService_Notify_Nobody(t *testing.T) {
	fx := newServiceFixture(t)
	qz := testutil.DailyQuiz()
	qz.Trainer = nil
	sub := submission(map[string]string{"q2": "15"})
	sub.Trainee.Email = ""

	res, err := fx.svc.Grade(qz, sub)
	require.NoError(t, err)
	require.NoError(t, fx.svc.Notify(qz, res))

	assert.Empty(t, fx.mailSvc.SentMessages())
	assert.Equal(t, []string{"info", "warn"}, fx.logger.Levels())
}
