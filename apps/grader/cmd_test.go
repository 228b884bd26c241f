package main

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ropeacademy/academy/core"
	"github.com/ropeacademy/academy/core/quiz"
	emailsvc "github.com/ropeacademy/academy/services/email"
	testutil "github.com/ropeacademy/academy/tests"
)

var mailSvc *emailsvc.ConsoleServiceMock

func setup(t *testing.T, stdin string) (*commandLine, *bytes.Buffer) {
	conf := testutil.NewConfig()
	logger := new(testutil.Logger)
	core.ParseEmailTemplates(logger, true)
	mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	validate, translator := testutil.NewValidator()

	// start CLI
	out := new(bytes.Buffer)
	return &commandLine{
		validate:   validate,
		translator: translator,
		quizSvc:    quiz.NewService(validate, mailSvc, logger, conf),
		mailSvc:    mailSvc,
		in:         strings.NewReader(stdin),
		out:        out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string // contained in the error
	wantOut    []string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error, out string) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	for _, s := range tt.wantOut {
		if !strings.Contains(out, s) {
			t.Errorf("cli.run() output = %q, want it to contain %q", out, s)
		}
	}
}

func writeYAML(t *testing.T, name string, v interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("yaml.Marshal() failed: %v", err)
	}
	return testutil.WriteFile(t, name, string(data))
}

func Test_commandLine_usage(t *testing.T) {
	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "help flag", args: []string{"text", "-h"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"number", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		args := append([]string{"grader"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, "")
			tt.check(t, cli.run(args), out.String())
		})
	}
}

func Test_commandLine_text(t *testing.T) {
	tests := []cliTest{
		{name: "no args", args: []string{"text"}, wantErr: errHelp},
		{name: "no expected answer", args: []string{"text", "-answer", "casque"}, wantErr: errHelp},
		{
			name:    "exact",
			args:    []string{"text", "-answer", "Connecté l'ASAP", "-expected", "connecte l asap"},
			wantOut: []string{"correct\n"},
		},
		{
			name:    "keywords",
			args:    []string{"text", "-answer", "corde de sécurité et ASAP", "-expected", "ASAP sur la corde de sécurité"},
			wantOut: []string{"correct\n"},
		},
		{
			name:    "wrong",
			args:    []string{"text", "-answer", "des gants", "-expected", "Porter un casque de sécurité"},
			wantErr: errIncorrect,
			wantOut: []string{"incorrect\n"},
		},
		{
			name:    "empty answer",
			args:    []string{"text", "-answer", "", "-expected", "casque"},
			wantErr: errIncorrect,
		},
	}
	for _, tt := range tests {
		args := append([]string{"grader"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, "")
			tt.check(t, cli.run(args), out.String())
		})
	}
}

func Test_commandLine_number(t *testing.T) {
	tests := []cliTest{
		{name: "no expected answer", args: []string{"number", "-answer", "12"}, wantErr: errHelp},
		{name: "within tolerance", args: []string{"number", "-answer", "101", "-expected", "100"}, wantOut: []string{"correct\n"}},
		{name: "decimal comma", args: []string{"number", "-answer", "0,005", "-expected", "0"}, wantOut: []string{"correct\n"}},
		{name: "out of tolerance", args: []string{"number", "-answer", "101.01", "-expected", "100"}, wantErr: errIncorrect},
		{name: "not a number", args: []string{"number", "-answer", "abc", "-expected", "100"}, wantErr: errIncorrect},
		{name: "bad reference", args: []string{"number", "-answer", "12", "-expected", "douze"}, wantErr: errIncorrect},
	}
	for _, tt := range tests {
		args := append([]string{"grader"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, "")
			tt.check(t, cli.run(args), out.String())
		})
	}
}

func Test_commandLine_normalize(t *testing.T) {
	tests := []cliTest{
		{name: "no text", args: []string{"normalize"}, wantErr: errHelp},
		{
			name:    "text",
			args:    []string{"normalize", "-text", "Sécurité : la CORDE de travail !"},
			wantOut: []string{"securite la corde de travail\nkeywords: securite, corde, travail\n"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"grader"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, "")
			tt.check(t, cli.run(args), out.String())
		})
	}
}

func Test_commandLine_grade(t *testing.T) {
	quizPath := writeYAML(t, "quiz.yaml", testutil.DailyQuiz())
	submit := func(quizID string, answers map[string]string) string {
		return writeYAML(t, "answers.yaml", quiz.Submission{QuizID: quizID, Trainee: testutil.Trainee(), Answers: answers})
	}
	allCorrect := submit("daily-2024-05-02", map[string]string{
		"q1": "ASAP corde sécurité, croll poignée corde travail",
		"q2": "15",
		"q3": "Casque",
		"q4": "porter un casque",
	})
	mostlyWrong := submit("daily-2024-05-02", map[string]string{"q2": "15", "q4": "des gants"})
	otherQuiz := submit("daily-2024-05-03", nil)

	type extra struct {
		wantSent int
	}
	tests := []cliTest{
		{name: "no args", args: []string{"grade"}, wantErr: errHelp},
		{name: "no answers", args: []string{"grade", "-quiz", quizPath}, wantErr: errHelp},
		{name: "missing quiz", args: []string{"grade", "-quiz", "nope.yaml", "-answers", allCorrect}, wantErrStr: "opening quiz"},
		{name: "answers are not a submission", args: []string{"grade", "-quiz", quizPath, "-answers", quizPath}, wantErrStr: "decoding submission"},
		{
			name: "passed",
			args: []string{"grade", "-quiz", quizPath, "-answers", allCorrect},
			wantOut: []string{
				"Daily quiz: rope transfer\nTrainee: Jean Dupont (IRATA Level 1)\n",
				"[x] q2 Charge de rupture minimale d'un point d'ancrage (kN) ? (1/1 pt)\n",
				"Score: 5/5 (100%, pass mark 80%) PASSED\n",
			},
		},
		{
			name:    "not passed",
			args:    []string{"grade", "-quiz", quizPath, "-answers", mostlyWrong},
			wantErr: errNotPassed,
			wantOut: []string{
				"[ ] q1 ",
				"    answer:   (none)\n",
				"    expected: Porter un casque de sécurité\n",
				"    missing:  porter, casque, securite\n",
				"Score: 1/5 (20%, pass mark 80%) NOT PASSED\n",
			},
		},
		{
			name:    "diff",
			args:    []string{"grade", "-diff", "-quiz", quizPath, "-answers", mostlyWrong},
			wantErr: errNotPassed,
			wantOut: []string{"      --- answer\n", "      -gants\n", "      +porter\n"},
		},
		{
			name:       "other quiz",
			args:       []string{"grade", "-quiz", quizPath, "-answers", otherQuiz},
			wantErrStr: quiz.ErrQuizMismatch.Error(),
			wantOut:    []string{"invalid input:\n  quiz_id: submission does not answer this quiz\n"},
		},
		{
			name:  "notify",
			args:  []string{"grade", "-notify", "-quiz", quizPath, "-answers", allCorrect},
			extra: extra{wantSent: 2},
		},
	}
	for _, tt := range tests {
		args := append([]string{"grader"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, "")
			tt.check(t, cli.run(args), out.String())

			var wantSent int
			if extra, ok := tt.extra.(extra); ok {
				wantSent = extra.wantSent
			}
			if got := len(mailSvc.SentMessages()); got != wantSent {
				t.Errorf("sent %d emails, want %d", got, wantSent)
			}
		})
	}
}

func Test_commandLine_take(t *testing.T) {
	quizPath := writeYAML(t, "quiz.yaml", testutil.DailyQuiz())

	badQuiz := testutil.DailyQuiz()
	badQuiz.Questions[2].Choices = nil
	badQuizPath := writeYAML(t, "bad_quiz.yaml", badQuiz)

	type extra struct {
		stdin       string
		interactive bool
	}
	answers := "ASAP corde sécurité, croll poignée corde travail\n15,1\n2\nporter un casque\n"
	tests := []cliTest{
		{name: "no args", args: []string{"take"}, wantErr: errHelp},
		{name: "no name", args: []string{"take", "-quiz", quizPath, "-name", "  "}, wantErr: errHelp},
		{
			name:       "invalid quiz",
			args:       []string{"take", "-quiz", badQuizPath, "-name", "Jean"},
			wantErrStr: "Key: 'Quiz.questions[2].choices'",
			wantOut:    []string{"  questions[2].choices: a choice question needs at least two choices\n"},
		},
		{
			name:    "piped answers",
			args:    []string{"take", "-quiz", quizPath, "-name", "Jean Dupont", "-level", "2"},
			extra:   extra{stdin: answers},
			wantOut: []string{"Trainee: Jean Dupont (IRATA Level 2)\n", "Score: 5/5 (100%, pass mark 80%) PASSED\n"},
		},
		{
			name:    "interactive",
			args:    []string{"take", "-quiz", quizPath, "-name", "Jean Dupont"},
			extra:   extra{stdin: answers, interactive: true},
			wantOut: []string{"Daily quiz: rope transfer (4 questions)\n", "3. Quel équipement protège la tête ?\n   1) Gants\n   2) Casque\n", "PASSED"},
		},
		{
			name:    "answers stop early",
			args:    []string{"take", "-quiz", quizPath, "-name", "Jean Dupont"},
			extra:   extra{stdin: "ASAP corde sécurité, croll poignée corde travail\n"},
			wantErr: errNotPassed,
			wantOut: []string{"Score: 2/5 (40%, pass mark 80%) NOT PASSED\n"},
		},
		{
			name:       "invalid email",
			args:       []string{"take", "-quiz", quizPath, "-name", "Jean Dupont", "-email", "jean@"},
			extra:      extra{stdin: answers},
			wantErrStr: "Key: 'Submission.trainee.email'",
			wantOut:    []string{"  trainee.email: email must be a valid email address\n"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"grader"}, tt.args...)

		var ex extra
		if e, ok := tt.extra.(extra); ok {
			ex = e
		}
		isTerminalFunc = func(fd int) bool {
			return ex.interactive
		}

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t, ex.stdin)
			tt.check(t, cli.run(args), out.String())
		})
	}
}
