package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ropeacademy/academy/core"
	"github.com/ropeacademy/academy/core/quiz"
	"github.com/ropeacademy/academy/core/user"
)

// NewConfig returns a TEST configuration that does not read the environment.
func NewConfig() *core.Config {
	conf := &core.Config{
		AppName:  "Rope Academy",
		Env:      "TEST",
		Build:    "test",
		Debug:    true,
		TestMode: true,
		Server:   core.ServerConfig{Host: "localhost"},
		Grading:  core.GradingConfig{PassMark: 0.8},
	}
	conf.SetDefaultFromEmail("Rope Academy <noreply@test.local>")
	return conf
}

// NewValidator returns a validator with every package's validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)
	return validate, translator
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records log entries in memory.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("fatal", msg, args)
	panic(fmt.Sprintf("fatal: %s", msg))
}

// Levels returns the level of every recorded entry, in order.
func (l *Logger) Levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	levels := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		levels = append(levels, e.Level)
	}
	return levels
}

// DailyQuiz returns a small daily quiz covering every question kind.
func DailyQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:    "daily-2024-05-02",
		Title: "Daily quiz: rope transfer",
		Date:  "2024-05-02",
		Trainer: &user.User{
			Name:  "Claire Martin",
			Email: "claire@test.cd",
			Level: user.Level3,
		},
		Questions: []quiz.Question{
			{
				ID:     "q1",
				Prompt: "Comment se connecter pour une conversion descente-montée ?",
				Kind:   quiz.KindText,
				Answer: "Connecté l'ASAP (sur la corde de sécurité), puis connectés croll , poignée (sur la corde de travail",
				Points: 2,
			},
			{
				ID:     "q2",
				Prompt: "Charge de rupture minimale d'un point d'ancrage (kN) ?",
				Kind:   quiz.KindNumber,
				Answer: "15",
			},
			{
				ID:      "q3",
				Prompt:  "Quel équipement protège la tête ?",
				Kind:    quiz.KindChoice,
				Answer:  "Casque",
				Choices: []string{"Gants", "Casque", "Longe"},
			},
			{
				ID:     "q4",
				Prompt: "Que faut-il porter pour se protéger la tête ?",
				Kind:   quiz.KindText,
				Answer: "Porter un casque de sécurité",
			},
		},
	}
}

// Trainee returns a trainee with an email address.
func Trainee() user.User {
	return user.User{ID: "t-01", Name: "Jean Dupont", Email: "jean@test.cd", Level: user.Level1}
}

// WriteFile writes content to name in a temporary directory and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}
