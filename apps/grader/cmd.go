package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/ropeacademy/academy/core"
	"github.com/ropeacademy/academy/core/grading"
	"github.com/ropeacademy/academy/core/quiz"
	"github.com/ropeacademy/academy/core/user"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp      = errors.New("help provided")
	errIncorrect = errors.New("incorrect answer")
	errNotPassed = errors.New("quiz not passed")
)

type commandLine struct {
	validate   *validator.Validate
	translator ut.Translator
	quizSvc    *quiz.Service
	mailSvc    core.EmailService
	in         io.Reader
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  text -answer ANSWER -expected ANSWER - check a free text answer")
	_, _ = fmt.Fprintln(cli.out, "  number -answer ANSWER -expected ANSWER - check a numeric answer")
	_, _ = fmt.Fprintln(cli.out, "  normalize -text TEXT - show how a text is compared")
	_, _ = fmt.Fprintln(cli.out, "  grade -quiz FILE -answers FILE [-diff] [-notify] - grade a submission")
	_, _ = fmt.Fprintln(cli.out, "  take -quiz FILE -name NAME [-email EMAIL] [-level LEVEL] [-diff] [-notify] - answer a quiz, then grade it")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	textCmd := cli.newFlagSet("text")
	textAnswer := textCmd.String("answer", "", "The trainee's answer.")
	textExpected := textCmd.String("expected", "", "The reference answer.")

	numberCmd := cli.newFlagSet("number")
	numberAnswer := numberCmd.String("answer", "", "The trainee's answer.")
	numberExpected := numberCmd.String("expected", "", "The reference answer.")

	normalizeCmd := cli.newFlagSet("normalize")
	normalizeText := normalizeCmd.String("text", "", "The text to normalize.")

	gradeCmd := cli.newFlagSet("grade")
	gradeQuiz := gradeCmd.String("quiz", "", "The quiz file (YAML or JSON).")
	gradeAnswers := gradeCmd.String("answers", "", "The submission file (YAML or JSON).")
	gradeDiff := gradeCmd.Bool("diff", false, "Show a word diff for incorrect text answers.")
	gradeNotify := gradeCmd.Bool("notify", false, "Email the result to the trainee and the trainer.")

	takeCmd := cli.newFlagSet("take")
	takeQuiz := takeCmd.String("quiz", "", "The quiz file (YAML or JSON).")
	takeName := takeCmd.String("name", "", "The trainee's name.")
	takeEmail := takeCmd.String("email", "", "The trainee's email.")
	takeLevel := takeCmd.Int("level", user.LevelUnknown, "The trainee's IRATA level (1, 2 or 3).")
	takeDiff := takeCmd.Bool("diff", false, "Show a word diff for incorrect text answers.")
	takeNotify := takeCmd.Bool("notify", false, "Email the result to the trainee and the trainer.")

	switch args[1] {
	case "text":
		if err := cli.parse(textCmd, args[2:]); err != nil {
			return err
		}
		if *textExpected == "" {
			textCmd.Usage()
			return errHelp
		}
		return cli.verdict(grading.IsTextAnswerCorrect(*textAnswer, *textExpected))
	case "number":
		if err := cli.parse(numberCmd, args[2:]); err != nil {
			return err
		}
		if *numberExpected == "" {
			numberCmd.Usage()
			return errHelp
		}
		return cli.verdict(grading.IsNumberAnswerCorrect(*numberAnswer, *numberExpected))
	case "normalize":
		if err := cli.parse(normalizeCmd, args[2:]); err != nil {
			return err
		}
		if *normalizeText == "" {
			normalizeCmd.Usage()
			return errHelp
		}
		_, _ = fmt.Fprintln(cli.out, grading.Normalize(*normalizeText))
		_, _ = fmt.Fprintf(cli.out, "keywords: %s\n", strings.Join(grading.Keywords(*normalizeText), ", "))
		return nil
	case "grade":
		if err := cli.parse(gradeCmd, args[2:]); err != nil {
			return err
		}
		if *gradeQuiz == "" || *gradeAnswers == "" {
			gradeCmd.Usage()
			return errHelp
		}
		return cli.grade(*gradeQuiz, *gradeAnswers, *gradeDiff, *gradeNotify)
	case "take":
		if err := cli.parse(takeCmd, args[2:]); err != nil {
			return err
		}
		if *takeQuiz == "" || strings.TrimSpace(*takeName) == "" {
			takeCmd.Usage()
			return errHelp
		}
		trainee := user.User{Name: *takeName, Email: *takeEmail, Level: *takeLevel}
		return cli.take(*takeQuiz, trainee, *takeDiff, *takeNotify)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) verdict(correct bool) error {
	if !correct {
		_, _ = fmt.Fprintln(cli.out, "incorrect")
		return errIncorrect
	}
	_, _ = fmt.Fprintln(cli.out, "correct")
	return nil
}

// grade grades the submission stored in answersPath.
func (cli *commandLine) grade(quizPath, answersPath string, diff, notify bool) error {
	qz, err := quiz.LoadQuizFile(quizPath)
	if err != nil {
		return err
	}
	sub, err := quiz.LoadSubmissionFile(answersPath)
	if err != nil {
		return err
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = quiz.NowFunc().UTC()
	}
	return cli.gradeAndReport(qz, sub, diff, notify)
}

// take asks every question of the quiz on cli.in, one answer per line, then grades the answers.
// Prompts are only printed when stdin is a terminal.
func (cli *commandLine) take(quizPath string, trainee user.User, diff, notify bool) error {
	qz, err := quiz.LoadQuizFile(quizPath)
	if err != nil {
		return err
	}
	if err := qz.Validate(cli.validate); err != nil {
		return cli.printErrors(err)
	}

	interactive := isTerminalFunc(int(syscall.Stdin))
	if interactive {
		_, _ = fmt.Fprintf(cli.out, "%s (%d questions)\n\n", qz.Title, len(qz.Questions))
	}

	sub := quiz.Submission{
		QuizID:  qz.ID,
		Trainee: trainee,
		Answers: make(map[string]string, len(qz.Questions)),
	}
	scanner := bufio.NewScanner(cli.in)
	for i, q := range qz.Questions {
		if interactive {
			_, _ = fmt.Fprintf(cli.out, "%d. %s\n", i+1, q.Prompt)
			for j, c := range q.Choices {
				_, _ = fmt.Fprintf(cli.out, "   %d) %s\n", j+1, c)
			}
			_, _ = fmt.Fprint(cli.out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		sub.Answers[q.ID] = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if interactive {
		_, _ = fmt.Fprintln(cli.out)
	}

	sub.SubmittedAt = quiz.NowFunc().UTC()
	return cli.gradeAndReport(qz, sub, diff, notify)
}

func (cli *commandLine) gradeAndReport(qz quiz.Quiz, sub quiz.Submission, diff, notify bool) error {
	res, err := cli.quizSvc.Grade(qz, sub)
	if err != nil {
		return cli.printErrors(err)
	}
	cli.printReport(qz, res, diff)

	if notify {
		if err := cli.quizSvc.Notify(qz, res); err != nil {
			return err
		}
		cli.waitMail()
	}

	if !res.Passed {
		return errNotPassed
	}
	return nil
}

// waitMail blocks until queued emails are sent, when the email service allows it.
func (cli *commandLine) waitMail() {
	if w, ok := cli.mailSvc.(interface{ Wait() }); ok {
		w.Wait()
	}
}

// printErrors prints validation errors field by field and returns err.
func (cli *commandLine) printErrors(err error) error {
	fldErrs := core.TranslateErrors(err, cli.translator)
	if len(fldErrs) == 0 {
		return err
	}
	fields := make([]string, 0, len(fldErrs))
	for fld := range fldErrs {
		fields = append(fields, fld)
	}
	sort.Strings(fields)

	_, _ = fmt.Fprintln(cli.out, "invalid input:")
	for _, fld := range fields {
		_, _ = fmt.Fprintf(cli.out, "  %s: %s\n", fld, fldErrs[fld])
	}
	return err
}
