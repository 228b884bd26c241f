package main

import (
	"fmt"
	"strings"

	"github.com/labstack/gommon/color"

	"github.com/ropeacademy/academy/core/quiz"
	"github.com/ropeacademy/academy/core/user"
)

// printReport prints the graded result, question by question.
// Colors are disabled when cli.out is not a terminal.
func (cli *commandLine) printReport(qz quiz.Quiz, res quiz.Result, diff bool) {
	c := color.New()
	c.SetOutput(cli.out)

	c.Println(c.Bold(res.QuizTitle))
	trainee := res.Trainee.Name
	if res.Trainee.Level != user.LevelUnknown {
		trainee += " (" + user.LevelName(res.Trainee.Level) + ")"
	}
	c.Printf("Trainee: %s\n\n", trainee)

	for _, v := range res.Verdicts {
		mark := c.Green("[x]")
		if !v.Correct {
			mark = c.Red("[ ]")
		}
		prompt := v.QuestionID
		if q, ok := qz.Question(v.QuestionID); ok {
			prompt = q.Prompt
		}
		c.Printf("%s %s %s %s\n", mark, v.QuestionID, prompt, c.Grey(pointsLabel(v.Points, v.MaxPoints)))

		if v.Feedback == nil {
			continue
		}
		if strings.TrimSpace(v.Answer) == "" {
			c.Printf("    answer:   %s\n", c.Grey("(none)"))
		} else {
			c.Printf("    answer:   %s\n", v.Answer)
		}
		c.Printf("    expected: %s\n", v.Feedback.Expected)
		if len(v.Feedback.MissingKeywords) > 0 {
			c.Printf("    missing:  %s\n", c.Yellow(strings.Join(v.Feedback.MissingKeywords, ", ")))
		}
		if diff && v.Feedback.Diff != "" {
			for _, line := range strings.Split(strings.TrimRight(v.Feedback.Diff, "\n"), "\n") {
				switch {
				case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
					line = c.Grey(line)
				case strings.HasPrefix(line, "+"):
					line = c.Green(line)
				case strings.HasPrefix(line, "-"):
					line = c.Red(line)
				}
				c.Printf("      %s\n", line)
			}
		}
	}

	verdict := c.Green("PASSED", color.B)
	if !res.Passed {
		verdict = c.Red("NOT PASSED", color.B)
	}
	c.Printf("\nScore: %d/%d (%.0f%%, pass mark %.0f%%) %s\n", res.Score, res.MaxScore, res.Percent, res.PassMark*100, verdict)
}

func pointsLabel(points, maxPoints int) string {
	if maxPoints == 1 {
		return fmt.Sprintf("(%d/1 pt)", points)
	}
	return fmt.Sprintf("(%d/%d pts)", points, maxPoints)
}
