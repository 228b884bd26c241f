package quiz

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ropeacademy/academy/core"
	"github.com/ropeacademy/academy/core/grading"
)

var (
	uniqueIDsTag  = "uniqueids"
	uniqueIDsText = "question ids must be unique"

	numericAnswerTag  = "numericanswer"
	numericAnswerText = "the answer of a number question must be a number"

	inChoicesTag  = "inchoices"
	inChoicesText = "the answer must be one of the choices"

	choicesRequiredTag  = "choicesrequired"
	choicesRequiredText = "a choice question needs at least two choices"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(quizStructValidation, Quiz{})
	validate.RegisterStructValidation(questionStructValidation, Question{})

	core.RegisterCustomTranslation(validate, translator, uniqueIDsTag, uniqueIDsText)
	core.RegisterCustomTranslation(validate, translator, numericAnswerTag, numericAnswerText)
	core.RegisterCustomTranslation(validate, translator, inChoicesTag, inChoicesText)
	core.RegisterCustomTranslation(validate, translator, choicesRequiredTag, choicesRequiredText)
}

// Custom Validators

// quizStructValidation checks that question IDs are unique.
func quizStructValidation(sl validator.StructLevel) {
	qz, ok := sl.Current().Interface().(Quiz)
	if !ok {
		return
	}
	seen := make(map[string]struct{}, len(qz.Questions))
	for _, q := range qz.Questions {
		if _, dup := seen[q.ID]; dup {
			sl.ReportError(qz.Questions, "questions", "Questions", uniqueIDsTag, q.ID)
			return
		}
		seen[q.ID] = struct{}{}
	}
}

// questionStructValidation checks that the reference answer can be graded for the question kind.
func questionStructValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(Question)
	if !ok {
		return
	}
	switch q.Kind {
	case KindNumber:
		if _, ok := grading.ParseNumber(q.Answer); !ok {
			sl.ReportError(q.Answer, "answer", "Answer", numericAnswerTag, "")
		}
	case KindChoice:
		if len(q.Choices) < 2 {
			sl.ReportError(q.Choices, "choices", "Choices", choicesRequiredTag, "")
			return
		}
		if _, ok := matchChoice(q.Choices, q.Answer); !ok {
			sl.ReportError(q.Answer, "answer", "Answer", inChoicesTag, "")
		}
	}
}
