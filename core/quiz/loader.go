package quiz

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadQuiz decodes a YAML (or JSON) quiz. Unknown fields are rejected.
func LoadQuiz(r io.Reader) (Quiz, error) {
	var qz Quiz
	if err := decodeStrict(r, &qz); err != nil {
		return Quiz{}, errors.Wrap(err, "decoding quiz")
	}
	return qz, nil
}

func LoadQuizFile(path string) (Quiz, error) {
	f, err := os.Open(path)
	if err != nil {
		return Quiz{}, errors.Wrap(err, "opening quiz")
	}
	defer func() { _ = f.Close() }()
	return LoadQuiz(f)
}

// LoadSubmission decodes a YAML (or JSON) submission. Unknown fields are rejected.
func LoadSubmission(r io.Reader) (Submission, error) {
	var sub Submission
	if err := decodeStrict(r, &sub); err != nil {
		return Submission{}, errors.Wrap(err, "decoding submission")
	}
	return sub, nil
}

func LoadSubmissionFile(path string) (Submission, error) {
	f, err := os.Open(path)
	if err != nil {
		return Submission{}, errors.Wrap(err, "opening submission")
	}
	defer func() { _ = f.Close() }()
	return LoadSubmission(f)
}

func decodeStrict(r io.Reader, out interface{}) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return errors.New("empty document")
		}
		return err
	}
	return nil
}
