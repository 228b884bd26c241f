package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/ropeacademy/academy/core"
)

// IRATA certification levels
const (
	LevelUnknown = iota
	Level1
	Level2
	Level3
)

var levelNames = map[int]string{
	LevelUnknown: "Unknown",
	Level1:       "IRATA Level 1",
	Level2:       "IRATA Level 2",
	Level3:       "IRATA Level 3",
}

func LevelName(level int) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return levelNames[LevelUnknown]
}

// User is the trainee (or trainer) an event is about.
type User struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name" yaml:"name" validate:"required,notblank"`
	Email string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Level int    `json:"level,omitempty" yaml:"level,omitempty" validate:"iratalevel"`
}

// Clean trims the user's name and normalizes their email.
func (u *User) Clean() {
	u.ID = core.CleanString(u.ID)
	u.Name = core.CleanString(u.Name)
	u.Email = core.CleanString(u.Email, true /* lower */)
}

func (u *User) Validate(validate *validator.Validate) error {
	u.Clean()
	return validate.Struct(u)
}

func (u User) HasEmail() bool { return u.Email != "" }
