package form

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"baby-name-game/internal/backend"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	MaxNameRunes        = 32
	MaxTitleRunes       = 64
	MaxDescriptionRunes = 256
	MaxClueRunes        = 80
	MinClues            = 1
	MaxClues            = 10
)

const (
	FieldBabyFirstName   = "baby_first_name"
	FieldBabyMiddleName  = "baby_middle_name"
	FieldBabyLastName    = "baby_last_name"
	FieldGameTitle       = "game_title"
	FieldGameDescription = "game_description"
	FieldStartDate       = "start_date"
	FieldEndDate         = "end_date"
	FieldClues           = "clues"
)

var fieldOrder = []string{
	FieldBabyFirstName,
	FieldBabyMiddleName,
	FieldBabyLastName,
	FieldGameTitle,
	FieldGameDescription,
	FieldStartDate,
	FieldEndDate,
}

var requiredMessages = map[string]string{
	FieldBabyFirstName: "First name is required.",
	FieldGameTitle:     "Game title is required.",
	FieldStartDate:     "Start date is required.",
	FieldEndDate:       "End date is required.",
}

// GameForm is the parent-facing game creation form.
type GameForm struct {
	BabyFirstName   string   `form:"baby_first_name" json:"baby_first_name" validate:"notblank,maxrunes=32"`
	BabyMiddleName  string   `form:"baby_middle_name" json:"baby_middle_name" validate:"maxrunes=32"`
	BabyLastName    string   `form:"baby_last_name" json:"baby_last_name" validate:"maxrunes=32"`
	GameTitle       string   `form:"game_title" json:"game_title" validate:"notblank,maxrunes=64"`
	GameDescription string   `form:"game_description" json:"game_description" validate:"maxrunes=256"`
	StartDate       string   `form:"start_date" json:"start_date" validate:"notblank,isodate"`
	EndDate         string   `form:"end_date" json:"end_date" validate:"notblank,isodate"`
	Clues           []string `form:"clues" json:"clues" validate:"min=1,max=10,dive,notblank,maxrunes=80"`
	// Touched lists fields the user has interacted with.
	Touched []string `form:"touched" json:"touched" validate:"-"`

	touched   map[string]bool
	submitted bool
}

type Errors struct {
	Fields map[string]string `json:"fields"`
	Clues  []string          `json:"clues"`
}

func (e Errors) Empty() bool {
	if len(e.Fields) > 0 {
		return false
	}
	for _, msg := range e.Clues {
		if msg != "" {
			return false
		}
	}
	return true
}

// New returns an empty form with both dates set to today and one blank clue.
func New(now time.Time) *GameForm {
	today := now.Format(time.DateOnly)
	return &GameForm{
		StartDate: today,
		EndDate:   today,
		Clues:     []string{""},
	}
}

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

func engine() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("maxrunes", func(fl validator.FieldLevel) bool {
			limit, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return utf8.RuneCountInString(fl.Field().String()) <= limit
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := backend.ParseDate(fl.Field().String())
			return err == nil
		})
		v.RegisterStructValidation(validateDateOrder, GameForm{})
		validate = v
	})
	return validate
}

func validateDateOrder(sl validator.StructLevel) {
	f := sl.Current().Interface().(GameForm)
	start, startErr := backend.ParseDate(f.StartDate)
	end, endErr := backend.ParseDate(f.EndDate)
	if startErr != nil || endErr != nil {
		return
	}
	if end.Before(start) {
		sl.ReportError(f.EndDate, FieldEndDate, "EndDate", "dateorder", "")
	}
}

// Validate checks every rule and returns the full error set, ignoring touched state.
func (f *GameForm) Validate() Errors {
	errs := Errors{Fields: map[string]string{}, Clues: make([]string, len(f.Clues))}
	err := engine().Struct(*f)
	if err == nil {
		return errs
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Fields[FieldClues] = err.Error()
		return errs
	}
	for _, fe := range fieldErrs {
		name := fe.Field()
		if idx, ok := clueIndex(name); ok {
			if idx < len(errs.Clues) {
				errs.Clues[idx] = message(FieldClues, fe)
			}
			continue
		}
		if _, exists := errs.Fields[name]; !exists {
			errs.Fields[name] = message(name, fe)
		}
	}
	return errs
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		if field == FieldClues {
			return "Clue is required."
		}
		if msg, ok := requiredMessages[field]; ok {
			return msg
		}
		return "This field is required."
	case "maxrunes":
		return fmt.Sprintf("Max %s characters.", fe.Param())
	case "isodate":
		return "Enter a valid date (YYYY-MM-DD)."
	case "dateorder":
		return "End date must be after start date."
	case "min":
		return fmt.Sprintf("Add at least %d clue.", MinClues)
	case "max":
		return fmt.Sprintf("No more than %d clues.", MaxClues)
	}
	return "Invalid value."
}

func clueIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, FieldClues+"[") || !strings.HasSuffix(name, "]") {
		return 0, false
	}
	idx, err := strconv.Atoi(name[len(FieldClues)+1 : len(name)-1])
	if err != nil {
		return 0, false
	}
	return idx, true
}

// Touch marks a field as interacted with so its error becomes visible.
func (f *GameForm) Touch(field string) {
	if f.touched == nil {
		f.touched = make(map[string]bool)
	}
	f.touched[field] = true
}

// TouchFromRequest marks the fields listed in Touched.
func (f *GameForm) TouchFromRequest() {
	for _, field := range f.Touched {
		f.Touch(strings.TrimSpace(field))
	}
}

// MarkAllTouched records a submit attempt; every error becomes visible.
func (f *GameForm) MarkAllTouched() {
	for _, field := range fieldOrder {
		f.Touch(field)
	}
	f.submitted = true
}

func (f *GameForm) IsTouched(field string) bool {
	return f.touched[field]
}

// TouchedFields returns the touched fields in display order.
func (f *GameForm) TouchedFields() []string {
	out := make([]string, 0, len(f.touched))
	for _, field := range fieldOrder {
		if f.touched[field] {
			out = append(out, field)
		}
	}
	return out
}

// VisibleErrors filters Validate down to what the user should currently see.
func (f *GameForm) VisibleErrors() Errors {
	all := f.Validate()
	visible := Errors{Fields: map[string]string{}, Clues: make([]string, len(f.Clues))}
	for field, msg := range all.Fields {
		if f.touched[field] || (field == FieldClues && f.submitted) {
			visible.Fields[field] = msg
		}
	}
	if f.submitted {
		copy(visible.Clues, all.Clues)
	}
	return visible
}

func (f *GameForm) CanAddClue() bool {
	return len(f.Clues) < MaxClues
}

func (f *GameForm) CanRemoveClue() bool {
	return len(f.Clues) > MinClues
}

// AddClue appends a blank clue unless the list is full.
func (f *GameForm) AddClue() bool {
	if !f.CanAddClue() {
		return false
	}
	f.Clues = append(f.Clues, "")
	return true
}

// RemoveClue drops the clue at i unless only one remains.
func (f *GameForm) RemoveClue(i int) bool {
	if !f.CanRemoveClue() || i < 0 || i >= len(f.Clues) {
		return false
	}
	f.Clues = append(f.Clues[:i], f.Clues[i+1:]...)
	return true
}

// ToInput converts a valid form into a creation request with the default game rules.
func (f *GameForm) ToInput(parentID uuid.UUID) (backend.CreateGameInput, error) {
	start, err := backend.ParseDate(f.StartDate)
	if err != nil {
		return backend.CreateGameInput{}, fmt.Errorf("start date: %w", err)
	}
	end, err := backend.ParseDate(f.EndDate)
	if err != nil {
		return backend.CreateGameInput{}, fmt.Errorf("end date: %w", err)
	}
	return backend.CreateGameInput{
		ParentID:                parentID,
		Title:                   f.GameTitle,
		Description:             optional(f.GameDescription),
		BabyFirstName:           f.BabyFirstName,
		BabyMiddleName:          optional(f.BabyMiddleName),
		BabyLastName:            optional(f.BabyLastName),
		StartDate:               start,
		EndDate:                 end,
		MaxCluesPerPlayer:       backend.DefaultMaxClues,
		AllowMultipleGuesses:    true,
		ShowOtherPlayersGuesses: false,
		Clues:                   append([]string(nil), f.Clues...),
	}, nil
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
