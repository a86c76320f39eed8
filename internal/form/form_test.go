package form

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validForm() *GameForm {
	return &GameForm{
		BabyFirstName: "Olivia",
		GameTitle:     "Baby Smith",
		StartDate:     "2026-03-01",
		EndDate:       "2026-03-10",
		Clues:         []string{"Starts with O"},
	}
}

func TestNewDefaults(t *testing.T) {
	f := New(time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC))
	if f.StartDate != "2026-03-04" || f.EndDate != "2026-03-04" {
		t.Fatalf("expected today's date, got %s %s", f.StartDate, f.EndDate)
	}
	if len(f.Clues) != 1 || f.Clues[0] != "" {
		t.Fatalf("expected one blank clue, got %v", f.Clues)
	}
}

func TestValidFormHasNoErrors(t *testing.T) {
	if errs := validForm().Validate(); !errs.Empty() {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestRequiredFields(t *testing.T) {
	f := validForm()
	f.BabyFirstName = "  "
	f.GameTitle = ""
	f.StartDate = ""
	f.EndDate = ""
	errs := f.Validate()
	want := map[string]string{
		FieldBabyFirstName: "First name is required.",
		FieldGameTitle:     "Game title is required.",
		FieldStartDate:     "Start date is required.",
		FieldEndDate:       "End date is required.",
	}
	for field, msg := range want {
		if errs.Fields[field] != msg {
			t.Fatalf("%s: expected %q, got %q", field, msg, errs.Fields[field])
		}
	}
}

func TestLengthLimits(t *testing.T) {
	f := validForm()
	f.BabyFirstName = strings.Repeat("a", 33)
	f.BabyMiddleName = strings.Repeat("b", 33)
	f.GameTitle = strings.Repeat("c", 65)
	f.GameDescription = strings.Repeat("d", 257)
	f.Clues = []string{strings.Repeat("e", 81)}
	errs := f.Validate()
	cases := map[string]string{
		FieldBabyFirstName:   "Max 32 characters.",
		FieldBabyMiddleName:  "Max 32 characters.",
		FieldGameTitle:       "Max 64 characters.",
		FieldGameDescription: "Max 256 characters.",
	}
	for field, msg := range cases {
		if errs.Fields[field] != msg {
			t.Fatalf("%s: expected %q, got %q", field, msg, errs.Fields[field])
		}
	}
	if errs.Clues[0] != "Max 80 characters." {
		t.Fatalf("expected clue length error, got %q", errs.Clues[0])
	}

	f = validForm()
	f.BabyFirstName = strings.Repeat("é", 32)
	if errs := f.Validate(); !errs.Empty() {
		t.Fatalf("expected 32 runes to be accepted, got %+v", errs)
	}
}

func TestEndDateBeforeStartDate(t *testing.T) {
	f := validForm()
	f.StartDate = "2026-03-10"
	f.EndDate = "2026-03-09"
	errs := f.Validate()
	if errs.Fields[FieldEndDate] != "End date must be after start date." {
		t.Fatalf("expected end date error, got %+v", errs.Fields)
	}
	if _, ok := errs.Fields[FieldStartDate]; ok || len(errs.Fields) != 1 {
		t.Fatalf("expected only the end date field to fail, got %+v", errs.Fields)
	}

	f.EndDate = f.StartDate
	if errs := f.Validate(); !errs.Empty() {
		t.Fatalf("expected same-day window to be valid, got %+v", errs)
	}
}

func TestClueRules(t *testing.T) {
	f := validForm()
	f.Clues = []string{"ok", "   ", "fine"}
	errs := f.Validate()
	if errs.Clues[0] != "" || errs.Clues[1] != "Clue is required." || errs.Clues[2] != "" {
		t.Fatalf("unexpected clue errors %v", errs.Clues)
	}

	f.Clues = nil
	if errs := f.Validate(); errs.Fields[FieldClues] == "" {
		t.Fatalf("expected error for zero clues")
	}

	f.Clues = make([]string, 11)
	for i := range f.Clues {
		f.Clues[i] = "clue"
	}
	if errs := f.Validate(); errs.Fields[FieldClues] == "" {
		t.Fatalf("expected error for eleven clues")
	}
}

func TestAddAndRemoveClueLimits(t *testing.T) {
	f := New(time.Now())
	if f.RemoveClue(0) {
		t.Fatalf("expected the last clue to stay")
	}
	for f.CanAddClue() {
		f.AddClue()
	}
	if len(f.Clues) != MaxClues {
		t.Fatalf("expected %d clues, got %d", MaxClues, len(f.Clues))
	}
	if f.AddClue() {
		t.Fatalf("expected add to be blocked at %d", MaxClues)
	}
	f.Clues[3] = "keep"
	if !f.RemoveClue(2) || f.Clues[2] != "keep" {
		t.Fatalf("expected clue removed at index 2")
	}
	if f.RemoveClue(42) {
		t.Fatalf("expected out of range remove to fail")
	}
}

func TestVisibleErrorsFollowTouchedFields(t *testing.T) {
	f := New(time.Now())
	if errs := f.VisibleErrors(); !errs.Empty() {
		t.Fatalf("expected nothing visible before interaction, got %+v", errs)
	}
	f.Touch(FieldGameTitle)
	errs := f.VisibleErrors()
	if errs.Fields[FieldGameTitle] == "" || errs.Fields[FieldBabyFirstName] != "" {
		t.Fatalf("expected only the touched field error, got %+v", errs.Fields)
	}
	if errs.Clues[0] != "" {
		t.Fatalf("expected clue errors hidden before submit")
	}
	f.MarkAllTouched()
	errs = f.VisibleErrors()
	if errs.Fields[FieldBabyFirstName] == "" || errs.Clues[0] != "Clue is required." {
		t.Fatalf("expected every error after submit, got %+v", errs)
	}
}

func TestToInputDefaults(t *testing.T) {
	f := validForm()
	f.BabyMiddleName = "  "
	f.GameDescription = "Due in spring"
	parentID := uuid.New()
	input, err := f.ToInput(parentID)
	if err != nil {
		t.Fatalf("to input: %v", err)
	}
	if input.ParentID != parentID || input.MaxCluesPerPlayer != 5 || !input.AllowMultipleGuesses || input.ShowOtherPlayersGuesses {
		t.Fatalf("unexpected defaults %+v", input)
	}
	if input.BabyMiddleName != nil {
		t.Fatalf("expected blank middle name to be omitted")
	}
	if input.Description == nil || *input.Description != "Due in spring" {
		t.Fatalf("expected description carried over")
	}
	if !input.EndDate.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end date %s", input.EndDate)
	}
}
