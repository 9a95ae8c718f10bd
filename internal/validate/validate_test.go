package validate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/arunsharma1203/grievance/internal/model"
)

func TestCreateGrievance(t *testing.T) {
	if err := CreateGrievance("ana", "too loud", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := CreateGrievance("  ", "too loud", "", "")
	if !model.IsValidationError(err) || !strings.Contains(err.Error(), "username") {
		t.Fatalf("expected username validation error, got %v", err)
	}
	if err := CreateGrievance("ana", "", "", ""); !model.IsValidationError(err) {
		t.Fatalf("expected text validation error, got %v", err)
	}
	if err := CreateGrievance(strings.Repeat("a", MaxUsernameLen+1), "x", "", ""); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestCreateMood_Boundaries(t *testing.T) {
	for _, v := range []int{0, 10} {
		if err := CreateMood("ana", v); err != nil {
			t.Fatalf("value %d rejected: %v", v, err)
		}
	}
	for _, v := range []int{-1, 11} {
		if err := CreateMood("ana", v); !model.IsValidationError(err) {
			t.Fatalf("value %d accepted", v)
		}
	}
}

func TestMoodValue(t *testing.T) {
	ok := map[string]int{`0`: 0, `10`: 10, `7`: 7, `"5"`: 5, `" 3 "`: 3, `4.0`: 4}
	for in, want := range ok {
		got, err := MoodValue(json.RawMessage(in))
		if err != nil || got != want {
			t.Errorf("MoodValue(%s) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{`11`, `-1`, `"abc"`, `true`, `null`, ``, `7.5`, `[1]`, `{"v":1}`, `"NaN"`, `"1e3"`} {
		if _, err := MoodValue(json.RawMessage(in)); !model.IsValidationError(err) {
			t.Errorf("MoodValue(%s) accepted", in)
		}
	}
}

func TestCreateDiary(t *testing.T) {
	if err := CreateDiary(nil, nil, "   \n\t", "", ""); !model.IsValidationError(err) {
		t.Fatalf("blank body accepted")
	}
	title := strings.Repeat("t", MaxTitleLen+1)
	if err := CreateDiary(nil, &title, "body", "", ""); err == nil {
		t.Fatalf("long title accepted")
	}
	if err := CreateDiary(nil, nil, "body", "/uploads/a.ogg", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDiaryLimit(t *testing.T) {
	cases := map[string]int{"": 50, "abc": 50, "500": 100, "0": 1, "-3": 1, "25": 25}
	for in, want := range cases {
		if got := DiaryLimit(in); got != want {
			t.Errorf("DiaryLimit(%q) = %d, want %d", in, got, want)
		}
	}
}
