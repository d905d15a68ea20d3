package voice

import "testing"

func TestClassifyQuestion(t *testing.T) {
	cases := []struct {
		question string
		want     QuestionCategory
	}{
		{"What date would you like to come in?", CategoryDate},
		{"And what time works best for you?", CategoryTime},
		{"Can I get your name for the reservation?", CategoryName},
		{"How many people will be joining you?", CategoryPartySize},
		{"What's the best phone number to reach you?", CategoryPhone},
		{"Shall I book that for you?", CategoryConfirmation},
		{"Do you have your confirmation number handy?", CategoryLookup},
		{"And the name on the reservation, please?", CategoryLookup},
		{"We also have a lovely patio.", CategoryNone},
	}
	for _, tc := range cases {
		if got := ClassifyQuestion(tc.question); got != tc.want {
			t.Errorf("ClassifyQuestion(%q) = %q, want %q", tc.question, got, tc.want)
		}
	}
}

func TestPrimingTextCoversEveryCategory(t *testing.T) {
	categories := []QuestionCategory{
		CategoryDate, CategoryTime, CategoryName, CategoryPartySize,
		CategoryPhone, CategoryConfirmation, CategoryLookup,
	}
	for _, c := range categories {
		if PrimingText(c) == "" {
			t.Errorf("no priming text for category %q", c)
		}
	}
	if PrimingText(CategoryNone) != "" {
		t.Error("CategoryNone must not produce priming text")
	}
}
