package voice

import "strings"

// QuestionCategory classifies what the agent just asked the caller, so the
// transcription prompt can bias toward the expected answer shape.
type QuestionCategory string

const (
	CategoryNone         QuestionCategory = ""
	CategoryDate         QuestionCategory = "date"
	CategoryTime         QuestionCategory = "time"
	CategoryName         QuestionCategory = "name"
	CategoryPartySize    QuestionCategory = "party_size"
	CategoryPhone        QuestionCategory = "phone"
	CategoryConfirmation QuestionCategory = "confirmation"
	CategoryLookup       QuestionCategory = "lookup"
)

// categoryKeywords is checked in order; the first matching category wins.
// Lookup comes before name because "name on the reservation" is a lookup.
var categoryKeywords = []struct {
	category QuestionCategory
	keywords []string
}{
	{CategoryLookup, []string{"confirmation number", "reservation number", "under what name", "name on the reservation"}},
	{CategoryPhone, []string{"phone number", "contact number", "reach you"}},
	{CategoryPartySize, []string{"how many", "party size", "number of guests", "people in your party"}},
	{CategoryDate, []string{"what date", "which date", "what day", "which day"}},
	{CategoryTime, []string{"what time", "which time", "prefer a time"}},
	{CategoryName, []string{"your name", "name for the reservation", "who should"}},
	{CategoryConfirmation, []string{"confirm", "is that correct", "shall i book", "should i book", "go ahead"}},
}

// ClassifyQuestion picks the category of the agent's last question. Returns
// CategoryNone when nothing matches.
func ClassifyQuestion(question string) QuestionCategory {
	q := strings.ToLower(question)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				return entry.category
			}
		}
	}
	return CategoryNone
}

var primingPhrases = map[QuestionCategory]string{
	CategoryDate:         "The caller is saying a date, such as Friday, September fifth.",
	CategoryTime:         "The caller is saying a time of day, such as seven thirty PM.",
	CategoryName:         "The caller is saying or spelling their name.",
	CategoryPartySize:    "The caller is saying a number of guests, such as four people.",
	CategoryPhone:        "The caller is saying a phone number, digit by digit.",
	CategoryConfirmation: "The caller is answering yes or no.",
	CategoryLookup:       "The caller is saying a confirmation number, such as RES zero zero zero four two.",
}

// PrimingText returns a short phrase appended to the transcription prompt
// for the given category. Empty for CategoryNone.
func PrimingText(category QuestionCategory) string {
	return primingPhrases[category]
}
