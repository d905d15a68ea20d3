package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/supervisor.txt
	supervisorRaw string

	//go:embed template/reservation.txt
	reservationRaw string

	//go:embed template/information.txt
	informationRaw string

	//go:embed template/internal.txt
	internalRaw string
)

// PromptSet holds loaded prompt templates.
type PromptSet struct {
	Supervisor  string
	Reservation string
	Information string
	Internal    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time, trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Supervisor:  strings.TrimSpace(supervisorRaw),
		Reservation: strings.TrimSpace(reservationRaw),
		Information: strings.TrimSpace(informationRaw),
		Internal:    strings.TrimSpace(internalRaw),
	}
}

// Render substitutes the tenant placeholders into a prompt template.
func Render(template, companyName, currentTime string) string {
	r := strings.NewReplacer(
		"{{company_name}}", companyName,
		"{{current_time}}", currentTime,
	)
	return r.Replace(template)
}

// RenderInternal additionally binds the authenticated staff member's name.
func RenderInternal(template, companyName, currentTime, userName string) string {
	return strings.NewReplacer("{{user_name}}", userName).
		Replace(Render(template, companyName, currentTime))
}
