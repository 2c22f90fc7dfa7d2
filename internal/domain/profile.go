package domain

import "strings"

// Profile is the operator's verbatim application data. Adapters only ever
// copy these values into forms; nothing is inferred.
type Profile struct {
	Personal struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Location  string `json:"location"`
		LinkedIn  string `json:"linkedin"`
		GitHub    string `json:"github"`
		Website   string `json:"website"`
	} `json:"personal"`

	Education struct {
		School         string `json:"school"`
		Degree         string `json:"degree"`
		Major          string `json:"major"`
		GraduationDate string `json:"graduation_date"`
		GPA            string `json:"gpa"`
	} `json:"education"`

	WorkAuthorization struct {
		AuthorizedUS        *bool `json:"authorized_us"`
		RequiresSponsorship *bool `json:"requires_sponsorship"`
	} `json:"work_authorization"`

	// Demographics maps a normalized question to the operator's chosen answer.
	Demographics map[string]string `json:"demographics"`
}

func (p Profile) FullName() string {
	return strings.TrimSpace(p.Personal.FirstName + " " + p.Personal.LastName)
}

// profileFields maps label fragments to profile values. Order matters:
// specific labels like "first name" or "github username"
// must be tried before the bare "name".
var profileFields = []struct {
	any []string
	get func(Profile) string
}{
	{[]string{"first name", "given name", "preferred name"}, func(p Profile) string { return p.Personal.FirstName }},
	{[]string{"last name", "family name", "surname"}, func(p Profile) string { return p.Personal.LastName }},
	{[]string{"school", "university", "college"}, func(p Profile) string { return p.Education.School }},
	{[]string{"degree"}, func(p Profile) string { return p.Education.Degree }},
	{[]string{"major", "field of study", "discipline"}, func(p Profile) string { return p.Education.Major }},
	{[]string{"graduation"}, func(p Profile) string { return p.Education.GraduationDate }},
	{[]string{"gpa"}, func(p Profile) string { return p.Education.GPA }},
	{[]string{"email"}, func(p Profile) string { return p.Personal.Email }},
	{[]string{"phone", "mobile"}, func(p Profile) string { return p.Personal.Phone }},
	{[]string{"linkedin"}, func(p Profile) string { return p.Personal.LinkedIn }},
	{[]string{"github"}, func(p Profile) string { return p.Personal.GitHub }},
	{[]string{"website", "portfolio"}, func(p Profile) string { return p.Personal.Website }},
	{[]string{"full name", "name"}, Profile.FullName},
	{[]string{"sponsorship", "visa"}, func(p Profile) string { return yesNo(p.WorkAuthorization.RequiresSponsorship) }},
	{[]string{"authorized to work", "legally authorized", "work authorization"}, func(p Profile) string { return yesNo(p.WorkAuthorization.AuthorizedUS) }},
	{[]string{"location", "city"}, func(p Profile) string { return p.Personal.Location }},
}

// Lookup answers a form label from the profile. The second result is false
// when the profile has nothing for it.
func (p Profile) Lookup(label string) (string, bool) {
	q := NormalizeQuestion(label)
	if q == "" {
		return "", false
	}
	if v, ok := p.Demographics[q]; ok && v != "" {
		return v, true
	}
	for _, f := range profileFields {
		for _, needle := range f.any {
			if strings.Contains(q, needle) {
				v := f.get(p)
				return v, v != ""
			}
		}
	}
	return "", false
}

func yesNo(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return "Yes"
	default:
		return "No"
	}
}
