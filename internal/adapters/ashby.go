package adapters

import (
	"regexp"
	"strings"

	"jobgate-engine/internal/domain"
)

func NewAshby() Adapter {
	return newFormAdapter(formSpec{
		name:     "ashby",
		ats:      domain.ATSAshby,
		applyURL: ashbyApplyURL,
		fields: []field{
			{"full name", []string{`input[name="_systemfield_name"]`}},
			{"email", []string{`input[name="_systemfield_email"]`}},
			{"phone", []string{`input[name="_systemfield_phone"]`, `input[type="tel"]`}},
		},
		resume: []string{`input#_systemfield_resume`, `input[type="file"]`},
		questions: []string{
			".ashby-application-form-field-entry input",
			".ashby-application-form-field-entry textarea",
			".ashby-application-form-field-entry select",
		},
		submit:  []string{"button.ashby-application-form-submit-button", `button[type="submit"]`},
		success: regexp.MustCompile(`(?i)thank you for applying|application (was )?(successfully )?submitted|we've received your application`),
		failure: []string{".ashby-application-form-failure-container", `[role="alert"]`},
	})
}

func ashbyApplyURL(u string) string {
	u = strings.TrimRight(u, "/")
	if strings.HasSuffix(u, "/application") {
		return u
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i] + "/application" + u[i:]
	}
	return u + "/application"
}
