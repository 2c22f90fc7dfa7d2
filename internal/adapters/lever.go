package adapters

import (
	"regexp"
	"strings"

	"jobgate-engine/internal/domain"
)

func NewLever() Adapter {
	return newFormAdapter(formSpec{
		name:     "lever",
		ats:      domain.ATSLever,
		applyURL: leverApplyURL,
		fields: []field{
			{"full name", []string{`input[name="name"]`}},
			{"email", []string{`input[name="email"]`}},
			{"phone", []string{`input[name="phone"]`}},
			{"linkedin", []string{`input[name="urls[LinkedIn]"]`}},
			{"github", []string{`input[name="urls[GitHub]"]`}},
			{"website", []string{`input[name="urls[Portfolio]"]`, `input[name="urls[Other]"]`}},
		},
		resume: []string{`input[name="resume"]`, `input[type="file"]`},
		questions: []string{
			".application-question input", ".application-question textarea", ".application-question select",
			`input[name="org"]`, `textarea[name="comments"]`,
		},
		submit:  []string{`button[data-qa="btn-submit"]`, "#btn-submit", `button[type="submit"]`},
		success: regexp.MustCompile(`(?i)application submitted|thanks for applying|we've received your application`),
		failure: []string{".error-message", `[data-qa="error"]`},
	})
}

// leverApplyURL turns jobs.lever.co/acme/<id> into jobs.lever.co/acme/<id>/apply.
func leverApplyURL(u string) string {
	u = strings.TrimRight(u, "/")
	if strings.HasSuffix(u, "/apply") {
		return u
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i] + "/apply" + u[i:]
	}
	return u + "/apply"
}
