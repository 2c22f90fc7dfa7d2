package adapters

import (
	"regexp"

	"jobgate-engine/internal/domain"
)

func NewGreenhouse() Adapter {
	return newFormAdapter(formSpec{
		name:     "greenhouse",
		ats:      domain.ATSGreenhouse,
		openForm: []string{"#apply_button", `button[aria-label="Apply"]`},
		fields: []field{
			{"first name", []string{"#first_name", `input[name="job_application[first_name]"]`}},
			{"last name", []string{"#last_name", `input[name="job_application[last_name]"]`}},
			{"email", []string{"#email", `input[name="job_application[email]"]`}},
			{"phone", []string{"#phone", `input[name="job_application[phone]"]`}},
		},
		resume: []string{`input[type="file"]#resume`, `#resume_fieldset input[type="file"]`, `input[type="file"]`},
		questions: []string{
			"#custom_fields input", "#custom_fields textarea", "#custom_fields select",
			".application--questions input", ".application--questions textarea", ".application--questions select",
			"#demographic_questions select",
		},
		submit:  []string{"#submit_app", `button[type="submit"]`},
		success: regexp.MustCompile(`(?i)thank you for applying|application (has been )?(received|submitted)|we've received your application`),
		failure: []string{"#error_message", ".field-error-msg", ".helper-text--error"},
	})
}
