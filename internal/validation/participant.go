// Package validation checks registration forms: single participants, team
// composition and the bounded member list a team form is built from.
package validation

import (
	"regexp"
	"sort"
	"strings"

	"festreg/internal/models"
)

// FieldErrors maps a form field to a user-facing message. An empty map means
// the input is valid.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; exists {
		return
	}
	fe[field] = msg
}

// Merge copies other into fe with every key prefixed.
func (fe FieldErrors) Merge(prefix string, other FieldErrors) {
	for k, v := range other {
		fe.Add(prefix+k, v)
	}
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// Fields returns the erroring fields in sorted order.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	emailPattern   = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	contactPattern = regexp.MustCompile(`^\d{10}$`)
)

const (
	MsgInvalidEmail   = "Invalid email format"
	MsgInvalidContact = "Invalid 10-digit contact number"
)

type requiredField struct {
	key   string
	label string
	value func(models.Participant) string
}

var requiredFields = []requiredField{
	{"fullName", "Full name", func(p models.Participant) string { return p.FullName }},
	{"email", "Email", func(p models.Participant) string { return p.Email }},
	{"enrollmentNumber", "Enrollment number", func(p models.Participant) string { return p.EnrollmentNumber }},
	{"contactNumber", "Contact number", func(p models.Participant) string { return p.ContactNumber }},
	{"collegeName", "College name", func(p models.Participant) string { return p.CollegeName }},
	{"semester", "Semester", func(p models.Participant) string { return p.Semester }},
	{"branch", "Branch", func(p models.Participant) string { return p.Branch }},
	{"gender", "Gender", func(p models.Participant) string { return p.Gender }},
	{"degree", "Degree", func(p models.Participant) string { return p.Degree }},
}

// ValidateParticipant checks presence of every required field, the email
// format (only when an email is given) and the 10-digit contact number.
func ValidateParticipant(p models.Participant) FieldErrors {
	errs := FieldErrors{}
	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(p)) == "" {
			errs.Add(f.key, f.label+" is required")
		}
	}
	if strings.TrimSpace(p.Email) != "" && !emailPattern.MatchString(p.Email) {
		errs.Add("email", MsgInvalidEmail)
	}
	if !contactPattern.MatchString(p.ContactNumber) {
		errs.Add("contactNumber", MsgInvalidContact)
	}
	return errs
}
