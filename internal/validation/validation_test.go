package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festreg/internal/models"
)

func participant(n int) models.Participant {
	return models.Participant{
		FullName:         fmt.Sprintf("Student %d", n),
		Email:            fmt.Sprintf("student%d@college.edu", n),
		EnrollmentNumber: fmt.Sprintf("EN%04d", n),
		ContactNumber:    "9876543210",
		CollegeName:      "City College",
		Semester:         "5",
		Branch:           "CSE",
		Gender:           "female",
		Degree:           "B.Tech",
	}
}

func teamGame(min, max int) models.Game {
	return models.Game{
		ID:               "robo-race",
		Day:              1,
		Name:             "Robo Race",
		BaseFee:          150,
		RegistrationType: models.RegistrationTeam,
		MinTeamSize:      min,
		MaxTeamSize:      max,
	}
}

func TestValidateParticipant(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Participant)
		want   FieldErrors
	}{
		{
			name:   "valid",
			mutate: func(*models.Participant) {},
			want:   FieldErrors{},
		},
		{
			name:   "blank name",
			mutate: func(p *models.Participant) { p.FullName = "   " },
			want:   FieldErrors{"fullName": "Full name is required"},
		},
		{
			name:   "blank email skips format check",
			mutate: func(p *models.Participant) { p.Email = "" },
			want:   FieldErrors{"email": "Email is required"},
		},
		{
			name:   "bad email",
			mutate: func(p *models.Participant) { p.Email = "student.college.edu" },
			want:   FieldErrors{"email": MsgInvalidEmail},
		},
		{
			name:   "short contact",
			mutate: func(p *models.Participant) { p.ContactNumber = "98765" },
			want:   FieldErrors{"contactNumber": MsgInvalidContact},
		},
		{
			name:   "long contact",
			mutate: func(p *models.Participant) { p.ContactNumber = "98765432101" },
			want:   FieldErrors{"contactNumber": MsgInvalidContact},
		},
		{
			name:   "non numeric contact",
			mutate: func(p *models.Participant) { p.ContactNumber = "98765abcde" },
			want:   FieldErrors{"contactNumber": MsgInvalidContact},
		},
		{
			name:   "blank contact reports required",
			mutate: func(p *models.Participant) { p.ContactNumber = "" },
			want:   FieldErrors{"contactNumber": "Contact number is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := participant(1)
			tt.mutate(&p)
			assert.Equal(t, tt.want, ValidateParticipant(p))
		})
	}
}

func TestValidateParticipantAllBlank(t *testing.T) {
	errs := ValidateParticipant(models.Participant{})
	assert.Len(t, errs, 9)
	assert.Equal(t, "Degree is required", errs["degree"])
}

func TestValidateTeamSize(t *testing.T) {
	game := teamGame(3, 4)

	errs := ValidateTeam(models.RegistrationTeam, "Bots", participant(1), []models.Participant{participant(2)}, game)
	require.Contains(t, errs, FieldTeamSize)
	assert.Contains(t, errs[FieldTeamSize], "1 more member(s)")

	errs = ValidateTeam(models.RegistrationTeam, "Bots", participant(1), []models.Participant{participant(2), participant(3)}, game)
	assert.True(t, errs.Empty(), errs)

	over := []models.Participant{participant(2), participant(3), participant(4), participant(5)}
	errs = ValidateTeam(models.RegistrationTeam, "Bots", participant(1), over, game)
	assert.Equal(t, "Maximum team size is 4", errs[FieldTeamSize])
}

func TestValidateTeamRequiresName(t *testing.T) {
	errs := ValidateTeam(models.RegistrationTeam, " ", participant(1), []models.Participant{participant(2), participant(3)}, teamGame(3, 4))
	assert.Equal(t, FieldErrors{FieldTeamName: "Team name is required"}, errs)
}

func TestValidateTeamPrefixesParticipantErrors(t *testing.T) {
	leader := participant(1)
	leader.Email = "bad"
	m := participant(2)
	m.ContactNumber = "123"

	errs := ValidateTeam(models.RegistrationTeam, "Bots", leader, []models.Participant{participant(3), m}, teamGame(3, 4))
	assert.Equal(t, MsgInvalidEmail, errs["leader-email"])
	assert.Equal(t, MsgInvalidContact, errs["member-1-contactNumber"])
	assert.Len(t, errs, 2)
}

func TestValidateTeamDuplicates(t *testing.T) {
	game := teamGame(1, 5)

	t.Run("member matches leader", func(t *testing.T) {
		leader := participant(1)
		leader.Email = "a@x.com"
		m := participant(2)
		m.Email = " A@X.com "
		m.EnrollmentNumber = "en0001"
		m.FullName = "student 1"

		errs := ValidateTeam(models.RegistrationTeam, "T", leader, []models.Participant{m}, game)
		assert.Contains(t, errs, "member-0-email")
		assert.Contains(t, errs, "member-0-enrollmentNumber")
		assert.Contains(t, errs, "member-0-fullName")
		assert.NotContains(t, errs, "leader-email")
	})

	t.Run("later member flagged", func(t *testing.T) {
		m0 := participant(2)
		m0.Email = "dup@x.com"
		m1 := participant(3)
		m1.Email = "dup@x.com"

		errs := ValidateTeam(models.RegistrationTeam, "T", participant(1), []models.Participant{m0, m1}, game)
		assert.Equal(t, FieldErrors{"member-1-email": "Duplicate email within team"}, errs)
	})

	t.Run("later enrollment flagged case insensitive", func(t *testing.T) {
		m0 := participant(2)
		m1 := participant(3)
		m1.EnrollmentNumber = "en0002"
		m2 := participant(4)
		m2.EnrollmentNumber = "EN0002"

		errs := ValidateTeam(models.RegistrationTeam, "T", participant(1), []models.Participant{m0, m1, m2}, game)
		assert.Contains(t, errs, "member-1-enrollmentNumber")
		assert.Contains(t, errs, "member-2-enrollmentNumber")
		assert.NotContains(t, errs, "member-0-enrollmentNumber")
	})

	t.Run("same name among members allowed", func(t *testing.T) {
		m0 := participant(2)
		m0.FullName = "John Smith"
		m1 := participant(3)
		m1.FullName = "John Smith"

		errs := ValidateTeam(models.RegistrationTeam, "T", participant(1), []models.Participant{m0, m1}, game)
		assert.True(t, errs.Empty(), errs)
	})
}

func TestValidateTeamRegistrationType(t *testing.T) {
	individualOnly := models.Game{ID: "solo", Name: "Code Sprint", Day: 1, RegistrationType: models.RegistrationIndividual, MinTeamSize: 1, MaxTeamSize: 1}

	errs := ValidateTeam(models.RegistrationTeam, "T", participant(1), nil, individualOnly)
	assert.Equal(t, "Code Sprint does not accept team registrations", errs[FieldRegistrationType])

	errs = ValidateTeam(models.RegistrationIndividual, "", participant(1), []models.Participant{participant(2)}, individualOnly)
	assert.Contains(t, errs, FieldMembers)

	errs = ValidateTeam(models.RegistrationIndividual, "ignored", participant(1), nil, individualOnly)
	assert.True(t, errs.Empty(), errs)

	errs = ValidateTeam("duo", "", participant(1), nil, individualOnly)
	assert.Contains(t, errs, FieldRegistrationType)
}

func TestTeamBuilder(t *testing.T) {
	b := NewTeamBuilder(teamGame(3, 4))
	assert.Equal(t, 3, b.Remaining())

	for i := 2; i <= 4; i++ {
		require.NoError(t, b.AddMember(participant(i)))
	}
	assert.Equal(t, 0, b.Remaining())

	err := b.AddMember(participant(5))
	assert.True(t, errors.Is(err, ErrTeamFull))
	assert.Len(t, b.Members(), 3)

	require.NoError(t, b.RemoveMember(0))
	assert.Equal(t, "Student 3", b.Members()[0].FullName)
	assert.Error(t, b.RemoveMember(7))
	require.NoError(t, b.AddMember(participant(6)))
}

func TestTeamBuilderSoloGame(t *testing.T) {
	b := NewTeamBuilder(models.Game{Name: "Code Sprint", MinTeamSize: 1, MaxTeamSize: 1})
	assert.ErrorIs(t, b.AddMember(participant(2)), ErrTeamFull)
}
