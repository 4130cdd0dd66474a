package validation

import (
	"errors"
	"fmt"
	"strings"

	"festreg/internal/models"
	"festreg/internal/util"
)

var ErrTeamFull = errors.New("team is full")

const (
	FieldTeamName         = "teamName"
	FieldTeamSize         = "teamSize"
	FieldMembers          = "members"
	FieldRegistrationType = "registrationType"
)

func memberKey(i int, field string) string { return fmt.Sprintf("member-%d-%s", i, field) }

// ValidateTeam checks a whole registration form against the game. Leader
// errors are prefixed "leader-", member errors "member-{i}-".
//
// Members are compared with the leader on email, enrollment number and name.
// Among members only email and enrollment number are compared; the later
// index carries the error.
func ValidateTeam(regType models.RegistrationType, teamName string, leader models.Participant, members []models.Participant, game models.Game) FieldErrors {
	errs := FieldErrors{}

	if regType != models.RegistrationIndividual && regType != models.RegistrationTeam {
		errs.Add(FieldRegistrationType, "Choose individual or team registration")
		return errs
	}
	if !game.Allows(regType) {
		errs.Add(FieldRegistrationType, fmt.Sprintf("%s does not accept %s registrations", game.Name, regType))
	}

	isTeam := regType == models.RegistrationTeam
	if isTeam && strings.TrimSpace(teamName) == "" {
		errs.Add(FieldTeamName, "Team name is required")
	}
	if !isTeam && len(members) > 0 {
		errs.Add(FieldMembers, "Individual registrations cannot include team members")
	}

	errs.Merge("leader-", ValidateParticipant(leader))
	for i, m := range members {
		errs.Merge(memberKey(i, ""), ValidateParticipant(m))
	}

	if isTeam {
		size := 1 + len(members)
		switch {
		case game.MinTeamSize > 0 && size < game.MinTeamSize:
			errs.Add(FieldTeamSize, fmt.Sprintf("Add %d more member(s) to meet the minimum team size of %d", game.MinTeamSize-size, game.MinTeamSize))
		case game.MaxTeamSize > 0 && size > game.MaxTeamSize:
			errs.Add(FieldTeamSize, fmt.Sprintf("Maximum team size is %d", game.MaxTeamSize))
		}
	}

	checkDuplicates(errs, leader, members)
	return errs
}

func checkDuplicates(errs FieldErrors, leader models.Participant, members []models.Participant) {
	leaderEmail := util.FoldKey(leader.Email)
	leaderEnrollment := util.FoldKey(leader.EnrollmentNumber)
	leaderName := util.FoldKey(leader.FullName)

	for i, m := range members {
		if v := util.FoldKey(m.Email); v != "" && v == leaderEmail {
			errs.Add(memberKey(i, "email"), "Email matches the team leader's email")
		}
		if v := util.FoldKey(m.EnrollmentNumber); v != "" && v == leaderEnrollment {
			errs.Add(memberKey(i, "enrollmentNumber"), "Enrollment number matches the team leader's")
		}
		if v := util.FoldKey(m.FullName); v != "" && v == leaderName {
			errs.Add(memberKey(i, "fullName"), "Name matches the team leader's name")
		}
	}

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if v := util.FoldKey(members[j].Email); v != "" && v == util.FoldKey(members[i].Email) {
				errs.Add(memberKey(j, "email"), "Duplicate email within team")
			}
			if v := util.FoldKey(members[j].EnrollmentNumber); v != "" && v == util.FoldKey(members[i].EnrollmentNumber) {
				errs.Add(memberKey(j, "enrollmentNumber"), "Duplicate enrollment number within team")
			}
		}
	}
}

// TeamBuilder accumulates the member list of a team form. It never holds more
// than MaxTeamSize-1 members, the leader taking the remaining seat.
type TeamBuilder struct {
	game    models.Game
	members []models.Participant
}

func NewTeamBuilder(game models.Game) *TeamBuilder {
	return &TeamBuilder{game: game}
}

func (b *TeamBuilder) capacity() int {
	if b.game.MaxTeamSize < 1 {
		return 0
	}
	return b.game.MaxTeamSize - 1
}

// AddMember appends p, or returns ErrTeamFull when no seat is left.
func (b *TeamBuilder) AddMember(p models.Participant) error {
	if len(b.members) >= b.capacity() {
		return fmt.Errorf("%w: %s allows at most %d members besides the leader", ErrTeamFull, b.game.Name, b.capacity())
	}
	b.members = append(b.members, p)
	return nil
}

func (b *TeamBuilder) RemoveMember(i int) error {
	if i < 0 || i >= len(b.members) {
		return fmt.Errorf("member index %d out of range", i)
	}
	b.members = append(b.members[:i], b.members[i+1:]...)
	return nil
}

// Remaining is the number of members that can still be added.
func (b *TeamBuilder) Remaining() int {
	return b.capacity() - len(b.members)
}

func (b *TeamBuilder) Members() []models.Participant {
	out := make([]models.Participant, len(b.members))
	copy(out, b.members)
	return out
}
