package models

import (
	"fmt"
	"time"
)

type RegistrationType string

const (
	RegistrationIndividual RegistrationType = "individual"
	RegistrationTeam       RegistrationType = "team"
	// RegistrationBoth is only valid on a Game.
	RegistrationBoth RegistrationType = "both"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// GameDay is the stored day tag of a registration ("day1" or "day2").
type GameDay string

const (
	Day1 GameDay = "day1"
	Day2 GameDay = "day2"
)

// GameDayFor maps a catalog day number to its tag.
func GameDayFor(day int) (GameDay, error) {
	switch day {
	case 1:
		return Day1, nil
	case 2:
		return Day2, nil
	}
	return "", fmt.Errorf("invalid game day %d", day)
}

// DayNumber returns 1 or 2, or 0 for an unknown tag.
func (d GameDay) DayNumber() int {
	switch d {
	case Day1:
		return 1
	case Day2:
		return 2
	}
	return 0
}

type Game struct {
	ID               string           `yaml:"id" json:"id"`
	Day              int              `yaml:"day" json:"day"`
	Name             string           `yaml:"name" json:"name"`
	Date             string           `yaml:"date" json:"date"`
	Venue            string           `yaml:"venue" json:"venue"`
	BaseFee          int64            `yaml:"base_fee" json:"baseFee"`
	RegistrationType RegistrationType `yaml:"registration_type" json:"registrationType"`
	MinTeamSize      int              `yaml:"min_team_size" json:"minTeamSize"`
	MaxTeamSize      int              `yaml:"max_team_size" json:"maxTeamSize"`
}

// Allows reports whether the game accepts registrations of type t.
func (g Game) Allows(t RegistrationType) bool {
	if g.RegistrationType == RegistrationBoth {
		return t == RegistrationIndividual || t == RegistrationTeam
	}
	return g.RegistrationType == t
}

// TotalFee is BaseFee for every participant, leader included.
func (g Game) TotalFee(memberCount int) int64 {
	return g.BaseFee * int64(1+memberCount)
}

type Participant struct {
	FullName         string `json:"fullName"`
	Email            string `json:"email"`
	EnrollmentNumber string `json:"enrollmentNumber"`
	ContactNumber    string `json:"contactNumber"`
	CollegeName      string `json:"collegeName"`
	Semester         string `json:"semester"`
	Branch           string `json:"branch"`
	Gender           string `json:"gender"`
	Degree           string `json:"degree"`
}

type Registration struct {
	ID               string           `json:"registrationId"`
	UserID           string           `json:"userId"`
	GameID           string           `json:"gameId"`
	GameName         string           `json:"gameName"`
	GameDay          GameDay          `json:"gameDay"`
	RegistrationType RegistrationType `json:"registrationType"`
	TeamName         string           `json:"teamName,omitempty"`
	TeamLeader       Participant      `json:"teamLeader"`
	TeamMembers      []Participant    `json:"teamMembers"`
	TotalFee         int64            `json:"totalFee"`
	ApprovalStatus   ApprovalStatus   `json:"approvalStatus"`
	PaymentStatus    PaymentStatus    `json:"paymentStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
}
