// Package export renders registrations as spreadsheet rows. The same row
// layout feeds the live Google Sheet and the CSV/XLSX downloads.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"festreg/internal/models"
)

// Columns is the fixed header row.
var Columns = []string{
	"Timestamp",
	"RegistrationID",
	"GameName",
	"GameDate",
	"Venue",
	"TeamLeaderName",
	"TeamLeaderEmail",
	"TeamLeaderPhone",
	"TeamLeaderCollege",
	"TeamMembers",
	"TotalFee",
	"PaymentStatus",
	"Notes",
}

// Column indexes used by in-place sheet updates.
const (
	ColRegistrationID = 1
	ColPaymentStatus  = 11
)

type GameLookup interface {
	Get(id string) (models.Game, bool)
}

// Row builds the sheet row for reg. Date and venue come from the catalog and
// stay blank for a game that is no longer listed.
func Row(reg models.Registration, games GameLookup) []string {
	var game models.Game
	if games != nil {
		game, _ = games.Get(reg.GameID)
	}
	gameName := reg.GameName
	if gameName == "" {
		gameName = game.Name
	}
	return []string{
		reg.CreatedAt.UTC().Format(time.RFC3339),
		reg.ID,
		gameName,
		game.Date,
		game.Venue,
		reg.TeamLeader.FullName,
		reg.TeamLeader.Email,
		reg.TeamLeader.ContactNumber,
		reg.TeamLeader.CollegeName,
		Members(reg.TeamMembers),
		strconv.FormatInt(reg.TotalFee, 10),
		string(reg.PaymentStatus),
		Notes(reg),
	}
}

// Members formats the member list as "Name <email>" joined by ", ".
func Members(members []models.Participant) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		parts = append(parts, fmt.Sprintf("%s <%s>", m.FullName, m.Email))
	}
	return strings.Join(parts, ", ")
}

func Notes(reg models.Registration) string {
	if reg.RegistrationType == models.RegistrationTeam {
		return "team: " + reg.TeamName
	}
	return "individual"
}

// Rows returns the header followed by one row per registration.
func Rows(regs []models.Registration, games GameLookup) [][]string {
	out := make([][]string, 0, len(regs)+1)
	out = append(out, Columns)
	for _, r := range regs {
		out = append(out, Row(r, games))
	}
	return out
}
