package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"festreg/internal/models"
)

// Registration is the registrations table row. The (user_id, game_day)
// unique constraint is created by the migrations package.
type Registration struct {
	bun.BaseModel    `bun:"table:registrations,alias:r"`
	ID               string               `bun:"id,pk,type:uuid"`
	UserID           string               `bun:"user_id,notnull"`
	GameID           string               `bun:"game_id,notnull"`
	GameName         string               `bun:"game_name,notnull"`
	GameDay          string               `bun:"game_day,notnull"`
	RegistrationType string               `bun:"registration_type,notnull"`
	TeamName         string               `bun:"team_name,nullzero"`
	TeamLeader       models.Participant   `bun:"team_leader,type:jsonb,notnull"`
	TeamMembers      []models.Participant `bun:"team_members,type:jsonb,notnull"`
	TotalFee         int64                `bun:"total_fee,notnull"`
	ApprovalStatus   string               `bun:"approval_status,notnull"`
	PaymentStatus    string               `bun:"payment_status,notnull"`
	CreatedAt        time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type dayAggregate struct {
	GameDay   string   `bun:"game_day"`
	Total     int      `bun:"total"`
	TotalFees int64    `bun:"total_fees"`
	Approved  int      `bun:"approved"`
	Pending   int      `bun:"pending"`
	Rejected  int      `bun:"rejected"`
	Paid      int      `bun:"paid"`
	Games     []string `bun:"games,array"`
}

func fromModel(r *models.Registration) *Registration {
	members := r.TeamMembers
	if members == nil {
		members = []models.Participant{}
	}
	return &Registration{
		ID:               r.ID,
		UserID:           r.UserID,
		GameID:           r.GameID,
		GameName:         r.GameName,
		GameDay:          string(r.GameDay),
		RegistrationType: string(r.RegistrationType),
		TeamName:         r.TeamName,
		TeamLeader:       r.TeamLeader,
		TeamMembers:      members,
		TotalFee:         r.TotalFee,
		ApprovalStatus:   string(r.ApprovalStatus),
		PaymentStatus:    string(r.PaymentStatus),
		CreatedAt:        r.CreatedAt,
	}
}

func (r *Registration) toModel() models.Registration {
	return models.Registration{
		ID:               r.ID,
		UserID:           r.UserID,
		GameID:           r.GameID,
		GameName:         r.GameName,
		GameDay:          models.GameDay(r.GameDay),
		RegistrationType: models.RegistrationType(r.RegistrationType),
		TeamName:         r.TeamName,
		TeamLeader:       r.TeamLeader,
		TeamMembers:      r.TeamMembers,
		TotalFee:         r.TotalFee,
		ApprovalStatus:   models.ApprovalStatus(r.ApprovalStatus),
		PaymentStatus:    models.PaymentStatus(r.PaymentStatus),
		CreatedAt:        r.CreatedAt,
	}
}
