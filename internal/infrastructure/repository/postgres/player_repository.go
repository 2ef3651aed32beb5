package postgres

import (
	"context"
	"database/sql"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchmaker/internal/domain/club"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/platform/geo"
	qb "github.com/riskibarqy/matchmaker/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

var playerSelectColumns = []string{
	"id",
	"group_id",
	"name",
	"level",
	"side",
	"home_lat",
	"home_lon",
	"work_lat",
	"work_lon",
	"zone_id",
	"accepted_club_ids",
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) ListByGroup(ctx context.Context, groupID string) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(
			qb.Eq("group_id", groupID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build select players by group query")
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "select players by group=%s", groupID)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:              row.ID,
		GroupID:         row.GroupID,
		Name:            row.Name,
		Level:           row.Level,
		Side:            player.Side(row.Side),
		Home:            coordinate(row.HomeLat, row.HomeLon),
		Work:            coordinate(row.WorkLat, row.WorkLon),
		ZoneID:          row.ZoneID,
		AcceptedClubIDs: append([]string(nil), row.AcceptedClubIDs...),
	}
}

func coordinate(lat, lon sql.NullFloat64) *geo.Coordinate {
	la, okLat := nullFloat(lat)
	lo, okLon := nullFloat(lon)
	if !okLat || !okLon {
		return nil
	}
	return &geo.Coordinate{Lat: la, Lon: lo}
}

type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) ListByZone(ctx context.Context, zoneID string) ([]club.Club, error) {
	query, args, err := qb.Select("id", "zone_id", "name").From("clubs").
		Where(
			qb.Eq("zone_id", zoneID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, crerr.Wrap(err, "build select clubs by zone query")
	}

	var rows []clubTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "select clubs by zone=%s", zoneID)
	}

	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, club.Club{ID: row.ID, ZoneID: row.ZoneID, Name: row.Name})
	}
	return out, nil
}
