package matching

import (
	"time"

	"github.com/riskibarqy/matchmaker/internal/domain/availability"
	"github.com/riskibarqy/matchmaker/internal/domain/player"
	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
	"github.com/riskibarqy/matchmaker/internal/domain/session"
	"github.com/riskibarqy/matchmaker/internal/platform/geo"
	"github.com/riskibarqy/matchmaker/internal/platform/timerange"
)

const testGroup = "group-1"

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func window(sh, sm, eh, em int) timerange.Range {
	return timerange.Range{Start: at(sh, sm), End: at(eh, em)}
}

func available(userID string, sh, sm, eh, em int) availability.Interval {
	return availability.Interval{
		GroupID: testGroup,
		UserID:  userID,
		Start:   at(sh, sm),
		End:     at(eh, em),
		Status:  availability.StatusAvailable,
	}
}

func testWeek() timerange.Range {
	return timerange.Range{Start: testDay, End: testDay.Add(7 * 24 * time.Hour)}
}

func profile(id string, level int, zone string, clubs ...string) player.Player {
	return player.Player{
		ID:              id,
		GroupID:         testGroup,
		Level:           level,
		ZoneID:          zone,
		Home:            &geo.Coordinate{Lat: -6.2, Lon: 106.8},
		AcceptedClubIDs: clubs,
	}
}

func booking(id string, status session.Status, w timerange.Range, rows map[string]rsvp.Status) Booking {
	b := Booking{
		Session: session.Session{ID: id, GroupID: testGroup, TimeSlotID: "ts-" + id, Status: status},
		Window:  w,
	}
	for userID, st := range rows {
		b.Rsvps = append(b.Rsvps, rsvp.Rsvp{SessionID: id, UserID: userID, Status: st})
	}
	return b
}
