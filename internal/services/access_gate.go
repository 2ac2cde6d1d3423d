package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoomWaiting = "waiting"
	RoomActive  = "active"
	RoomEnded   = "ended"

	// Clients may enter up to five minutes early; the room closes sixty
	// minutes after the scheduled start regardless of who is asking.
	roomJoinWindow  = 5 * time.Minute
	roomSessionSpan = 60 * time.Minute
)

type RoomAccess struct {
	Status           string `json:"status"`
	SecondsRemaining int64  `json:"seconds_remaining"`
	RoomName         string `json:"room_name"`
}

// AccessGate decides whether an actor may currently enter an appointment's
// live room. Pure function of wall-clock time and appointment metadata; it
// keeps no state of its own.
type AccessGate struct {
	priority map[string]struct{}
}

func NewAccessGate(priorityEmails []string) *AccessGate {
	priority := make(map[string]struct{}, len(priorityEmails))
	for _, email := range priorityEmails {
		priority[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	return &AccessGate{priority: priority}
}

func (g *AccessGate) IsPriority(email string) bool {
	_, ok := g.priority[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Evaluate reports the gate verdict at the given instant. While waiting,
// SecondsRemaining counts down to the moment the room opens; while active, to
// the hard close.
func (g *AccessGate) Evaluate(now, scheduledAt time.Time, actorEmail string) RoomAccess {
	closesAt := scheduledAt.Add(roomSessionSpan)
	if !now.Before(closesAt) {
		return RoomAccess{Status: RoomEnded, SecondsRemaining: 0}
	}

	if untilStart := scheduledAt.Sub(now); untilStart > roomJoinWindow && !g.IsPriority(actorEmail) {
		return RoomAccess{
			Status:           RoomWaiting,
			SecondsRemaining: int64((untilStart - roomJoinWindow) / time.Second),
		}
	}

	return RoomAccess{
		Status:           RoomActive,
		SecondsRemaining: int64(closesAt.Sub(now) / time.Second),
	}
}

// RoomName derives the live room identifier handed to the real-time provider.
// Deterministic so every participant of an appointment lands in the same room.
func RoomName(appointmentID int64) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("appointments/%d", appointmentID)))
	return "session-" + id.String()
}
