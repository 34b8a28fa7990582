package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"room-service/internal/observability"
	"room-service/internal/repositories"
	"room-service/internal/telemetry"
)

// InactivityThreshold is the fixed no-activity window after which a room is
// eligible for deletion.
const InactivityThreshold = 24 * time.Hour

// Result reports a sweep outcome: rooms successfully deleted and errors
// encountered. Failures never propagate beyond these counts.
type Result struct {
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

// Sweeper deletes rooms whose last activity is older than the threshold,
// along with every message belonging to them.
type Sweeper struct {
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	emitter     *telemetry.AuditEmitter
}

// NewSweeper constructs a Sweeper. The emitter may be nil.
func NewSweeper(roomRepo repositories.RoomRepository, messageRepo repositories.MessageRepository, emitter *telemetry.AuditEmitter) *Sweeper {
	return &Sweeper{roomRepo: roomRepo, messageRepo: messageRepo, emitter: emitter}
}

// Sweep scans up to one page of stale rooms and purges them. Within a room
// its messages are deleted before the room document, so an interrupted sweep
// leaves an orphaned room rather than orphaned messages. Every message and
// room deletion is attempted independently; a failure increments the error
// count and the sweep moves on. No retry, no rollback, never an error
// return.
func (s *Sweeper) Sweep(ctx context.Context) Result {
	start := time.Now()
	cutoff := start.Add(-InactivityThreshold)
	log.Printf("cleanup sweep started cutoff=%s", cutoff.UTC().Format(time.RFC3339))

	stale, err := s.roomRepo.ListRoomsUpdatedBefore(ctx, cutoff, repositories.RoomPageSize)
	if err != nil {
		log.Printf("cleanup sweep failed to list rooms: %v", err)
		observability.AddSweepErrors(1)
		return Result{Deleted: 0, Errors: 1}
	}

	if len(stale) == 0 {
		log.Println("cleanup sweep found no inactive rooms")
		return Result{}
	}

	var result Result
	for _, room := range stale {
		msgs, err := s.messageRepo.ListRoomMessages(ctx, room.ID, repositories.CleanupMessagePageSize)
		if err != nil {
			log.Printf("cleanup failed to list messages room=%s: %v", room.ID, err)
			result.Errors++
			continue
		}

		for _, msg := range msgs {
			if err := s.messageRepo.DeleteMessage(ctx, msg.ID); err != nil {
				log.Printf("cleanup failed to delete message id=%s room=%s: %v", msg.ID, room.ID, err)
				result.Errors++
			}
		}

		if err := s.roomRepo.DeleteRoom(ctx, room.ID); err != nil {
			log.Printf("cleanup failed to delete room id=%s: %v", room.ID, err)
			result.Errors++
			continue
		}
		result.Deleted++
		log.Printf("cleanup deleted inactive room id=%s title=%q", room.ID, room.Title)
	}

	observability.AddSweepRoomsDeleted(result.Deleted)
	observability.AddSweepErrors(result.Errors)
	observability.ObserveSweepDuration(time.Since(start))
	s.emitter.EmitSweepResult(ctx, result.Deleted, result.Errors)

	log.Printf("cleanup sweep finished deleted=%d errors=%d", result.Deleted, result.Errors)
	return result
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	s.Sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// InactiveAt reports whether a last-update timestamp is past the threshold
// at the given instant. The boundary is exclusive: exactly threshold-old is
// still active.
func InactiveAt(lastUpdated, now time.Time) bool {
	return now.Sub(lastUpdated) > InactivityThreshold
}

// IsInactive is InactiveAt against the wall clock.
func IsInactive(lastUpdated time.Time) bool {
	return InactiveAt(lastUpdated, time.Now())
}

// ExpiryCountdown renders the time remaining until a room expires, given its
// last-update timestamp, as "Xh Ym remaining" ("Ym remaining" under one
// hour) or "Expired".
func ExpiryCountdown(lastUpdated, now time.Time) string {
	remaining := lastUpdated.Add(InactivityThreshold).Sub(now)
	if remaining <= 0 {
		return "Expired"
	}

	hours := int(remaining / time.Hour)
	minutes := int(remaining%time.Hour) / int(time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	}
	return fmt.Sprintf("%dm remaining", minutes)
}

// TimeUntilExpiry is ExpiryCountdown against the wall clock.
func TimeUntilExpiry(lastUpdated time.Time) string {
	return ExpiryCountdown(lastUpdated, time.Now())
}
