package client

import (
	"fmt"
	"strings"
	"time"

	api "github.com/oshokin/wherering/internal/api/grpc/wherering"
	"github.com/oshokin/wherering/internal/domain/ringer"
)

// formatState renders a ringer state as "mode by actor (time)".
func formatState(state *ringer.State) string {
	if state == nil {
		return "<nil state>"
	}

	timestamp := "<unknown>"
	if !state.Timestamp.IsZero() {
		timestamp = state.Timestamp.Format(time.RFC3339)
	}

	return fmt.Sprintf("%s by %s (%s)", state.Mode, state.LastActor, timestamp)
}

// formatStatus renders the engine status as aligned key/value lines.
func formatStatus(status api.Status, state *ringer.State) string {
	var b strings.Builder

	engine := status.Engine

	driving := engine.Driving
	if driving == "" {
		driving = "-"
	}

	lastFix := "-"
	if !engine.LastFix.IsZero() {
		lastFix = engine.LastFix.Format(time.RFC3339)
	}

	fmt.Fprintf(&b, "started:  %t\n", engine.Started)
	fmt.Fprintf(&b, "places:   %d\n", engine.Places)
	fmt.Fprintf(&b, "driving:  %s\n", driving)

	engaged := make([]string, 0, len(engine.Engaged))
	for _, e := range engine.Engaged {
		engaged = append(engaged, fmt.Sprintf("%s#%d", e.Place.Label(), e.Seq))
	}

	fmt.Fprintf(&b, "engaged:  %s\n", strings.Join(engaged, ", "))
	fmt.Fprintf(&b, "history:  %s\n", formatHistory(engine.History))
	fmt.Fprintf(&b, "last seq: %d\n", engine.LastSeq)
	fmt.Fprintf(&b, "last fix: %s\n", lastFix)
	fmt.Fprintf(&b, "pending:  %d\n", status.Pending)
	fmt.Fprintf(&b, "ringer:   %s\n", formatState(state))

	return b.String()
}

func formatHistory(h ringer.History) string {
	if !h.ChangedByPolicy {
		return "not owned"
	}

	return fmt.Sprintf("set %s, restores %s", h.LastSet, h.PriorMode)
}
