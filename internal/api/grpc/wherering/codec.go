package wherering

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/domain/ringer"
	"github.com/oshokin/wherering/internal/proximity"
)

// ErrBadMessage is returned when a message lacks a field or has the wrong type.
var ErrBadMessage = errors.New("malformed message")

// Status is the engine status as seen over the wire.
type Status struct {
	// Engine is the engine snapshot. Engaged places carry id and name only.
	Engine proximity.Status
	// Pending is the number of fixes waiting in the feed.
	Pending int
}

// FixToStruct encodes a fix.
func FixToStruct(fix place.Fix) (*structpb.Struct, error) {
	fields := map[string]any{
		"lat":      fix.Lat,
		"lon":      fix.Lon,
		"accuracy": fix.Accuracy,
	}

	if !fix.Timestamp.IsZero() {
		fields["timestamp"] = formatTime(fix.Timestamp)
	}

	if fix.Source != "" {
		fields["source"] = fix.Source
	}

	return structpb.NewStruct(fields)
}

// FixFromStruct decodes a fix. Latitude and longitude are required.
func FixFromStruct(message *structpb.Struct) (place.Fix, error) {
	fields := message.GetFields()

	lat, err := requireNumber(fields, "lat")
	if err != nil {
		return place.Fix{}, err
	}

	lon, err := requireNumber(fields, "lon")
	if err != nil {
		return place.Fix{}, err
	}

	timestamp, err := optionalTime(fields, "timestamp")
	if err != nil {
		return place.Fix{}, err
	}

	return place.Fix{
		Lat:       lat,
		Lon:       lon,
		Accuracy:  fields["accuracy"].GetNumberValue(),
		Timestamp: timestamp,
		Source:    fields["source"].GetStringValue(),
	}, nil
}

// StateToStruct encodes a ringer state.
func StateToStruct(state *ringer.State) (*structpb.Struct, error) {
	if state == nil {
		return structpb.NewStruct(nil)
	}

	fields := map[string]any{
		"mode": modeName(state.Mode),
	}

	if !state.Timestamp.IsZero() {
		fields["timestamp"] = formatTime(state.Timestamp)
	}

	if state.LastActor != nil {
		fields["last_actor"] = actorFields(state.LastActor)
	}

	return structpb.NewStruct(fields)
}

// StateFromStruct decodes a ringer state.
func StateFromStruct(message *structpb.Struct) (*ringer.State, error) {
	fields := message.GetFields()

	mode, err := requireMode(fields, "mode")
	if err != nil {
		return nil, err
	}

	timestamp, err := optionalTime(fields, "timestamp")
	if err != nil {
		return nil, err
	}

	return &ringer.State{
		Timestamp: timestamp,
		LastActor: actorFromStruct(fields["last_actor"].GetStructValue()),
		Mode:      mode,
	}, nil
}

// SetRingerRequest encodes a manual ringer change.
func SetRingerRequest(actor *ringer.Actor, mode ringer.Mode) (*structpb.Struct, error) {
	fields := map[string]any{"mode": modeName(mode)}
	if actor != nil {
		fields["actor"] = actorFields(actor)
	}

	return structpb.NewStruct(fields)
}

// ParseSetRingerRequest decodes a manual ringer change. The actor is required.
func ParseSetRingerRequest(message *structpb.Struct) (*ringer.Actor, ringer.Mode, error) {
	fields := message.GetFields()

	mode, err := requireMode(fields, "mode")
	if err != nil {
		return nil, 0, err
	}

	actor := actorFromStruct(fields["actor"].GetStructValue())
	if actor == nil {
		return nil, 0, fmt.Errorf("%w: actor is required", ErrBadMessage)
	}

	return actor, mode, nil
}

// StatusToStruct encodes an engine status.
func StatusToStruct(status Status) (*structpb.Struct, error) {
	engaged := make([]any, 0, len(status.Engine.Engaged))
	for _, e := range status.Engine.Engaged {
		engaged = append(engaged, map[string]any{
			"place_id": e.Place.ID,
			"name":     e.Place.Name,
			"seq":      strconv.FormatUint(e.Seq, 10),
		})
	}

	history := status.Engine.History

	fields := map[string]any{
		"started":  status.Engine.Started,
		"places":   float64(status.Engine.Places),
		"engaged":  engaged,
		"driving":  status.Engine.Driving,
		"last_seq": strconv.FormatUint(status.Engine.LastSeq, 10),
		"pending":  float64(status.Pending),
		"history": map[string]any{
			"prior_mode":        modeName(history.PriorMode),
			"last_set":          modeName(history.LastSet),
			"changed_by_policy": history.ChangedByPolicy,
		},
	}

	if !status.Engine.LastFix.IsZero() {
		fields["last_fix"] = formatTime(status.Engine.LastFix)
	}

	return structpb.NewStruct(fields)
}

// StatusFromStruct decodes an engine status.
func StatusFromStruct(message *structpb.Struct) (Status, error) {
	fields := message.GetFields()

	lastSeq, err := parseSeq(fields["last_seq"].GetStringValue())
	if err != nil {
		return Status{}, err
	}

	lastFix, err := optionalTime(fields, "last_fix")
	if err != nil {
		return Status{}, err
	}

	history := fields["history"].GetStructValue().GetFields()

	status := Status{
		Engine: proximity.Status{
			Started: fields["started"].GetBoolValue(),
			Places:  int(fields["places"].GetNumberValue()),
			Driving: fields["driving"].GetStringValue(),
			History: ringer.History{
				PriorMode:       optionalMode(history["prior_mode"].GetStringValue()),
				LastSet:         optionalMode(history["last_set"].GetStringValue()),
				ChangedByPolicy: history["changed_by_policy"].GetBoolValue(),
			},
			LastSeq: lastSeq,
			LastFix: lastFix,
		},
		Pending: int(fields["pending"].GetNumberValue()),
	}

	for _, value := range fields["engaged"].GetListValue().GetValues() {
		entry := value.GetStructValue().GetFields()

		seq, err := parseSeq(entry["seq"].GetStringValue())
		if err != nil {
			return Status{}, err
		}

		status.Engine.Engaged = append(status.Engine.Engaged, proximity.Engagement{
			Place: place.Place{
				ID:   entry["place_id"].GetStringValue(),
				Name: entry["name"].GetStringValue(),
			},
			Seq: seq,
		})
	}

	return status, nil
}

func actorFields(actor *ringer.Actor) map[string]any {
	return map[string]any{
		"hostname": actor.Hostname,
		"username": actor.Username,
	}
}

func actorFromStruct(message *structpb.Struct) *ringer.Actor {
	if message == nil {
		return nil
	}

	fields := message.GetFields()

	return &ringer.Actor{
		Hostname: fields["hostname"].GetStringValue(),
		Username: fields["username"].GetStringValue(),
	}
}

func requireNumber(fields map[string]*structpb.Value, name string) (float64, error) {
	value, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrBadMessage, name)
	}

	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadMessage, name)
	}

	return number.NumberValue, nil
}

func requireMode(fields map[string]*structpb.Value, name string) (ringer.Mode, error) {
	mode, err := ringer.ParseMode(fields[name].GetStringValue())
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadMessage, name, err)
	}

	return mode, nil
}

// modeName encodes the zero mode as an empty string.
func modeName(mode ringer.Mode) string {
	if !mode.Valid() {
		return ""
	}

	return mode.String()
}

func optionalMode(name string) ringer.Mode {
	mode, err := ringer.ParseMode(name)
	if err != nil {
		return 0
	}

	return mode
}

func optionalTime(fields map[string]*structpb.Value, name string) (time.Time, error) {
	raw := fields[name].GetStringValue()
	if raw == "" {
		return time.Time{}, nil
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrBadMessage, name, err)
	}

	return parsed, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseSeq(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}

	seq, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: sequence %q: %w", ErrBadMessage, raw, err)
	}

	return seq, nil
}

// countField encodes a count response such as the catalog size.
func countField(name string, n int) (*structpb.Struct, error) {
	if n < 0 || n > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %s out of range", ErrBadMessage, name)
	}

	return structpb.NewStruct(map[string]any{name: float64(n)})
}
