package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/domain/ringer"
)

// Repository defines persistence operations for the ringer state.
type Repository interface {
	Load(ctx context.Context) (*ringer.State, error)
	Save(ctx context.Context, state *ringer.State) error
}

// FileRepository persists the ringer state to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// errBadState is returned for a file that decodes but is not a ringer state.
var errBadState = errors.New("malformed ringer state")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the state file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the state from disk.
func (r *FileRepository) Load(_ context.Context) (*ringer.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var message structpb.Struct
	if err = protojson.Unmarshal(contents, &message); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return fromProto(&message)
}

// Save writes the state to disk.
func (r *FileRepository) Save(_ context.Context, state *ringer.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, err := toProto(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
	}

	data, err := marshalOptions.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// fromProto converts the stored struct into the domain State model.
func fromProto(message *structpb.Struct) (*ringer.State, error) {
	fields := message.GetFields()

	mode, err := ringer.ParseMode(fields["mode"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadState, err)
	}

	state := &ringer.State{Mode: mode}

	if raw := fields["timestamp"].GetStringValue(); raw != "" {
		state.Timestamp, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp: %w", errBadState, err)
		}
	}

	if actor := fields["last_actor"].GetStructValue(); actor != nil {
		state.LastActor = &ringer.Actor{
			Hostname: actor.GetFields()["hostname"].GetStringValue(),
			Username: actor.GetFields()["username"].GetStringValue(),
		}
	}

	return state, nil
}

// toProto converts the domain State model into a protobuf struct.
func toProto(state *ringer.State) (*structpb.Struct, error) {
	if state == nil || !state.Mode.Valid() {
		return nil, errBadState
	}

	fields := map[string]any{
		"mode": state.Mode.String(),
	}

	if !state.Timestamp.IsZero() {
		fields["timestamp"] = state.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	if state.LastActor != nil {
		fields["last_actor"] = map[string]any{
			"hostname": state.LastActor.Hostname,
			"username": state.LastActor.Username,
		}
	}

	return structpb.NewStruct(fields)
}
