// Package catalog implements the place administration commands. They edit the
// SQLite catalog directly and ask a running server to reload it afterwards.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/oshokin/wherering/internal/config"
	"github.com/oshokin/wherering/internal/domain/place"
	"github.com/oshokin/wherering/internal/logger"
	"github.com/oshokin/wherering/internal/repository/places"
	"github.com/oshokin/wherering/internal/service/common"
)

// Options controls where the catalog lives and which server to notify.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// PlacesDB overrides the place database from config.
	PlacesDB string
	// ServerAddress overrides the server notified after a change.
	ServerAddress string
	// NoRefresh skips notifying the server.
	NoRefresh bool
	// Out receives command output; stdout when nil.
	Out io.Writer
}

// errNoPlaces is returned when an import file holds no usable place.
var errNoPlaces = errors.New("no usable places in file")

// session is an open catalog with the settings it was opened from.
type session struct {
	store *places.SQLiteStore
	cfg   *config.Config
	opts  *Options
	out   io.Writer
}

func open(ctx context.Context, opts *Options) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if opts.PlacesDB != "" {
		cfg.PlacesDB = opts.PlacesDB
	}

	if opts.ServerAddress != "" {
		cfg.ServerAddress = opts.ServerAddress
	}

	metric, _ := place.MetricByName(cfg.Metric)

	store, err := places.Open(ctx, cfg.PlacesDB, places.WithMetric(metric))
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &session{store: store, cfg: cfg, opts: opts, out: out}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.store.Close(); err != nil {
		logger.WarnKV(ctx, "Close places database failed", "error", err)
	}
}

// refresh asks the server to reload. Failures are logged, not returned: the
// catalog change itself already succeeded.
func (s *session) refresh(ctx context.Context) {
	if s.opts.NoRefresh {
		return
	}

	client, err := common.Dial(ctx, s.cfg.ServerAddress, common.WithCallTimeout(s.cfg.Timeout))
	if err != nil {
		logger.WarnKV(ctx, "Server not notified", "error", err)
		return
	}

	defer func() {
		_ = client.Close()
	}()

	n, err := client.RefreshCatalog(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Server not notified", "server_address", s.cfg.ServerAddress, "error", err)
		return
	}

	logger.InfoKV(ctx, "Server reloaded catalog", "places", n)
}

// Add stores a place, generating an id when none is given.
func Add(ctx context.Context, opts *Options, p place.Place) error {
	ctx = logger.WithName(ctx, "wherering-places")

	s, err := open(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if strings.TrimSpace(p.ID) == "" {
		p.ID = places.NewID()
	}

	if err = s.store.Upsert(ctx, p); err != nil {
		return err
	}

	if _, err = fmt.Fprintf(s.out, "place %s saved\n", p.ID); err != nil {
		return err
	}

	s.refresh(ctx)

	return nil
}

// List prints the catalog in evaluation order.
func List(ctx context.Context, opts *Options) error {
	s, err := open(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	list, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	return writeTable(s.out, list)
}

// Remove deletes a place by id.
func Remove(ctx context.Context, opts *Options, id string) error {
	ctx = logger.WithName(ctx, "wherering-places")

	s, err := open(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if err = s.store.Delete(ctx, id); err != nil {
		return err
	}

	if _, err = fmt.Fprintf(s.out, "place %s removed\n", id); err != nil {
		return err
	}

	s.refresh(ctx)

	return nil
}

// Import upserts every usable place of a YAML catalog file in one transaction.
func Import(ctx context.Context, opts *Options, path string) error {
	ctx = logger.WithName(ctx, "wherering-places")

	imported, err := places.NewYAMLFile(path).Load(ctx)
	if err != nil {
		return err
	}

	if len(imported) == 0 {
		return fmt.Errorf("%s: %w", path, errNoPlaces)
	}

	s, err := open(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if err = s.store.UpsertAll(ctx, imported); err != nil {
		return err
	}

	if _, err = fmt.Fprintf(s.out, "%d places imported from %s\n", len(imported), path); err != nil {
		return err
	}

	s.refresh(ctx)

	return nil
}

// Export writes the catalog as YAML to path, or to the output when path is "-".
func Export(ctx context.Context, opts *Options, path string) error {
	s, err := open(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	list, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	if path != "-" {
		return places.NewYAMLFile(path).Save(list)
	}

	data, err := places.MarshalYAML(list)
	if err != nil {
		return err
	}

	_, err = s.out.Write(data)

	return err
}

func writeTable(out io.Writer, list []place.Place) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tMODE\tSHAPE")

	for i := range list {
		p := &list[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Mode, describe(p.Geometry))
	}

	return w.Flush()
}

func describe(g place.Geometry) string {
	switch g.Kind {
	case place.KindCircle:
		return fmt.Sprintf("circle (%.6f, %.6f) r=%g", g.Center.Lat, g.Center.Lon, g.Radius)
	case place.KindPolygon:
		return fmt.Sprintf("polygon %d vertices", len(g.Ring))
	default:
		return g.Kind.String()
	}
}
