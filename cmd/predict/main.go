// Command predict prints one game prediction as JSON without running the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/gridiron/internal/adapters/feeds"
	"github.com/okian/gridiron/internal/adapters/repository"
	service "github.com/okian/gridiron/internal/app"
	"github.com/okian/gridiron/internal/domain/model"
	"github.com/okian/gridiron/internal/snapshot"
	"github.com/okian/gridiron/pkg/logger"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			os.Stderr.WriteString("predict: " + err.Error() + "\n")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		home     = fs.String("home", "", "Home team abbreviation")
		away     = fs.String("away", "", "Away team abbreviation")
		season   = fs.Int("season", time.Now().Year(), "Season")
		week     = fs.Int("week", 1, "Week")
		dbPath   = fs.String("db", "", "SQLite database with play history (default in-memory)")
		plays    = fs.String("plays", "", `JSON file of plays to load first, {"plays": [...]}`)
		grades   = fs.String("grades", "", "Grades file (YAML or JSON)")
		injuries = fs.String("injuries", "", "Injury report file (YAML or JSON)")
		verbose  = fs.Bool("v", false, "Log to stderr")
		conds    = weatherFlags(fs)
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithWriter(stderr)); err != nil {
		return err
	}
	if err := logger.SetLevelString(level); err != nil {
		return err
	}

	path := *dbPath
	if path == "" {
		path = repository.MemoryPath
	}
	store, err := repository.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	data, err := feeds.FileSource{GradesPath: *grades, InjuriesPath: *injuries}.Load(ctx)
	if err != nil {
		return err
	}
	holder := snapshot.NewHolder()
	holder.Store(data)

	svc, err := service.New(service.WithPlayStore(store), service.WithSnapshotHolder(holder))
	if err != nil {
		return err
	}

	if *plays != "" {
		records, err := readPlays(*plays)
		if err != nil {
			return err
		}
		if _, _, err := svc.IngestPlays(ctx, records); err != nil {
			return err
		}
	}

	req := model.Request{
		HomeTeam: model.NormalizeTeam(*home),
		AwayTeam: model.NormalizeTeam(*away),
		Season:   *season,
		Week:     *week,
	}
	req.Weather = forecast(fs, *conds)

	res, err := svc.Predict(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// mildTempF is the -temp default; it sits above freezing so wind alone adds no cold.
const mildTempF = 60.0

func weatherFlags(fs *flag.FlagSet) *model.WeatherConditions {
	c := &model.WeatherConditions{}
	fs.Float64Var(&c.TemperatureF, "temp", mildTempF, "Temperature in F")
	fs.Float64Var(&c.WindMPH, "wind", 0, "Wind speed in mph")
	fs.Float64Var(&c.PrecipProbability, "precip", 0, "Precipitation probability 0-1")
	fs.BoolVar(&c.Dome, "dome", false, "Game is played indoors")
	return c
}

// forecast returns c when any weather flag was set, else nil.
func forecast(fs *flag.FlagSet, c model.WeatherConditions) *model.WeatherConditions {
	var set bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "temp", "wind", "precip", "dome":
			set = true
		}
	})
	if !set {
		return nil
	}
	return &c
}

func readPlays(path string) ([]model.PlayRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plays: %w", err)
	}
	var doc struct {
		Plays []model.PlayRecord `json:"plays"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode plays %s: %w", path, err)
	}
	return doc.Plays, nil
}
