package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/logger"
)

var (
	seedOut      string
	seedDSN      string
	seedSeed     int64
	seedPerRoute int
	seedTruncate bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate the synthetic commuter population",
	Long: `Generate perRoute commuters for every ordered pair of locations.
The population is written as JSON (--out, "-" for stdout) or inserted
into Postgres (--dsn, defaults to DATABASE_URL).`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedOut, "out", "", `write JSON to this file ("-" for stdout)`)
	seedCmd.Flags().StringVar(&seedDSN, "dsn", "", "Postgres DSN [default: DATABASE_URL]")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 42, "RNG seed (deterministic)")
	seedCmd.Flags().IntVar(&seedPerRoute, "per-route", 3, "commuters per ordered route")
	seedCmd.Flags().BoolVar(&seedTruncate, "truncate", false, "empty the commuters table first")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedPerRoute < 1 {
		return errors.New("--per-route must be at least 1")
	}
	logger.Init("info", true)
	profiles := commuter.Generate(location.Default(), seedSeed, seedPerRoute)

	if seedOut != "" {
		w := cmd.OutOrStdout()
		if seedOut != "-" {
			f, err := os.Create(seedOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return writeProfiles(w, profiles)
	}

	dsn := seedDSN
	if dsn == "" {
		cfg, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		dsn = cfg.DatabaseURL
	}
	if dsn == "" {
		return errors.New("missing DSN: provide --dsn, --out or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	db, err := commuter.OpenPostgres(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	dir := commuter.NewPostgresDirectory(db)
	if err := dir.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := dir.SaveAll(ctx, profiles, seedTruncate); err != nil {
		return err
	}
	log.Info().Int("count", len(profiles)).Int64("seed", seedSeed).Bool("truncate", seedTruncate).Msg("Seed complete")
	return nil
}

func writeProfiles(w io.Writer, profiles []commuter.Profile) error {
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
