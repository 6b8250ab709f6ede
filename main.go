// main.go
//
// Entry point for the First Light game server.
// Startup order: .env → config → log level → content catalog → decoy pool →
// history database → session store (with idle pruning) → HTTP server.

package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/firstlight/internal/catalog"
	"github.com/robalobadob/firstlight/internal/config"
	"github.com/robalobadob/firstlight/internal/decoy"
	"github.com/robalobadob/firstlight/internal/history"
	"github.com/robalobadob/firstlight/internal/httpserver"
	"github.com/robalobadob/firstlight/internal/store"
)

const pruneEvery = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.DevSecret() {
		log.Warn().Msg("SESSION_SECRET not set; using development secret")
	}

	content, err := catalog.Load(catalog.Sources{
		GlyphsFile:        cfg.Content.GlyphsFile,
		TransmissionsFile: cfg.Content.TransmissionsFile,
		DecoysFile:        cfg.Content.DecoysFile,
		GameConfigFile:    cfg.Content.GameConfigFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load game content")
	}
	for _, w := range content.Warnings {
		log.Warn().Str("check", "content").Msg(w)
	}
	log.Info().
		Int("glyphs", len(content.Glyphs)).
		Int("transmissions", content.Transmissions.Len()).
		Int("decoys", len(content.DecoyPool)).
		Msg("content loaded")

	var hist *history.Writer
	if cfg.HistoryEnabled() {
		db, err := history.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open history db")
		}
		defer db.Close()
		hist = history.NewWriter(db, cfg.HistoryQueue)
		defer hist.Close()
	} else {
		log.Info().Msg("history disabled")
	}

	sessions := store.NewMemoryStore()
	go pruneLoop(sessions, cfg.SessionTTL())

	srv := httpserver.New(httpserver.Options{
		Content:           content,
		Decoys:            decoy.NewGenerator(content.DecoyPool, nil),
		Sessions:          sessions,
		History:           hist,
		ClientOrigin:      cfg.ClientOrigin,
		SessionSecret:     cfg.Session.Secret,
		SessionTTL:        cfg.SessionTTL(),
		SecureCookies:     cfg.Session.SecureCookie,
		AdminUser:         cfg.Admin.User,
		AdminPasswordHash: cfg.Admin.PasswordHash,
	})
	log.Info().Str("port", cfg.Port).Bool("admin", cfg.AdminEnabled()).Msg("starting firstlight")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// pruneLoop drops sessions idle for longer than ttl.
func pruneLoop(st store.Store, ttl time.Duration) {
	t := time.NewTicker(pruneEvery)
	defer t.Stop()
	for now := range t.C {
		if n := st.Prune(now.Add(-ttl)); n > 0 {
			log.Info().Int("pruned", n).Int("live", st.Len()).Msg("sessions pruned")
		}
	}
}
