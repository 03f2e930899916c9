// Command querysight serves the natural-language analytics API:
// question in, read-only SQL out, chart spec attached.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/querysight/querysight/internal/config"
	"github.com/querysight/querysight/internal/genai/groq"
	"github.com/querysight/querysight/internal/logger"
	"github.com/querysight/querysight/internal/modules"
	modminio "github.com/querysight/querysight/internal/modules/minio"
	"github.com/querysight/querysight/internal/server"
	"github.com/querysight/querysight/internal/store"
	"github.com/querysight/querysight/internal/store/mysql"
	"github.com/querysight/querysight/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(nil).Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Errorf("failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	gen, err := groq.New(&groq.Config{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
	})
	if err != nil {
		log.Errorf("failed to configure generation backend: %v", err)
		os.Exit(1)
	}

	var mods modules.Store
	if cfg.Modules.Enabled {
		mods, err = modminio.New(ctx, &modminio.Config{
			Endpoint:  cfg.Modules.Endpoint,
			AccessKey: cfg.Modules.AccessKey,
			SecretKey: cfg.Modules.SecretKey,
			UseSSL:    cfg.Modules.UseSSL,
			Bucket:    cfg.Modules.Bucket,
		})
		if err != nil {
			log.Errorf("failed to connect to module store: %v", err)
			os.Exit(1)
		}
	}

	srv := server.New(st, gen, mods, cfg.Database.Schema, log)
	httpSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		log.With().
			Str("addr", cfg.Server.Addr).
			Str("schema", cfg.Database.Schema).
			Str("driver", cfg.Database.Driver).
			Logger().
			Info("querysight listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown incomplete: %v", err)
	}
	log.Info("querysight stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	sc := cfg.StoreConfig()
	if sc.Driver == store.DialectMySQL {
		return mysql.New(ctx, sc)
	}
	return postgres.New(ctx, sc)
}
