package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/dropDatabas3/careid/internal/config"
	jwtx "github.com/dropDatabas3/careid/internal/jwt"
	"github.com/dropDatabas3/careid/internal/metrics"
	"github.com/dropDatabas3/careid/internal/notify"
	"github.com/dropDatabas3/careid/internal/observability/logger"
	"github.com/dropDatabas3/careid/internal/security/otp"
	"github.com/dropDatabas3/careid/internal/security/password"
	"github.com/dropDatabas3/careid/internal/service/auth"
	"github.com/dropDatabas3/careid/internal/service/identity"
	"github.com/dropDatabas3/careid/internal/store"
	_ "github.com/dropDatabas3/careid/internal/store/memory"
	_ "github.com/dropDatabas3/careid/internal/store/pg"
	"github.com/dropDatabas3/careid/internal/store/redisotp"
)

func main() {
	// .env es opcional; si no está, las env del proceso mandan igual.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:           "careid",
		Short:         "Backend de identidad para staff y pacientes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("CAREID_CONFIG"), "ruta al config.yaml (env CAREID_CONFIG)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servicio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	hash := &cobra.Command{
		Use:   "hash",
		Short: "Hashea un password por stdin (para seeds y fixtures)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash()
		},
	}

	root.AddCommand(serve, hash)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "careid",
	})
	defer logger.Sync()
	log := logger.With(logger.Component("main"))

	// Paso 1: abrir el store.
	st, err := store.Open(ctx, store.Config{
		Driver:       cfg.Storage.Driver,
		DSN:          cfg.Storage.DSN,
		CallTimeout:  cfg.PostgresCallTimeout(),
		MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Storage.Postgres.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info("store ready", logger.String("driver", cfg.Storage.Driver))

	// Paso 2: OTPs en Redis si está configurado; si no, quedan en el store.
	if cfg.Cache.Kind == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.Redis.Addr,
			DB:   cfg.Cache.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		st = store.Compose(st, redisotp.New(rdb, cfg.Cache.Redis.Prefix))
		log.Info("otp records on redis", logger.String("addr", cfg.Cache.Redis.Addr))
	}

	// Paso 3: keypair de firma. Sin seed el par es efímero: los tokens
	// mueren con el proceso.
	var kp *jwtx.Keypair
	if cfg.JWT.Seed != "" {
		kp, err = jwtx.KeypairFromSeed(cfg.JWT.Seed)
	} else {
		log.Warn("JWT_SEED not set, using ephemeral signing key")
		kp, err = jwtx.GenerateKeypair()
	}
	if err != nil {
		return fmt.Errorf("signing keypair: %w", err)
	}

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, kp)
	issuer.AccessTTL = cfg.AccessTTL()
	issuer.RefreshTTL = cfg.RefreshTTL()

	// Paso 4: policy de passwords (blacklist externa opcional).
	blacklist := password.DefaultBlacklist()
	if p := cfg.Security.PasswordBlacklistPath; p != "" {
		blacklist, err = password.LoadBlacklist(p)
		if err != nil {
			return fmt.Errorf("load password blacklist: %w", err)
		}
	}
	policy := password.DefaultPolicy{
		MinLength: cfg.Security.PasswordPolicy.MinLength,
		Blacklist: blacklist,
	}

	// Paso 5: services.
	idn := identity.New(identity.Deps{
		Users:       st.Users(),
		Policy:      policy,
		StrictRoles: cfg.Identity.StrictRoles,
	})

	var notifier auth.Notifier = notify.LogNotifier{}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTP(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	authSvc := auth.New(auth.Deps{
		Store:    st,
		Identity: idn,
		Issuer:   issuer,
		OTPCfg:   otp.Config{CodeTTL: cfg.Recovery.CodeTTL, TokenTTL: cfg.Recovery.TokenTTL},
		Notifier: notifier,
	})
	_ = authSvc // expuesto vía la capa de transporte que se monte encima

	if err := metrics.RegisterAuth(nil); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Paso 6: superficie operacional.
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := st.Ping(req.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	// Sweeper de registros OTP vencidos.
	if iv := cfg.Recovery.SweepInterval; iv > 0 {
		g.Go(func() error {
			t := time.NewTicker(iv)
			defer t.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-t.C:
					n, err := st.OTPs().DeleteExpired(gctx, time.Now().UTC())
					if err != nil {
						log.Warn("otp sweep failed", logger.Err(err))
						continue
					}
					if n > 0 {
						log.Info("expired otp records purged", logger.Count(n))
					}
				}
			}
		})
	}

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}

// runHash lee un password (sin eco si stdin es una TTY) y escribe el PHC.
func runHash() error {
	var plain string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		plain = string(b)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		plain = strings.TrimRight(line, "\r\n")
	}

	phc, err := password.Hash(password.Default, plain)
	if err != nil {
		return err
	}
	fmt.Println(phc)
	return nil
}
