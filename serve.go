package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"notely-be/internal/cache"
	"notely-be/internal/config"
	"notely-be/internal/database"
	"notely-be/internal/jwt"
	"notely-be/internal/mailer"
	"notely-be/internal/metrics"
	"notely-be/internal/otp"
	"notely-be/internal/password"
	"notely-be/internal/repository"
	"notely-be/internal/server"
	"notely-be/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// stores are the repositories selected by STORE_DRIVER plus the function
// that releases their connections.
type stores struct {
	users repository.UserRepository
	notes repository.NoteRepository
	close func()
}

func runServe(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// Codes live in Redis when it is reachable so every instance sees them.
	var codeStore otp.Store
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("failed to connect to Redis, keeping codes in memory", zap.Error(err))
		} else {
			defer redisCache.Close()
			logger.Info("connected to Redis")
			codeStore = otp.NewRedisStore(redisCache)
		}
	}
	if codeStore == nil {
		codeStore = otp.NewMemoryStore()
	}

	codes := otp.NewManager(codeStore, cfg.OTPTTL, cfg.OTPMaxAttempts, logger)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		}, cfg.OTPTTL, logger)
	} else {
		logger.Warn("EMAIL_HOST not set, reset codes are written to the log")
		mail = mailer.NewLogMailer(logger)
	}

	jwtService := jwt.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	authService := service.NewAuthService(st.users, password.NewBcryptHasher(cfg.BcryptCost), jwtService, codes, mail, logger)
	noteService := service.NewNoteService(st.notes, logger)

	// Background loops and the listener share one lifetime: a listener failure
	// stops the loops, and a signal stops all three.
	g, gctx := errgroup.WithContext(ctx)

	router, err := server.NewRouter(gctx, server.Deps{
		Config:      cfg,
		Logger:      logger,
		AuthService: authService,
		NoteService: noteService,
		JWTService:  jwtService,
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg.Addr(), router, cfg.ShutdownTimeout, logger)

	g.Go(func() error {
		codes.RunSweeper(gctx, cfg.OTPSweepInterval)
		return nil
	})
	g.Go(func() error {
		metrics.RunSystemCollector(gctx, cfg.HostMetricsEvery, logger)
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := database.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.MongoDB)
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			disconnectMongo(client)
			return nil, err
		}
		logger.Info("using MongoDB store", zap.String("database", cfg.MongoDB))
		return &stores{
			users: repository.NewMongoUserRepository(db),
			notes: repository.NewMongoNoteRepository(db),
			close: func() { disconnectMongo(client) },
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &stores{users: mem.Users(), notes: mem.Notes(), close: func() {}}, nil

	default:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("using PostgreSQL store")
		return &stores{
			users: repository.NewUserRepository(db),
			notes: repository.NewNoteRepository(db),
			close: func() { db.Close() },
		}, nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func disconnectMongo(client *mongo.Client) {
	if err := client.Disconnect(context.Background()); err != nil {
		logger.Warn("failed to disconnect from MongoDB", zap.Error(err))
	}
}
