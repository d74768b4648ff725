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

	"github.com/gin-gonic/gin"
	campaignapp "github.com/jackyeh168/quest_crm/src/internal/application/campaign"
	"github.com/jackyeh168/quest_crm/src/internal/application/catalog"
	"github.com/jackyeh168/quest_crm/src/internal/application/checkin"
	"github.com/jackyeh168/quest_crm/src/internal/application/questing"
	rewardapp "github.com/jackyeh168/quest_crm/src/internal/application/reward"
	"github.com/jackyeh168/quest_crm/src/internal/domain/participation"
	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/jackyeh168/quest_crm/src/internal/domain/social"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/config"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/events"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/logging"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence"
	"github.com/jackyeh168/quest_crm/src/internal/infrastructure/persistence/registry"
	settingsstore "github.com/jackyeh168/quest_crm/src/internal/infrastructure/settings"
	socialclient "github.com/jackyeh168/quest_crm/src/internal/infrastructure/social"
	"github.com/jackyeh168/quest_crm/src/internal/interfaces/api"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML config file (empty: defaults and environment only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up logging")
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Service stopped with error")
	}
	logger.Info("Service exited")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	db, err := persistence.Open(persistence.Options{
		Driver:          cfg.DB.Driver,
		DSN:             cfg.DB.DSN,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DB.ConnMaxLifetimeMinutes) * time.Minute,
		SlowThreshold:   time.Duration(cfg.DB.SlowQueryMillis) * time.Millisecond,
		LogSQL:          cfg.DB.LogSQL,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := persistence.Close(db); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	}()

	if cfg.DB.AutoMigrate {
		if err := registry.AutoMigrate(db); err != nil {
			return err
		}
	}

	repos := registry.New(db)
	clock := shared.SystemClock{}
	calendar := shared.NewBusinessCalendar(cfg.Engine.BusinessUTCOffsetHours)

	store, err := settingsstore.NewStore(db, cfg.Engine.SettingsCacheSize, cfg.Engine.SettingsCacheTTL())
	if err != nil {
		return err
	}

	graph := socialclient.NewGraphClient(socialclient.Config{
		BaseURL:       cfg.Social.BaseURL,
		APIVersion:    cfg.Social.APIVersion,
		Timeout:       cfg.Social.Timeout(),
		MaxConcurrent: cfg.Social.MaxConcurrent,
	}, logger)
	verifier := social.NewVerifier(graph, clock).WithLookback(cfg.Social.Lookback())

	bus := events.NewBus(logger)
	defer bus.Close()
	couponHandler := checkin.NewCouponHandler(store, repos.Coupons, clock, calendar, logger)
	if err := bus.Subscribe(participation.EventTypeQuestCompleted, couponHandler); err != nil {
		return err
	}

	crediter := rewardapp.NewCreditUseCase(repos.Accounts, repos.Ledger, clock)
	questDeps := questing.Dependencies{
		QuestRepo:         repos.Quests,
		CapacityGuard:     repos.Quests,
		ParticipationRepo: repos.Participations,
		Crediter:          crediter,
		SocialVerifier:    verifier,
		Settings:          store,
		TxManager:         repos.TxManager,
		Publisher:         bus,
		Clock:             clock,
		Calendar:          calendar,
		Logger:            logger,
	}
	campaignDeps := campaignapp.Dependencies{
		CampaignRepo:      repos.Campaigns,
		ParticipationRepo: repos.CampaignMembers,
		AppliedRepo:       repos.AppliedOrders,
		CapacityGuard:     repos.Campaigns,
		Owners:            repos.ShopOwners,
		Crediter:          crediter,
		TxManager:         repos.TxManager,
		Clock:             clock,
		Calendar:          calendar,
		Logger:            logger,
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := &api.Router{
		Auth: api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Quests: &api.QuestHandler{
			Join:     questing.NewJoinQuestUseCase(questDeps),
			Complete: questing.NewCompleteQuestUseCase(questDeps),
			Reviews:  questing.NewSubmitReviewUseCase(questDeps),
			Finder:   questing.NewReviewsByMenuItemUseCase(repos.Participations),
			Cancel:   questing.NewCancelParticipationUseCase(questDeps),
			Reviewer: questing.NewReviewSubmissionUseCase(questDeps),
			Catalog:  catalog.NewQuestCatalog(repos.Quests, repos.TxManager, clock),
			Creator:  catalog.NewCreateQuestUseCase(repos.Quests, repos.TxManager, clock),
			Manager:  catalog.NewManageQuestUseCase(repos.Quests, repos.TxManager, clock),
			Logger:   logger,
		},
		Campaigns: &api.CampaignHandler{
			Join:   campaignapp.NewJoinCampaignUseCase(campaignDeps),
			Delete: campaignapp.NewDeleteCampaignUseCase(campaignDeps),
			Engine: campaignapp.NewEngine(campaignDeps),
			Clock:  clock,
			Logger: logger,
		},
		Rewards: &api.RewardHandler{
			Balance: rewardapp.NewGetBalanceUseCase(repos.Accounts, repos.Ledger),
			Logger:  logger,
		},
		Logger: logger,
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("Starting service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}
	logger.Info("Shutting down service...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	// 等待已提交事務的非同步事件處理完畢
	bus.Flush()
	return nil
}
