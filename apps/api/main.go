package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/ubunifu/launchpad/apps/api/echo"
	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/application"
	"github.com/ubunifu/launchpad/core/user"
	emailsvc "github.com/ubunifu/launchpad/services/email"
	identitysvc "github.com/ubunifu/launchpad/services/identity"
	logsvc "github.com/ubunifu/launchpad/services/logger"
	"github.com/ubunifu/launchpad/storage/cache"
	"github.com/ubunifu/launchpad/storage/database"
	pgrepos "github.com/ubunifu/launchpad/storage/database/postgres"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	// set up draft store
	redisCli := cache.NewClient(conf)
	defer redisCli.Close()
	draftStore := cache.NewDraftStore(redisCli, conf.Redis.DraftTTL)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	var identity user.IdentityProvider
	if conf.Identity.BaseURL != "" {
		identity = identitysvc.NewHTTPProvider(conf)
	}

	usrSvc := user.NewService(pgrepos.NewUserRepository(db), identity, logger)
	appSvc := application.NewService(pgrepos.NewApplicationRepository(db), draftStore, usrSvc, mailSvc, logger)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		conf.Server.Addr,
		shutdown,
		&echoapi.Deps{
			Logger:  logger,
			UserSvc: usrSvc,
			AppSvc:  appSvc,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
