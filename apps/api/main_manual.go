package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/bursary/apps/api/echo"
	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/class"
	"github.com/trezcool/bursary/core/collection"
	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/core/promotion"
	"github.com/trezcool/bursary/core/student"
	"github.com/trezcool/bursary/core/user"
	emailsvc "github.com/trezcool/bursary/services/email"
	logsvc "github.com/trezcool/bursary/services/logger"
	"github.com/trezcool/bursary/storage/database"
	dummydb "github.com/trezcool/bursary/storage/database/dummy"
	sqlxrepos "github.com/trezcool/bursary/storage/database/sqlx"
)

// repositories is one storage backend's implementation of every repository.
type repositories struct {
	tx        core.TxRunner
	users     user.Repository
	fees      fees.Repository
	students  student.Repository
	ledger    ledger.Repository
	payments  ledger.PaymentRepository
	accounts  account.Repository
	promotion promotion.Repository
	classes   class.Repository
	close     func() error
}

func newSQLRepositories(conf *core.Config) (repositories, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return repositories{}, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return repositories{}, err
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return repositories{}, err
	}
	return repositories{
		tx:        database.NewTxRunner(db),
		users:     sqlxrepos.NewUserRepository(db),
		fees:      sqlxrepos.NewFeesRepository(db),
		students:  sqlxrepos.NewStudentRepository(db),
		ledger:    sqlxrepos.NewLedgerRepository(db),
		payments:  sqlxrepos.NewPaymentRepository(db),
		accounts:  sqlxrepos.NewAccountRepository(db),
		promotion: sqlxrepos.NewPromotionRepository(db),
		classes:   sqlxrepos.NewClassRepository(db),
		close:     db.Close,
	}, nil
}

func newMemoryRepositories() repositories {
	db := dummydb.Open()
	return repositories{
		tx:        db,
		users:     dummydb.NewUserRepository(db),
		fees:      dummydb.NewFeesRepository(db),
		students:  dummydb.NewStudentRepository(db),
		ledger:    dummydb.NewLedgerRepository(db),
		payments:  dummydb.NewPaymentRepository(db),
		accounts:  dummydb.NewAccountRepository(db),
		promotion: dummydb.NewPromotionRepository(db),
		classes:   dummydb.NewClassRepository(db),
		close:     func() error { return nil },
	}
}

func startManual(storage string) {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up storage
	var (
		repos repositories
		err   error
	)
	switch storage {
	case "memory":
		logger.Warn("using in-memory storage: data is lost on shutdown")
		repos = newMemoryRepositories()
	case "postgres":
		if repos, err = newSQLRepositories(conf); err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
	default:
		logger.Fatal(fmt.Sprintf("unknown storage %q", storage))
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(repos.users)
	feesSvc := fees.NewService(repos.fees)
	classSvc := class.NewService(repos.tx, repos.classes)
	stdSvc := student.NewService(repos.tx, repos.students, repos.ledger, repos.payments, repos.fees, repos.classes)
	accSvc := account.NewService(repos.accounts, repos.payments)
	collSvc := collection.NewService(
		conf, logger, repos.tx, repos.ledger, repos.payments, repos.students, repos.accounts, mailSvc,
	)
	promoSvc := promotion.NewService(repos.tx, repos.promotion, repos.students, repos.ledger, repos.fees, repos.classes)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	initValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			UserSvc:       usrSvc,
			FeesSvc:       feesSvc,
			ClassSvc:      classSvc,
			StudentSvc:    stdSvc,
			AccountSvc:    accSvc,
			CollectionSvc: collSvc,
			PromotionSvc:  promoSvc,
		},
	)

	go func() {
		server.Start()
	}()

	waitForShutdown(conf, logger, server)
}

// waitForShutdown blocks until the server fails or a shutdown signal arrives, then drains the server.
func waitForShutdown(conf *core.Config, logger core.Logger, server *echoapi.Server) {
	select {
	case err := <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func initValidators(validate *validator.Validate, translator ut.Translator) {
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	fees.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	collection.InitValidators(validate, translator)
	promotion.InitValidators(validate, translator)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
