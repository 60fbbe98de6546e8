package digcontainer

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/bursary/apps/api/echo"
	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/class"
	"github.com/trezcool/bursary/core/collection"
	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/promotion"
	"github.com/trezcool/bursary/core/student"
	"github.com/trezcool/bursary/core/user"
	emailsvc "github.com/trezcool/bursary/services/email"
	logsvc "github.com/trezcool/bursary/services/logger"
	"github.com/trezcool/bursary/storage/database"
	dummydb "github.com/trezcool/bursary/storage/database/dummy"
	sqlxrepos "github.com/trezcool/bursary/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Closer releases the storage backend.
	Closer func() error

	serverParams struct {
		dig.In

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       user.Service
		FeesSvc       fees.Service
		ClassSvc      class.Service
		StudentSvc    student.Service
		AccountSvc    account.Service
		CollectionSvc collection.Service
		PromotionSvc  promotion.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, Closer) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db.Close
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		FeesSvc:       p.FeesSvc,
		ClassSvc:      p.ClassSvc,
		StudentSvc:    p.StudentSvc,
		AccountSvc:    p.AccountSvc,
		CollectionSvc: p.CollectionSvc,
		PromotionSvc:  p.PromotionSvc,
	})
}

func provideSQLStorage(c *dig.Container) {
	must(c.Provide(newDB))
	must(c.Provide(database.NewTxRunner, dig.As(new(core.TxRunner))))
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewFeesRepository))
	must(c.Provide(sqlxrepos.NewStudentRepository))
	must(c.Provide(sqlxrepos.NewLedgerRepository))
	must(c.Provide(sqlxrepos.NewPaymentRepository))
	must(c.Provide(sqlxrepos.NewAccountRepository))
	must(c.Provide(sqlxrepos.NewPromotionRepository))
	must(c.Provide(sqlxrepos.NewClassRepository))
}

func provideMemoryStorage(c *dig.Container) {
	must(c.Provide(func() (*dummydb.DB, Closer) {
		return dummydb.Open(), func() error { return nil }
	}))
	must(c.Provide(func(db *dummydb.DB) core.TxRunner { return db }))
	must(c.Provide(dummydb.NewUserRepository))
	must(c.Provide(dummydb.NewFeesRepository))
	must(c.Provide(dummydb.NewStudentRepository))
	must(c.Provide(dummydb.NewLedgerRepository))
	must(c.Provide(dummydb.NewPaymentRepository))
	must(c.Provide(dummydb.NewAccountRepository))
	must(c.Provide(dummydb.NewPromotionRepository))
	must(c.Provide(dummydb.NewClassRepository))
}

// New returns a new dependency injection dig.Container; storage is "postgres" or "memory".
func New(storage string) *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))

	switch storage {
	case "memory":
		provideMemoryStorage(c)
	case "postgres":
		provideSQLStorage(c)
	default:
		log.Fatalf("unknown storage %q", storage)
	}

	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(fees.NewService))
	must(c.Provide(class.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(account.NewService))
	must(c.Provide(collection.NewService))
	must(c.Provide(promotion.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
