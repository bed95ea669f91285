package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/coursework/apps/api/echo"
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	emailsvc "github.com/trezcool/coursework/services/email"
	logsvc "github.com/trezcool/coursework/services/logger"
	"github.com/trezcool/coursework/storage/database"
	inmemdb "github.com/trezcool/coursework/storage/database/inmem"
	sqlxrepos "github.com/trezcool/coursework/storage/database/sqlx"
)

const (
	shutdownTimeout = 10 * time.Second
	devPassword     = "Dev-Passw0rd!"
)

type repositories struct {
	users       user.Repository
	assignments assignment.Repository
	submissions submission.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up storage
	repos, db, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	if db != nil {
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error("failed to close database", err)
			}
		}()
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.users)
	assignmentSvc := assignment.NewService(repos.assignments)
	submissionSvc := submission.NewService(
		repos.submissions,
		assignmentSvc,
		emailsvc.NewRedoNotifier(usrSvc, mailSvc, logger),
	)

	if db == nil && conf.Debug {
		seedUsers(usrSvc, logger)
	}

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		Logger:         logger,
		UserSvc:        usrSvc,
		AssignmentSvc:  assignmentSvc,
		SubmissionSvc:  submissionSvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpStorage(conf *core.Config) (repositories, *sqlx.DB, error) {
	if conf.Database.Engine != "postgres" {
		mem := inmemdb.Open()
		return repositories{
			users:       inmemdb.NewUserRepository(mem),
			assignments: inmemdb.NewAssignmentRepository(mem),
			submissions: inmemdb.NewSubmissionRepository(mem),
		}, nil, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return repositories{}, nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return repositories{}, nil, err
	}
	return repositories{
		users:       sqlxrepos.NewUserRepository(db),
		assignments: sqlxrepos.NewAssignmentRepository(db),
		submissions: sqlxrepos.NewSubmissionRepository(db),
	}, db, nil
}

// seedUsers provisions a teacher and a student in the in-memory store, for local development.
func seedUsers(svc *user.Service, logger core.Logger) {
	ctx := context.Background()
	for _, role := range session.Roles {
		nu := user.NewUser{
			Name:            strings.Title(string(role)),
			Email:           string(role) + "@coursework.local",
			Role:            role,
			Password:        devPassword,
			PasswordConfirm: devPassword,
		}
		if _, err := svc.Create(ctx, nu); err != nil {
			logger.Error(fmt.Sprintf("seeding %s: %v", nu.Email, err), err)
			continue
		}
		logger.Info(fmt.Sprintf("seeded %s / %s", nu.Email, devPassword))
	}
}
