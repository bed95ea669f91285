package main

import (
	"log"
	"os"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage/database"
	"github.com/trezcool/coursework/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(err)
	}

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db)),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
