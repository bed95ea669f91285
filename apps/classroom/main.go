package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/services/apiclient"
	logsvc "github.com/trezcool/coursework/services/logger"
	boltsession "github.com/trezcool/coursework/storage/session"
)

func main() {
	conf := core.Conf

	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "CLASSROOM : ", log.LstdFlags|log.Lshortfile), conf)

	store, err := boltsession.Open(conf.Client.SessionFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli, err := newCommandLine(apiclient.NewFromConfig(conf), store, quietLogger{logger, conf.Debug}, os.Stdout)
	if err == nil {
		err = cli.run(context.Background(), os.Args)
	}
	if cErr := store.Close(); cErr != nil {
		fmt.Fprintln(os.Stderr, cErr)
	}
	if err != nil && err != errHelp {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// quietLogger only lets failures through, unless debug is on.
type quietLogger struct {
	*logsvc.RollbarLogger
	debug bool
}

func (l quietLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.RollbarLogger.Debug(msg, args...)
	}
}

func (l quietLogger) Info(msg string, args ...interface{}) {
	if l.debug {
		l.RollbarLogger.Info(msg, args...)
	}
}

func (l quietLogger) Warn(msg string, args ...interface{}) {
	if l.debug {
		l.RollbarLogger.Warn(msg, args...)
	}
}
