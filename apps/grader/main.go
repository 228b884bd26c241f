package main

import (
	"log"
	"os"

	"github.com/ropeacademy/academy/core"
	"github.com/ropeacademy/academy/core/quiz"
	"github.com/ropeacademy/academy/core/user"
	emailsvc "github.com/ropeacademy/academy/services/email"
	logsvc "github.com/ropeacademy/academy/services/logger"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stderr, "GRADER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	core.ParseEmailTemplates(logger, true)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		validate:   validate,
		translator: translator,
		quizSvc:    quiz.NewService(validate, mailSvc, logger, conf),
		mailSvc:    mailSvc,
		in:         os.Stdin,
		out:        os.Stdout,
	}
	err := cli.run(os.Args)
	logger.Wait()
	if err != nil {
		switch err {
		case errHelp, errIncorrect, errNotPassed:
		default:
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
