package main

import (
	"log"
	"os"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
	emailsvc "github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	teacherRepo := sqlxrepos.NewTeacherRepository(db)
	studentRepo := sqlxrepos.NewStudentRepository(db)

	// start CLI
	cli := commandLine{
		db:          db.DB,
		teacherSvc:  teacher.NewService(teacherRepo, emailsvc.NewConsoleService()),
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
