package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"

	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
	emailsvc "github.com/trezcool/shule/services/email"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	teacherRepo := inmemdb.NewTeacherRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)

	return &commandLine{
		teacherSvc:  teacher.NewService(teacherRepo, emailsvc.NewConsoleServiceMock()),
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addTeacher(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addteacher"}, wantErr: errHelp},
		{name: "flags but no password", args: []string{"addteacher", "-name", "Asha Kapoor", "-email", "asha@test.cd", "-class", "4 North"}, wantErr: errHelp},
		{name: "ok", args: []string{"addteacher", "-name", "Asha Kapoor", "-email", "asha@test.cd", "-class", "4 North"}, extra: extra{pwd: "secret777"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				tchr, err := cli.teacherRepo.GetTeacherByEmail("asha@test.cd")
				if err != nil {
					t.Fatalf("GetTeacherByEmail() failed: %v", err)
				}
				if err := tchr.CheckPassword("secret777"); err != nil {
					t.Error("failed to set the prompted password")
				}
				if tchr.Designation != teacher.DefaultDesignation {
					t.Errorf("Designation = %q, want %q", tchr.Designation, teacher.DefaultDesignation)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	tchr := teacher.Teacher{Name: "Asha Kapoor", Email: "asha@test.cd", Class: "4 North", Designation: teacher.DefaultDesignation}
	_ = tchr.SetPassword("old")
	tchr, err := cli.teacherRepo.CreateTeacher(tchr)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}

	st := student.Student{Name: "Zawadi Keita", Email: "zawadi@test.cd", Class: "4 North", Guardian: "Mrs Keita", OwnerID: tchr.ID}
	_ = st.SetPassword("old")
	st, err = cli.studentRepo.CreateStudent(st)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: student.ErrNotFound},
		{name: "reset a teacher", args: []string{"resetpassword", "-email", tchr.Email}, extra: extra{pwd: "fresh777"}},
		{name: "reset a student", args: []string{"resetpassword", "-email", st.Email}, extra: extra{pwd: "owl999"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := cli.teacherRepo.GetTeacherByID(tchr.ID)
				if err != nil {
					t.Fatalf("GetTeacherByID() failed: %v", err)
				}
				refreshedSt, err := cli.studentRepo.GetStudentByID(st.ID)
				if err != nil {
					t.Fatalf("GetStudentByID() failed: %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, tchr.PasswordHash) && bytes.Equal(refreshedSt.PasswordHash, st.PasswordHash) {
					t.Error("failed to update the password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
