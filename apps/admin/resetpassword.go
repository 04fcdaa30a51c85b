package main

import (
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
)

// resetPassword overwrites the password of the teacher or student account
// registered under the given email. Teachers are tried first.
func (cli *commandLine) resetPassword(email, pwd string) error {
	email = core.CleanString(email, true /* lower */)

	if t, err := cli.teacherRepo.GetTeacherByEmail(email); err == nil {
		if err := t.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.teacherRepo.UpdateTeacher(t)
		return err
	} else if err != teacher.ErrNotFound {
		return err
	}

	s, err := cli.studentRepo.GetStudentByEmail(email)
	if err != nil {
		return err
	}
	if err := s.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.studentRepo.UpdateStudent(s)
	return err
}
