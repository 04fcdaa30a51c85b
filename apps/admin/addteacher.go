package main

import (
	"github.com/trezcool/shule/core/teacher"
)

// addTeacher registers a new teacher.Teacher account.
func (cli *commandLine) addTeacher(name, email, class, pwd string) error {
	data := teacher.NewTeacher{
		Name:     name,
		Email:    email,
		Class:    class,
		Password: pwd,
	}
	if err := data.Validate(cli.teacherSvc); err != nil {
		return err
	}
	_, err := cli.teacherSvc.Create(data)
	return err
}
