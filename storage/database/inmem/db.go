package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/subject"
	"github.com/trezcool/shule/core/teacher"
)

type (
	DB struct {
		teacher *teacherTable
		student *studentTable
		subject *subjectTable
	}

	teacherTable struct {
		table map[string]*teacher.Teacher
		mutex sync.RWMutex
	}

	studentTable struct {
		table map[string]*student.Student
		mutex sync.RWMutex
	}

	subjectTable struct {
		table map[string]*subject.Subject
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		teacher: &teacherTable{table: make(map[string]*teacher.Teacher)},
		student: &studentTable{table: make(map[string]*student.Student)},
		subject: &subjectTable{table: make(map[string]*subject.Subject)},
	}
	return db, nil
}
