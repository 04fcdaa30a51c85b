package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/subject"
	"github.com/trezcool/shule/core/teacher"
	emailsvc "github.com/trezcool/shule/services/email"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type noopLogger struct{}

func (noopLogger) Enable(bool)                  {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Fatal(string, ...interface{}) {}

type testApp struct {
	server      Server
	teacherRepo teacher.Repository
	studentRepo student.Repository
	teacherSvc  *teacher.Service
	studentSvc  *student.Service
	subjectSvc  *subject.Service
	authSvc     *auth.Service
}

func setup(t *testing.T) *testApp {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	teacherRepo := inmemdb.NewTeacherRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	subjectRepo := inmemdb.NewSubjectRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()
	teacherSvc := teacher.NewService(teacherRepo, mailSvc)
	studentSvc := student.NewService(studentRepo)
	subjectSvc := subject.NewService(subjectRepo, studentRepo)
	authSvc := auth.NewService(teacherRepo, studentRepo)

	server := NewServer(&Options{
		Address:        ":0",
		DisableReqLogs: true,
		Logger:         noopLogger{},
		TeacherSvc:     teacherSvc,
		StudentSvc:     studentSvc,
		SubjectSvc:     subjectSvc,
		AuthSvc:        authSvc,
	})
	return &testApp{
		server:      server,
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
		teacherSvc:  teacherSvc,
		studentSvc:  studentSvc,
		subjectSvc:  subjectSvc,
		authSvc:     authSvc,
	}
}

func (app *testApp) createTeacher(t *testing.T, name, email, pwd string) (teacher.Teacher, string) {
	now := time.Now().UTC()
	tchr := teacher.Teacher{
		Name:        name,
		Email:       email,
		Class:       "4 North",
		Designation: teacher.DefaultDesignation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tchr.SetPassword(pwd); err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	tchr, err := app.teacherRepo.CreateTeacher(tchr)
	if err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	token, err := app.authSvc.IssueTeacherToken(&tchr)
	if err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	return tchr, token
}

func (app *testApp) createStudent(t *testing.T, name, email, ownerID string) (student.Student, string) {
	st, err := app.studentSvc.Create(student.NewStudent{
		Name:     name,
		Email:    email,
		Class:    "4 North",
		Guardian: "Guardian",
	}, ownerID)
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	token, err := app.authSvc.IssueStudentToken(&st)
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return st, token
}

func (app *testApp) createSubject(t *testing.T, title, ownerID string) subject.Subject {
	sub, err := app.subjectSvc.Create(subject.NewSubject{Title: title}, ownerID)
	if err != nil {
		t.Fatalf("createSubject() failed: %v", err)
	}
	return sub
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %s; wantData %s", rec.Body.Bytes(), tt.wantData)
	}
}
