package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/subject"
)

func Test_subjectApi_crud(t *testing.T) {
	app := setup(t)
	t1, token1 := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")
	_, token2 := app.createTeacher(t, "Neo Banda", "neo@test.cd", "secret777")
	maths := app.createSubject(t, "Mathematics", t1.ID)

	tests := []httpTest{
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/v1/subjects",
			token:    token1,
			body:     marchallObj(t, map[string]string{"title": "Chemistry"}),
			wantCode: http.StatusCreated,
		},
		{
			name:     "create without a title",
			method:   http.MethodPost,
			path:     "/v1/subjects",
			token:    token1,
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
		},
		{name: "owner reads", method: http.MethodGet, path: "/v1/subjects/" + maths.ID, token: token1, wantCode: http.StatusOK, wantData: marchallObj(t, maths)},
		{name: "foreign teacher reads", method: http.MethodGet, path: "/v1/subjects/" + maths.ID, token: token2, wantCode: http.StatusNotFound},
		{
			name:     "patch title",
			method:   http.MethodPatch,
			path:     "/v1/subjects/" + maths.ID,
			token:    token1,
			body:     marchallObj(t, map[string]string{"title": "Applied Mathematics"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "patch with a forbidden field short-circuits",
			method:   http.MethodPatch,
			path:     "/v1/subjects/" + maths.ID,
			token:    token1,
			body:     marchallObj(t, map[string]interface{}{"title": "Nope", "grades": []string{}}),
			wantCode: http.StatusBadRequest,
		},
		{name: "foreign teacher deletes", method: http.MethodDelete, path: "/v1/subjects/" + maths.ID, token: token2, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("rejected patch leaves the record unchanged", func(t *testing.T) {
		sub, err := app.subjectSvc.GetOwnedByID(maths.ID, t1.ID)
		if err != nil {
			t.Fatalf("GetOwnedByID() failed: %v", err)
		}
		if sub.Title != "Applied Mathematics" {
			t.Errorf("Title = %q, want %q", sub.Title, "Applied Mathematics")
		}
	})
}

func Test_subjectApi_grades(t *testing.T) {
	app := setup(t)
	t1, token1 := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")
	t2, token2 := app.createTeacher(t, "Neo Banda", "neo@test.cd", "secret777")
	st1, _ := app.createStudent(t, "Zawadi Keita", "zawadi@test.cd", t1.ID)
	st2, _ := app.createStudent(t, "Luyando Phiri", "luyando@test.cd", t2.ID)
	maths := app.createSubject(t, "Mathematics", t1.ID)

	gradeBody := func(year, term string, score int, studentID string) []byte {
		return marchallObj(t, map[string]interface{}{"year": year, "term": term, "score": score, "student_id": studentID})
	}

	tests := []httpTest{
		{
			name:     "record a score",
			body:     gradeBody("2021", "Term 1", 82, st1.ID),
			token:    token1,
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate (year, term, student)",
			body:     gradeBody("2021", "TERM 1", 95, st1.ID),
			token:    token1,
			wantCode: http.StatusConflict,
		},
		{
			name:     "another teacher's student",
			body:     gradeBody("2021", "term 1", 50, st2.ID),
			token:    token1,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "another teacher's subject behaves as not found",
			body:     gradeBody("2021", "term 1", 50, st2.ID),
			token:    token2,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing year",
			body:     marchallObj(t, map[string]interface{}{"term": "term 1", "score": 50, "student_id": st1.ID}),
			token:    token1,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/subjects/"+maths.ID+"/grades", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("letter band is derived", func(t *testing.T) {
		sub, err := app.subjectSvc.GetOwnedByID(maths.ID, t1.ID)
		if err != nil {
			t.Fatalf("GetOwnedByID() failed: %v", err)
		}
		if len(sub.Grades) != 1 {
			t.Fatalf("stored %d grades, want 1", len(sub.Grades))
		}
		if g := sub.Grades[0]; g.Grade != "B" || g.Term != "term 1" {
			t.Errorf("stored grade = (%s, %q), want (B, %q)", g.Grade, g.Term, "term 1")
		}
	})
}

func Test_subjectApi_updateGrade(t *testing.T) {
	app := setup(t)
	t1, token := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")
	st, _ := app.createStudent(t, "Zawadi Keita", "zawadi@test.cd", t1.ID)
	maths := app.createSubject(t, "Mathematics", t1.ID)

	g, err := app.subjectSvc.CreateGrade(maths.ID, t1.ID, subject.NewGrade{Year: "2021", Term: "term 1", Score: 82, StudentID: st.ID})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "overwrite the score",
			body:     marchallObj(t, map[string]interface{}{"grade_id": g.ID, "score": 45}),
			wantCode: http.StatusOK,
		},
		{
			name:     "term is not patchable",
			body:     marchallObj(t, map[string]interface{}{"grade_id": g.ID, "score": 70, "term": "term 2"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown grade",
			body:     marchallObj(t, map[string]interface{}{"grade_id": "nope", "score": 70}),
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPatch, "/v1/subjects/"+maths.ID+"/grades", token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("rejected patch leaves the grade unchanged", func(t *testing.T) {
		sub, err := app.subjectSvc.GetOwnedByID(maths.ID, t1.ID)
		if err != nil {
			t.Fatalf("GetOwnedByID() failed: %v", err)
		}
		if got := sub.Grades[0]; got.Score != 45 || got.Grade != "F" || got.Term != "term 1" {
			t.Errorf("stored grade = (%d, %s, %q), want (45, F, %q)", got.Score, got.Grade, got.Term, "term 1")
		}
	})
}

func Test_subjectApi_myGrades(t *testing.T) {
	app := setup(t)
	t1, token1 := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")
	st1, stToken := app.createStudent(t, "Zawadi Keita", "zawadi@test.cd", t1.ID)
	st2, _ := app.createStudent(t, "Luyando Phiri", "luyando@test.cd", t1.ID)
	maths := app.createSubject(t, "Mathematics", t1.ID)
	app.createSubject(t, "Chemistry", t1.ID)

	if _, err := app.subjectSvc.CreateGrade(maths.ID, t1.ID, subject.NewGrade{Year: "2021", Term: "term 1", Score: 91, StudentID: st1.ID}); err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	if _, err := app.subjectSvc.CreateGrade(maths.ID, t1.ID, subject.NewGrade{Year: "2021", Term: "term 1", Score: 55, StudentID: st2.ID}); err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}

	// a teacher token is rejected on the self-view
	req, rec := newAuthRequest(http.MethodGet, "/v1/subjects/grades/me", token1)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("a teacher token must not authenticate the student self-view; code = %d", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/subjects/grades/me", stToken)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("self-view failed: %s", rec.Body.String())
	}
	var view []subject.StudentSubjectGrades
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if len(view) != 2 {
		t.Fatalf("self-view returned %d subjects, want 2", len(view))
	}
	for _, sv := range view {
		for _, g := range sv.Grades {
			if g.OwnerID != st1.ID {
				t.Error("the self-view must only project the requesting student's grades")
			}
		}
	}
}
