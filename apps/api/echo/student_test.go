package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/student"
)

func Test_studentApi_create(t *testing.T) {
	app := setup(t)
	tchr, token := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")

	tests := []httpTest{
		{
			name:     "no token",
			body:     marchallObj(t, map[string]string{"name": "Zawadi Keita", "email": "zawadi@test.cd", "class": "4 North", "guardian": "Mrs Keita"}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "valid registration",
			token:    token,
			body:     marchallObj(t, map[string]string{"name": "Zawadi Keita", "email": "zawadi@test.cd", "class": "4 North", "guardian": "Mrs Keita"}),
			wantCode: http.StatusCreated,
		},
		{
			name:     "missing guardian",
			token:    token,
			body:     marchallObj(t, map[string]string{"name": "Luyando Phiri", "email": "luyando@test.cd", "class": "4 North"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "duplicate email",
			token:    token,
			body:     marchallObj(t, map[string]string{"name": "Imposter", "email": "zawadi@test.cd", "class": "4 North", "guardian": "X"}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/students", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("defaults and derived password", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", token,
			marchallObj(t, map[string]string{"name": "Maya Okoro", "email": "maya@test.cd", "class": "4 North", "guardian": "Mr Okoro"}))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create failed: %s", rec.Body.String())
		}
		var resp studentAuthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response failed: %v", err)
		}
		if resp.Student.OwnerID != tchr.ID {
			t.Errorf("OwnerID = %s, want %s", resp.Student.OwnerID, tchr.ID)
		}
		if resp.Student.House != student.DefaultHouse || resp.Student.Club != student.DefaultClub {
			t.Error("create must apply the documented defaults")
		}
		if resp.Token == "" {
			t.Fatal("create must return a session token for the student")
		}

		// the derived default password logs the student in
		req, rec = newRequest(http.MethodPost, "/v1/students/login",
			marchallObj(t, map[string]string{"email": "maya@test.cd", "password": "okoro123"}))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("default password login failed: %s", rec.Body.String())
		}
	})
}

func Test_studentApi_ownershipScope(t *testing.T) {
	app := setup(t)
	t1, token1 := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")
	_, token2 := app.createTeacher(t, "Neo Banda", "neo@test.cd", "secret777")
	st, _ := app.createStudent(t, "Zawadi Keita", "zawadi@test.cd", t1.ID)

	tests := []httpTest{
		{name: "owner reads", method: http.MethodGet, path: "/v1/students/" + st.ID, token: token1, wantCode: http.StatusOK},
		{name: "foreign teacher reads", method: http.MethodGet, path: "/v1/students/" + st.ID, token: token2, wantCode: http.StatusNotFound},
		{
			name:     "foreign teacher patches",
			method:   http.MethodPatch,
			path:     "/v1/students/" + st.ID,
			token:    token2,
			body:     marchallObj(t, map[string]string{"name": "Hijacked"}),
			wantCode: http.StatusNotFound,
		},
		{name: "foreign teacher deletes", method: http.MethodDelete, path: "/v1/students/" + st.ID, token: token2, wantCode: http.StatusNotFound},
		{name: "owner deletes", method: http.MethodDelete, path: "/v1/students/" + st.ID, token: token1, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_query(t *testing.T) {
	app := setup(t)
	t1, token1 := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")
	t2, token2 := app.createTeacher(t, "Neo Banda", "neo@test.cd", "secret777")
	st1, _ := app.createStudent(t, "Zawadi Keita", "zawadi@test.cd", t1.ID)
	st2, _ := app.createStudent(t, "Luyando Phiri", "luyando@test.cd", t1.ID)
	app.createStudent(t, "Maya Okoro", "maya@test.cd", t2.ID)

	// sorted by name; only the owner's students
	req, rec := newAuthRequest(http.MethodGet, "/v1/students", token1)
	app.server.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, []student.Student{st2, st1})}
	checkCodeAndData(t, tt, rec)

	// explicit descending ordering
	req, rec = newAuthRequest(http.MethodGet, "/v1/students?ordering=-name", token1)
	app.server.ServeHTTP(rec, req)
	tt = httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, []student.Student{st1, st2})}
	checkCodeAndData(t, tt, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/students", token2)
	app.server.ServeHTTP(rec, req)
	var got []student.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("query returned %d students, want 1", len(got))
	}
}

func Test_studentApi_update(t *testing.T) {
	app := setup(t)
	t1, token := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")
	st, _ := app.createStudent(t, "Zawadi Keita", "zawadi@test.cd", t1.ID)

	tests := []httpTest{
		{
			name:     "allowed fields",
			body:     marchallObj(t, map[string]interface{}{"class": "5 North", "age": 13}),
			wantCode: http.StatusOK,
		},
		{
			name:     "guardian is patchable",
			body:     marchallObj(t, map[string]string{"guardian": "Mr Keita"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "club is not patchable",
			body:     marchallObj(t, map[string]string{"club": "Debate Club"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown field short-circuits",
			body:     marchallObj(t, map[string]interface{}{"class": "6 North", "tokens": []string{}}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPatch, "/v1/students/"+st.ID, token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("rejected patch leaves the record unchanged", func(t *testing.T) {
		fresh, err := app.studentRepo.GetStudentByID(st.ID)
		if err != nil {
			t.Fatalf("GetStudentByID() failed: %v", err)
		}
		if fresh.Class != "5 North" || fresh.Guardian != "Mr Keita" {
			t.Error("accepted patches must stick")
		}
		if fresh.Club != student.DefaultClub {
			t.Error("a rejected patch must not mutate the record")
		}
	})
}

func Test_studentApi_sessions(t *testing.T) {
	app := setup(t)
	t1, _ := app.createTeacher(t, "Asha Kapoor", "asha@test.cd", "secret777")
	_, token := app.createStudent(t, "Zawadi Keita", "zawadi@test.cd", t1.ID)

	// student tokens are useless on teacher endpoints
	req, rec := newAuthRequest(http.MethodGet, "/v1/students", token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("a student token must not authenticate a teacher endpoint; code = %d", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/students/logout", token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout failed: %s", rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/subjects/grades/me", token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("a revoked token must not authenticate; code = %d", rec.Code)
	}
}
