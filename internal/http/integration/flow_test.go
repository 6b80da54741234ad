package integration_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/geocoder89/tasktracker/internal/domain/task"
	"github.com/geocoder89/tasktracker/internal/domain/user"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

const taskBody = `{"priority":"High","district":"North","module":"Billing","task":"Reconcile","details":"monthly","date":"2024-01-08","targetDate":"2024-01-10","status":"WIP"}`

func TestIntegration_EmployeeSubmitsManagerReviews(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		mustRegister(t, a, "Boss", "boss@example.com", "manager")
		mustRegister(t, a, "Alice", "alice@example.com", "employee")
		mustRegister(t, a, "Bob", "bob@example.com", "employee")

		alice := mustLogin(t, a, "alice@example.com")
		bob := mustLogin(t, a, "bob@example.com")
		boss := mustLogin(t, a, "boss@example.com")

		w := doRequest(a.router, http.MethodPost, "/submit/", taskBody, alice)
		if w.Code != http.StatusCreated {
			t.Fatalf("submit got status %d, body=%s", w.Code, w.Body.String())
		}
		var created task.Task
		mustReadJSON(t, w, &created)

		// A sees one row, B sees none
		var mine listResponse[task.Task]
		mustReadJSON(t, doRequest(a.router, http.MethodGet, "/submit/", "", alice), &mine)
		if mine.Count != 1 || mine.Items[0].ID != created.ID {
			t.Fatalf("alice list = %+v", mine)
		}

		var theirs listResponse[task.Task]
		mustReadJSON(t, doRequest(a.router, http.MethodGet, "/submit/", "", bob), &theirs)
		if theirs.Count != 0 {
			t.Fatalf("bob sees %d tasks, want 0", theirs.Count)
		}

		// B cannot touch A's task
		edit := strings.Replace(taskBody, "Reconcile", "Hijacked", 1)
		for _, req := range []struct{ method, path, body string }{
			{http.MethodGet, "/task/" + created.ID + "/edit/", ""},
			{http.MethodPost, "/task/" + created.ID + "/edit/", edit},
			{http.MethodPost, "/task/" + created.ID + "/delete/", ""},
		} {
			if w := doRequest(a.router, req.method, req.path, req.body, bob); w.Code != http.StatusNotFound {
				t.Fatalf("%s %s as bob got %d, want 404", req.method, req.path, w.Code)
			}
		}

		// the manager sees exactly one row, attributed to A
		var dash listResponse[task.Entry]
		mustReadJSON(t, doRequest(a.router, http.MethodGet, "/dashboard/", "", boss), &dash)
		if dash.Count != 1 || dash.Items[0].EmployeeFirstName != "Alice" || dash.Items[0].Title != "Reconcile" {
			t.Fatalf("dashboard = %+v", dash)
		}

		w = doRequest(a.router, http.MethodGet, "/export/?date=2024-01-08", "", boss)
		if w.Code != http.StatusOK {
			t.Fatalf("export got status %d, body=%s", w.Code, w.Body.String())
		}
		records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
		if err != nil {
			t.Fatalf("read csv: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("csv records = %d, want header + 1", len(records))
		}
		if got := records[1]; got[0] != "01/08/2024" || got[6] != "01/10/2024" || got[10] != "" || got[12] != "Alice" {
			t.Fatalf("csv row = %v", got)
		}

		// employees are bounced from the manager pages
		for _, path := range []string{"/dashboard/", "/export/", "/employees/"} {
			w := doRequest(a.router, http.MethodGet, path, "", alice)
			if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
				t.Fatalf("%s as employee got %d location=%q", path, w.Code, w.Header().Get("Location"))
			}
		}

		// A edits then deletes the task; the second delete is a miss
		w = doRequest(a.router, http.MethodPost, "/task/"+created.ID+"/edit/", strings.Replace(taskBody, `"WIP"`, `"DONE"`, 1), alice)
		if w.Code != http.StatusOK {
			t.Fatalf("edit got status %d, body=%s", w.Code, w.Body.String())
		}
		if w := doRequest(a.router, http.MethodPost, "/task/"+created.ID+"/delete/", "", alice); w.Code != http.StatusNoContent {
			t.Fatalf("delete got %d", w.Code)
		}
		if w := doRequest(a.router, http.MethodPost, "/task/"+created.ID+"/delete/", "", alice); w.Code != http.StatusNotFound {
			t.Fatalf("second delete got %d, want 404", w.Code)
		}
	})
}

func TestIntegration_AnonymousIsSentToLogin(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		for _, path := range []string{"/submit/", "/dashboard/", "/export/", "/employees/", "/profile/"} {
			w := doRequest(a.router, http.MethodGet, path, "")
			if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login/" {
				t.Fatalf("%s got %d location=%q", path, w.Code, w.Header().Get("Location"))
			}
		}
	})
}

func TestIntegration_LogoutEndsSession(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		mustRegister(t, a, "Alice", "alice@example.com", "employee")
		alice := mustLogin(t, a, "alice@example.com")

		if w := doRequest(a.router, http.MethodGet, "/submit/", "", alice); w.Code != http.StatusOK {
			t.Fatalf("submit page got %d", w.Code)
		}

		w := doRequest(a.router, http.MethodGet, "/logout/", "", alice)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
			t.Fatalf("logout got %d location=%q", w.Code, w.Header().Get("Location"))
		}

		// replaying the old cookie must not work
		w = doRequest(a.router, http.MethodGet, "/submit/", "", alice)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login/" {
			t.Fatalf("stale cookie got %d location=%q", w.Code, w.Header().Get("Location"))
		}
	})
}

func TestIntegration_OwnProfile(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		mustRegister(t, a, "Alice", "alice@example.com", "employee")
		alice := mustLogin(t, a, "alice@example.com")

		w := doRequest(a.router, http.MethodPost, "/profile/", `{"firstName":"Alicia","lastName":"Smith"}`, alice)
		if w.Code != http.StatusOK {
			t.Fatalf("update profile got %d body=%s", w.Code, w.Body.String())
		}

		w = doRequest(a.router, http.MethodGet, "/profile/", "", alice)
		if w.Code != http.StatusOK {
			t.Fatalf("show profile got %d", w.Code)
		}
		var got user.User
		mustReadJSON(t, w, &got)
		if got.FirstName != "Alicia" || got.LastName != "Smith" || got.OfficeEmail != "alice@example.com" {
			t.Fatalf("unexpected profile: %+v", got)
		}
		if strings.Contains(w.Body.String(), "passwordHash") {
			t.Fatalf("profile leaked the hash: %s", w.Body.String())
		}

		w = doRequest(a.router, http.MethodPost, "/profile/", `{"firstName":"","lastName":"Smith"}`, alice)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("blank first name got %d", w.Code)
		}
	})
}

func TestIntegration_DisabledAccountLosesSession(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		mustRegister(t, a, "Boss", "boss@example.com", "manager")
		mustRegister(t, a, "Zed", "zed@example.com", "employee")

		boss := mustLogin(t, a, "boss@example.com")
		zed := mustLogin(t, a, "zed@example.com")

		var emps listResponse[user.User]
		mustReadJSON(t, doRequest(a.router, http.MethodGet, "/employees/", "", boss), &emps)
		if emps.Count != 1 {
			t.Fatalf("employees = %+v", emps.Items)
		}
		zedID := emps.Items[0].ID

		w := doRequest(a.router, http.MethodPost, "/employees/edit/"+zedID+"/",
			`{"firstName":"Zed","lastName":"Doe","officeEmail":"zed@example.com","isActive":false}`, boss)
		if w.Code != http.StatusOK {
			t.Fatalf("deactivate got %d body=%s", w.Code, w.Body.String())
		}

		w = doRequest(a.router, http.MethodPost, "/submit/", taskBody, zed)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login/" {
			t.Fatalf("deactivated submit got %d location=%q", w.Code, w.Header().Get("Location"))
		}

		if w := doRequest(a.router, http.MethodPost, "/employees/delete/"+zedID+"/", "", boss); w.Code != http.StatusNoContent {
			t.Fatalf("delete got %d", w.Code)
		}

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			body := ""
			if method == http.MethodPost {
				body = taskBody
			}
			w = doRequest(a.router, method, "/submit/", body, zed)
			if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login/" {
				t.Fatalf("deleted %s /submit/ got %d location=%q", method, w.Code, w.Header().Get("Location"))
			}
		}
	})
}

func TestIntegration_EditsResolveTargetFirst(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		mustRegister(t, a, "Boss", "boss@example.com", "manager")
		mustRegister(t, a, "Alice", "alice@example.com", "employee")
		mustRegister(t, a, "Bob", "bob@example.com", "employee")

		boss := mustLogin(t, a, "boss@example.com")
		alice := mustLogin(t, a, "alice@example.com")
		bob := mustLogin(t, a, "bob@example.com")

		w := doRequest(a.router, http.MethodPost, "/submit/", taskBody, alice)
		if w.Code != http.StatusCreated {
			t.Fatalf("submit got %d", w.Code)
		}
		var created task.Task
		mustReadJSON(t, w, &created)

		targets := []string{
			"/task/" + created.ID + "/edit/",
			"/task/00000000-0000-0000-0000-000000000000/edit/",
		}
		for _, path := range targets {
			if w := doRequest(a.router, http.MethodPost, path, `{"priority":""}`, bob); w.Code != http.StatusNotFound {
				t.Fatalf("bad body on %s got %d, want 404", path, w.Code)
			}
		}

		if w := doRequest(a.router, http.MethodPost, "/task/"+created.ID+"/edit/", `{"priority":""}`, alice); w.Code != http.StatusBadRequest {
			t.Fatalf("owner bad body got %d, want 400", w.Code)
		}

		var me user.User
		mustReadJSON(t, doRequest(a.router, http.MethodGet, "/profile/", "", boss), &me)
		if w := doRequest(a.router, http.MethodPost, "/employees/edit/"+me.ID+"/", `{"firstName":""}`, boss); w.Code != http.StatusNotFound {
			t.Fatalf("editing the manager got %d, want 404", w.Code)
		}
	})
}

func TestIntegration_SingleManager(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		const n = 6

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			codes = map[int]int{}
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				email := "boss" + string(rune('a'+i)) + "@example.com"
				w := doRequest(a.router, http.MethodPost, "/register/", registerBody("Boss", email, "manager"))

				mu.Lock()
				codes[w.Code]++
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		if codes[http.StatusCreated] != 1 || codes[http.StatusConflict] != n-1 {
			t.Fatalf("status counts = %v, want one 201 and %d 409", codes, n-1)
		}

		var form struct {
			Roles []user.Role `json:"roles"`
		}
		mustReadJSON(t, doRequest(a.router, http.MethodGet, "/register/", ""), &form)
		if len(form.Roles) != 1 || form.Roles[0] != user.RoleEmployee {
			t.Fatalf("register form still offers %v", form.Roles)
		}
	})
}

func TestIntegration_DuplicateEmailAndLoginFailures(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		mustRegister(t, a, "Alice", "alice@example.com", "employee")

		w := doRequest(a.router, http.MethodPost, "/register/", registerBody("Other", "alice@EXAMPLE.com", "employee"))
		if w.Code != http.StatusConflict {
			t.Fatalf("duplicate register got %d, body=%s", w.Code, w.Body.String())
		}

		wrong := doRequest(a.router, http.MethodPost, "/login/", `{"officeEmail":"alice@example.com","password":"nope-nope"}`)
		unknown := doRequest(a.router, http.MethodPost, "/login/", `{"officeEmail":"ghost@example.com","password":"password123"}`)

		if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
			t.Fatalf("login failures got %d and %d, want 401", wrong.Code, unknown.Code)
		}

		type errBody struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		var a1, a2 errBody
		mustReadJSON(t, wrong, &a1)
		mustReadJSON(t, unknown, &a2)
		if a1.Error != a2.Error {
			t.Fatalf("login failures differ: %+v vs %+v", a1.Error, a2.Error)
		}
	})
}

func TestIntegration_ManagerAdministersEmployees(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		mustRegister(t, a, "Boss", "boss@example.com", "manager")
		mustRegister(t, a, "Zed", "zed@example.com", "employee")
		mustRegister(t, a, "Alice", "alice@example.com", "employee")

		boss := mustLogin(t, a, "boss@example.com")
		zed := mustLogin(t, a, "zed@example.com")

		if w := doRequest(a.router, http.MethodPost, "/submit/", taskBody, zed); w.Code != http.StatusCreated {
			t.Fatalf("submit got %d", w.Code)
		}

		var emps listResponse[user.User]
		mustReadJSON(t, doRequest(a.router, http.MethodGet, "/employees/", "", boss), &emps)
		if emps.Count != 2 || emps.Items[0].FirstName != "Alice" || emps.Items[1].FirstName != "Zed" {
			t.Fatalf("employees = %+v", emps.Items)
		}
		zedID := emps.Items[1].ID

		w := doRequest(a.router, http.MethodPost, "/employees/edit/"+zedID+"/",
			`{"firstName":"Zed","lastName":"Doe","officeEmail":"alice@example.com"}`, boss)
		if w.Code != http.StatusConflict {
			t.Fatalf("edit to taken email got %d", w.Code)
		}

		w = doRequest(a.router, http.MethodPost, "/employees/edit/"+zedID+"/",
			`{"firstName":"Zedd","lastName":"Doe","officeEmail":"zedd@example.com","isActive":true}`, boss)
		if w.Code != http.StatusOK {
			t.Fatalf("edit got %d, body=%s", w.Code, w.Body.String())
		}

		if w := doRequest(a.router, http.MethodPost, "/employees/delete/"+zedID+"/", "", boss); w.Code != http.StatusNoContent {
			t.Fatalf("delete got %d", w.Code)
		}

		var dash listResponse[task.Entry]
		mustReadJSON(t, doRequest(a.router, http.MethodGet, "/dashboard/", "", boss), &dash)
		if dash.Count != 0 {
			t.Fatalf("deleted employee's tasks survived: %+v", dash.Items)
		}
	})
}

func TestIntegration_MetricsAndHealth(t *testing.T) {
	forEachBackend(t, func(t *testing.T, a app) {
		if w := doRequest(a.router, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
			t.Fatalf("readyz got %d, body=%s", w.Code, w.Body.String())
		}

		doRequest(a.router, http.MethodPost, "/login/", `{"officeEmail":"ghost@example.com","password":"password123"}`)

		w := doRequest(a.router, http.MethodGet, "/metrics", "")
		if w.Code != http.StatusOK {
			t.Fatalf("metrics got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `tasktracker_auth_logins_total{result="invalid"} 1`) {
			t.Fatalf("login metric missing from exposition")
		}
	})
}
