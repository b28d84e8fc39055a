package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/entitlement"
	"github.com/trezcool/darasa/core/leaderboard"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
	adaptivesvc "github.com/trezcool/darasa/services/adaptive"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	app  echoapi.Server
	conf *core.Config

	usrSvc   *user.Service
	catSvc   *catalog.Service
	entSvc   *entitlement.Service
	progSvc  *progress.Service
	quizSvc  *quiz.Service
	boardSvc *leaderboard.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	catRepo := inmemdb.NewCatalogRepository(db)

	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf), conf)
	catSvc := catalog.NewService(catRepo)
	entSvc := entitlement.NewService(inmemdb.NewEntitlementRepository(db), usrRepo, catRepo)
	progSvc := progress.NewService(inmemdb.NewProgressRepository(db))
	boardSvc := leaderboard.NewService(inmemdb.NewLeaderboardRepository(db), nil, core.NopLogger{})
	quizSvc := quiz.NewService(inmemdb.NewQuizRepository(db), boardSvc, adaptivesvc.NewStaticEngine(), core.NopLogger{})
	resolver := access.NewResolver(usrSvc, catSvc, entSvc, progSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         core.NopLogger{},
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		CatalogSvc:     catSvc,
		EntitlementSvc: entSvc,
		ProgressSvc:    progSvc,
		QuizSvc:        quizSvc,
		BoardSvc:       boardSvc,
		Resolver:       resolver,
	})
	return &testApp{
		app:      app,
		conf:     conf,
		usrSvc:   usrSvc,
		catSvc:   catSvc,
		entSvc:   entSvc,
		progSvc:  progSvc,
		quizSvc:  quizSvc,
		boardSvc: boardSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (ta *testApp) registerParent(t *testing.T, email string) (user.User, string) {
	t.Helper()
	parent, err := ta.usrSvc.Register(context.Background(), user.NewParent{
		Name:     "Jane Doe",
		Email:    email,
		Password: "s3cr3tpwd",
	})
	if err != nil {
		t.Fatalf("Register() failed, %v", err)
	}
	return parent, ta.getToken(t, parent)
}

func (ta *testApp) createChild(t *testing.T, parentID string, cohort int) user.User {
	t.Helper()
	child, err := ta.usrSvc.CreateChild(context.Background(), parentID, user.NewChild{
		Name:   "Amani",
		Cohort: cohort,
		Emoji:  "🐯",
	})
	if err != nil {
		t.Fatalf("CreateChild() failed, %v", err)
	}
	return child
}

func (ta *testApp) addSubject(t *testing.T, name string, cohort int, chapters ...string) (catalog.Subject, []catalog.Chapter) {
	t.Helper()
	ctx := context.Background()
	sub, err := ta.catSvc.AddSubject(ctx, catalog.NewSubject{Name: name, Cohort: cohort})
	if err != nil {
		t.Fatalf("AddSubject() failed, %v", err)
	}
	chs := make([]catalog.Chapter, 0, len(chapters))
	for _, name := range chapters {
		ch, err := ta.catSvc.AddChapter(ctx, sub.ID, catalog.NewChapter{Name: name})
		if err != nil {
			t.Fatalf("AddChapter() failed, %v", err)
		}
		chs = append(chs, ch)
	}
	return sub, chs
}

func (ta *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := echoapi.GetUserClaims(ta.conf, usr)
	token, err := echoapi.GenerateToken(ta.conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func (ta *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) {
	ta.app.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

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

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
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
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding body %q failed, %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
