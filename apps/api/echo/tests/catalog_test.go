package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/entitlement"
	"github.com/trezcool/darasa/core/progress"
)

func Test_catalogApi_publicCatalog(t *testing.T) {
	ta := newTestApp(t)
	_, token := ta.registerParent(t, "jane@test.cd")
	math, chs := ta.addSubject(t, "Mathematics", 3, "Counting", "Addition")
	ta.addSubject(t, "Science", 5)

	req, rec := newAuthRequest(http.MethodGet, "/v1/subjects", token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /subjects code = %d, want %d", rec.Code, http.StatusOK)
	}
	var subjects []catalog.Subject
	decodeBody(t, rec, &subjects)
	if len(subjects) != 2 {
		t.Errorf("len(subjects) = %d, want 2", len(subjects))
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/subjects/"+math.ID+"/chapters", token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET chapters code = %d, want %d", rec.Code, http.StatusOK)
	}
	var chapters []catalog.Chapter
	decodeBody(t, rec, &chapters)
	if len(chapters) != 2 || chapters[0].ID != chs[0].ID {
		t.Errorf("chapters = %v, want creation order starting at %s", chapters, chs[0].ID)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/subjects/nope/chapters", token)
	ta.do(req, rec)
	tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: catalog.ErrNotFound.Error()})}
	checkCodeAndData(t, tt, rec)
}

func Test_catalogApi_childSubjects(t *testing.T) {
	ta := newTestApp(t)
	parent, token := ta.registerParent(t, "jane@test.cd")
	child := ta.createChild(t, parent.ID, 3)
	math, _ := ta.addSubject(t, "Mathematics", 3)
	ta.addSubject(t, "Science", 3)
	ta.addSubject(t, "English", 7) // other cohort

	base := "/v1/children/" + child.ID

	req, rec := newAuthRequest(http.MethodGet, base+"/subjects", token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET child subjects code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var subjects []access.SubjectAccess
	decodeBody(t, rec, &subjects)
	if len(subjects) != 2 {
		t.Fatalf("len(subjects) = %d, want 2", len(subjects))
	}
	for _, sub := range subjects {
		if !sub.Locked {
			t.Errorf("subject %s open without purchase", sub.Name)
		}
	}

	// purchase Mathematics through the payment API
	req, rec = newAuthRequest(http.MethodPost, base+"/purchases", token, marchallObj(t, map[string]interface{}{
		"subject_id":     math.ID,
		"transaction_id": "tx-1",
		"order_id":       "ord-1",
		"amount":         4.99,
	}))
	ta.do(req, rec)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST purchases code = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var ent entitlement.Entitlement
	decodeBody(t, rec, &ent)
	if ent.Locked {
		t.Error("entitlement still locked after purchase")
	}

	// double purchase is rejected
	req, rec = newAuthRequest(http.MethodPost, base+"/purchases", token, marchallObj(t, map[string]interface{}{
		"subject_id":     math.ID,
		"transaction_id": "tx-2",
	}))
	ta.do(req, rec)
	tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: entitlement.ErrAlreadyUnlocked.Error()})}
	checkCodeAndData(t, tt, rec)

	// unlock status reflects the purchase
	req, rec = newAuthRequest(http.MethodGet, base+"/subjects/"+math.ID+"/unlock", token)
	ta.do(req, rec)
	tt = httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]bool{"unlocked": true})}
	checkCodeAndData(t, tt, rec)

	// purchases listing
	req, rec = newAuthRequest(http.MethodGet, base+"/purchases", token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET purchases code = %d, want %d", rec.Code, http.StatusOK)
	}
	var ents []entitlement.Entitlement
	decodeBody(t, rec, &ents)
	if len(ents) != 1 || ents[0].SubjectID != math.ID {
		t.Errorf("purchases = %v, want only %s", ents, math.ID)
	}
}

func Test_catalogApi_progress(t *testing.T) {
	ta := newTestApp(t)
	parent, token := ta.registerParent(t, "jane@test.cd")
	child := ta.createChild(t, parent.ID, 3)
	_, chs := ta.addSubject(t, "Mathematics", 3, "Counting", "Addition")

	base := "/v1/children/" + child.ID

	// the second chapter is locked: no completion, no score
	req, rec := newAuthRequest(http.MethodPost, base+"/chapters/"+chs[1].ID+"/complete", token)
	ta.do(req, rec)
	tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
	checkCodeAndData(t, tt, rec)

	// the first chapter is always free
	req, rec = newAuthRequest(http.MethodGet, base+"/chapters/"+chs[0].ID, token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET chapter code = %d, want %d", rec.Code, http.StatusOK)
	}
	var ca access.ChapterAccess
	decodeBody(t, rec, &ca)
	if ca.Status != access.StatusInProgress {
		t.Errorf("Status = %s, want %s", ca.Status, access.StatusInProgress)
	}

	req, rec = newAuthRequest(http.MethodPost, base+"/chapters/"+chs[0].ID+"/complete", token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, base+"/chapters/"+chs[0].ID, token)
	ta.do(req, rec)
	decodeBody(t, rec, &ca)
	if ca.Status != access.StatusCompleted {
		t.Errorf("Status = %s, want %s", ca.Status, access.StatusCompleted)
	}

	// quiz score: none yet, record, then read back
	req, rec = newAuthRequest(http.MethodGet, base+"/chapters/"+chs[0].ID+"/quiz-score", token)
	ta.do(req, rec)
	tt = httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: progress.ErrNotFound.Error()})}
	checkCodeAndData(t, tt, rec)

	req, rec = newAuthRequest(http.MethodPost, base+"/chapters/"+chs[0].ID+"/quiz-score", token,
		marchallObj(t, map[string]int{"score": 4, "total_marks": 5}))
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("record quiz-score code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// a score above the total is rejected
	req, rec = newAuthRequest(http.MethodPost, base+"/chapters/"+chs[0].ID+"/quiz-score", token,
		marchallObj(t, map[string]int{"score": 6, "total_marks": 5}))
	ta.do(req, rec)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid quiz-score code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req, rec = newAuthRequest(http.MethodGet, base+"/chapters/"+chs[0].ID+"/quiz-score", token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET quiz-score code = %d, want %d", rec.Code, http.StatusOK)
	}
	var qs progress.QuizScore
	decodeBody(t, rec, &qs)
	if qs.Score != 4 || qs.TotalMarks != 5 {
		t.Errorf("score = %d/%d, want 4/5", qs.Score, qs.TotalMarks)
	}
}

func Test_userApi_academicReport(t *testing.T) {
	ta := newTestApp(t)
	parent, token := ta.registerParent(t, "jane@test.cd")
	child := ta.createChild(t, parent.ID, 3)
	_, chs := ta.addSubject(t, "Mathematics", 3, "Counting", "Addition")

	base := "/v1/children/" + child.ID
	req, rec := newAuthRequest(http.MethodPost, base+"/chapters/"+chs[0].ID+"/complete", token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete code = %d, want %d", rec.Code, http.StatusOK)
	}
	req, rec = newAuthRequest(http.MethodPost, base+"/chapters/"+chs[0].ID+"/quiz-score", token,
		marchallObj(t, map[string]int{"score": 5, "total_marks": 5}))
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("record quiz-score code = %d, want %d", rec.Code, http.StatusOK)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/parents/report", token)
	ta.do(req, rec)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET report code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var reports []access.LearnerReport
	decodeBody(t, rec, &reports)
	if len(reports) != 1 || len(reports[0].Subjects) != 1 {
		t.Fatalf("reports = %v, want one learner with one subject", reports)
	}
	sr := reports[0].Subjects[0]
	if sr.CompletedChapters != 1 || sr.CompletionPercent != 50 {
		t.Errorf("completion = %d chapters %d%%, want 1 and 50%%", sr.CompletedChapters, sr.CompletionPercent)
	}
	if sr.Chapters[0].QuizScore == nil || *sr.Chapters[0].QuizScore != 5 {
		t.Errorf("QuizScore = %v, want 5", sr.Chapters[0].QuizScore)
	}
}
