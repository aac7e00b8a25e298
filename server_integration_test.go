package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	_ = os.Setenv("REPORTS_BASE", t.TempDir())

	initDB()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var err error
	artifacts, err = newArtifactStore(ctx)
	if err != nil {
		t.Fatalf("artifact storage init failed: %v", err)
	}
	reportQueue = newReportQueue()
	reportQueue.Start(ctx)
	t.Cleanup(reportQueue.Close)

	r := gin.Default()
	setupRoutes(r)
	return r
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Register user (409 when reusing a database)
	regBody, _ := json.Marshal(map[string]string{"username": "user1", "password": "longpass1"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	loginBody, _ := json.Marshal(map[string]string{"username": "user1", "password": "longpass1"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 3. Upload a donation spreadsheet (multipart). IDs are unique per run so
	// the insert does not collide with rows from earlier runs.
	suffix := time.Now().UnixNano()
	donorID := fmt.Sprintf("IT%d", suffix)
	csv := fmt.Sprintf("Donor ID,Donation ID,Donor First Name,Donor Last Name,Donor Email,Donation Amount,Date of Donation,Time of Donation,Cause ID,Cause\n"+
		"%s,DN%d,Integration,Tester,it@example.org,42.50,2024-03-10,11:15 AM,CIT%d,Testing Fund\n", donorID, suffix, suffix)
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "donations.csv")
	_, _ = w.Write([]byte(csv))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/upload", buf, token, mw.FormDataContentType())
	if resp.Code != http.StatusAccepted {
		t.Fatalf("upload failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var uploadResp struct {
		JobIDs []string `json:"job_ids"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &uploadResp)
	if len(uploadResp.JobIDs) != 1 {
		t.Fatalf("expected one job id, got %+v", uploadResp.JobIDs)
	}
	jobID := uploadResp.JobIDs[0]

	// 4. Poll job status until terminal
	var status string
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		resp = performRequest(r, http.MethodGet, "/status/"+jobID, nil, token, "")
		if resp.Code != 200 {
			t.Fatalf("status poll failed status=%d body=%s", resp.Code, resp.Body.String())
		}
		var statusResp map[string]any
		_ = json.Unmarshal(resp.Body.Bytes(), &statusResp)
		status, _ = statusResp["status"].(string)
		if status == "SUCCESS" || status == "FAILURE" {
			if status == "FAILURE" {
				t.Fatalf("report job failed: %+v", statusResp)
			}
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	if status != "SUCCESS" {
		t.Fatalf("job did not finish in time, last status=%q", status)
	}

	// 5. Fetch the donor's report
	resp = performRequest(r, http.MethodGet, "/report/"+donorID, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("fetch report failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("report body is not a PDF")
	}

	// 6. List reports filtered to this donor
	resp = performRequest(r, http.MethodGet, "/reports?search="+donorID, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list reports failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var listResp struct {
		Results []map[string]any `json:"results"`
		Total   int64            `json:"total"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &listResp)
	if listResp.Total != 1 || len(listResp.Results) != 1 {
		t.Fatalf("expected exactly one listed donor, got %s", resp.Body.String())
	}
	if got, _ := listResp.Results[0]["status"].(string); got != "SUCCESS" {
		t.Fatalf("expected SUCCESS report in listing, got %q", got)
	}

	// 7. Unknown job id is 404
	resp = performRequest(r, http.MethodGet, "/status/no-such-job", nil, token, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", resp.Code)
	}

	// 8. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodPost, "/upload", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthenticated upload, got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
