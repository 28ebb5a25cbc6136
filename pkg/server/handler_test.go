package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mikeboe/tool-scout/pkg/research"
)

func newTestRouter(runner ResearchRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(factoryFor(runner)), runner).RegisterRoutes(r)
	return r
}

func performRequest(r *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mcpBody(t *testing.T, method string, params interface{}) []byte {
	t.Helper()
	req := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling mcp request: %v", err)
	}
	return body
}

func decodeMCP(t *testing.T, w *httptest.ResponseRecorder) MCPResponse {
	t.Helper()
	var resp MCPResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding mcp response: %v\n%s", err, w.Body.String())
	}
	return resp
}

func initMCPSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := performRequest(r, http.MethodPost, "/mcp", mcpBody(t, "initialize", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("initialize status = %d, body %s", w.Code, w.Body.String())
	}
	sessionID := w.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize did not set Mcp-Session-Id")
	}
	return sessionID
}

func TestResearchEndpoints(t *testing.T) {
	state := &research.ResearchState{Query: "note apps", Analysis: "Use Obsidian."}
	r := newTestRouter(&fakeRunner{state: state})

	w := performRequest(r, http.MethodPost, "/api/research", []byte(`{"query":"note apps"}`), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var created Job
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding created job: %v", err)
	}
	if created.Query != "note apps" || created.ID == uuid.Nil {
		t.Errorf("created job = %+v", created)
	}

	w = performRequest(r, http.MethodGet, "/api/research/"+created.ID.String(), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var fetched Job
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decoding fetched job: %v", err)
	}
	if fetched.ID != created.ID {
		t.Errorf("fetched id = %s, want %s", fetched.ID, created.ID)
	}

	w = performRequest(r, http.MethodGet, "/api/research", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var jobs []Job
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("decoding job list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != created.ID {
		t.Errorf("job list = %+v", jobs)
	}

	w = performRequest(r, http.MethodGet, "/api/research/"+created.ID.String()+"/logs", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status = %d", w.Code)
	}
	var logs []LogEntry
	if err := json.Unmarshal(w.Body.Bytes(), &logs); err != nil {
		t.Fatalf("decoding logs: %v", err)
	}
}

func TestResearchEndpointValidation(t *testing.T) {
	r := newTestRouter(&fakeRunner{})

	tests := []struct {
		name     string
		method   string
		path     string
		body     []byte
		wantCode int
	}{
		{"malformed create body", http.MethodPost, "/api/research", []byte("{"), http.StatusBadRequest},
		{"invalid job id", http.MethodGet, "/api/research/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown job id", http.MethodGet, "/api/research/" + uuid.NewString(), nil, http.StatusNotFound},
		{"invalid logs id", http.MethodGet, "/api/research/not-a-uuid/logs", nil, http.StatusBadRequest},
		{"unknown logs id", http.MethodGet, "/api/research/" + uuid.NewString() + "/logs", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(r, tt.method, tt.path, tt.body, nil)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestMCPInitialize(t *testing.T) {
	r := newTestRouter(&fakeRunner{})

	w := performRequest(r, http.MethodPost, "/mcp", mcpBody(t, "initialize", nil), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Mcp-Session-Id") == "" {
		t.Error("initialize did not assign a session id")
	}

	resp := decodeMCP(t, w)
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result = %v", resp.Result)
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
	serverInfo, _ := result["serverInfo"].(map[string]interface{})
	if serverInfo["name"] != "tool-scout-mcp" {
		t.Errorf("serverInfo = %v", serverInfo)
	}
}

func TestMCPToolsListAndCall(t *testing.T) {
	state := &research.ResearchState{
		Query: "ci servers",
		Companies: []research.CompanyInfo{
			{Name: "Buildkite", Website: "https://buildkite.com", PricingModel: "Paid"},
		},
		Analysis: "Use Buildkite.",
	}
	r := newTestRouter(&fakeRunner{state: state})
	sessionID := initMCPSession(t, r)
	headers := map[string]string{"Mcp-Session-Id": sessionID}

	w := performRequest(r, http.MethodPost, "/mcp", mcpBody(t, "tools/list", nil), headers)
	if !strings.Contains(w.Body.String(), "research_developer_tools") {
		t.Errorf("tools/list missing the research tool: %s", w.Body.String())
	}

	callParams := map[string]interface{}{
		"name":      "research_developer_tools",
		"arguments": map[string]string{"query": "ci servers"},
	}
	w = performRequest(r, http.MethodPost, "/mcp", mcpBody(t, "tools/call", callParams), headers)
	resp := decodeMCP(t, w)
	if resp.Error != nil {
		t.Fatalf("tools/call error = %+v", resp.Error)
	}

	result, _ := resp.Result.(map[string]interface{})
	content, _ := result["content"].([]interface{})
	if len(content) != 1 {
		t.Fatalf("content = %v", result["content"])
	}
	block, _ := content[0].(map[string]interface{})
	text, _ := block["text"].(string)
	if !strings.Contains(text, "Company: Buildkite") {
		t.Errorf("tool reply missing company block:\n%s", text)
	}
	if !strings.Contains(text, "Recommendation:\nUse Buildkite.") {
		t.Errorf("tool reply missing recommendation:\n%s", text)
	}

	w = performRequest(r, http.MethodPost, "/mcp", mcpBody(t, "ping", nil), headers)
	if resp := decodeMCP(t, w); resp.Error != nil {
		t.Errorf("ping error = %+v", resp.Error)
	}
}

func TestMCPErrors(t *testing.T) {
	r := newTestRouter(&fakeRunner{})
	sessionID := initMCPSession(t, r)

	tests := []struct {
		name     string
		body     []byte
		headers  map[string]string
		wantCode int
	}{
		{
			name:     "missing session",
			body:     mcpBody(t, "tools/list", nil),
			wantCode: -32000,
		},
		{
			name:     "unknown session",
			body:     mcpBody(t, "tools/list", nil),
			headers:  map[string]string{"Mcp-Session-Id": uuid.NewString()},
			wantCode: -32000,
		},
		{
			name:     "unknown method",
			body:     mcpBody(t, "bogus/method", nil),
			headers:  map[string]string{"Mcp-Session-Id": sessionID},
			wantCode: -32601,
		},
		{
			name: "unknown tool",
			body: mcpBody(t, "tools/call", map[string]interface{}{
				"name":      "no_such_tool",
				"arguments": map[string]string{},
			}),
			headers:  map[string]string{"Mcp-Session-Id": sessionID},
			wantCode: -32601,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(r, http.MethodPost, "/mcp", tt.body, tt.headers)
			resp := decodeMCP(t, w)
			if resp.Error == nil {
				t.Fatalf("expected an mcp error, body %s", w.Body.String())
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("error code = %d, want %d", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestMCPParseError(t *testing.T) {
	r := newTestRouter(&fakeRunner{})

	w := performRequest(r, http.MethodPost, "/mcp", []byte("not json"), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	resp := decodeMCP(t, w)
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Errorf("error = %+v, want parse error", resp.Error)
	}
}
