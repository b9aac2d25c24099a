package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/discovery"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/outreach"
	"github.com/sells-group/outreach-cli/internal/scorer"
	anthropicpkg "github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/crustdata"
	"github.com/sells-group/outreach-cli/pkg/sendgrid"
)

// stubCrust serves canned provider payloads so the router can be exercised
// without the network.
type stubCrust struct {
	screenPayload json.RawMessage
	lookupPayload json.RawMessage
	profiles      []map[string]any
}

func (s *stubCrust) LookupCompanies(_ context.Context, _ []string, _ []string) (json.RawMessage, error) {
	return s.lookupPayload, nil
}

func (s *stubCrust) Screen(_ context.Context, _ crustdata.ScreenRequest) (json.RawMessage, error) {
	return s.screenPayload, nil
}

func (s *stubCrust) SearchPeople(_ context.Context, _ any, _ int) ([]map[string]any, error) {
	return s.profiles, nil
}

type stubLLM struct{}

func (stubLLM) CreateMessage(_ context.Context, _ anthropicpkg.MessageRequest) (*anthropicpkg.MessageResponse, error) {
	return &anthropicpkg.MessageResponse{
		Content: []anthropicpkg.ContentBlock{
			{Type: "text", Text: `{"subject":"Quick question","body_html":"<p>Hello</p>"}`},
		},
	}, nil
}

type stubMail struct{ sent []sendgrid.Message }

func (m *stubMail) Send(_ context.Context, msg sendgrid.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

const stubCompany = `[{
	"company_name": "Acme Payments",
	"company_website_domain": "acme.com",
	"headcount": {"linkedin_headcount": 300},
	"estimated_revenue_lower_bound_usd": 50000000,
	"taxonomy": {"linkedin_industries": ["Fintech"]}
}]`

func testScorer() *scorer.Scorer {
	return scorer.New(scorer.DefaultWeights())
}

func testRouter(t *testing.T, crust crustdata.Client, sender *outreach.Sender) http.Handler {
	t.Helper()
	svc := discovery.NewService(crust, testScorer())
	return buildRouter(svc, sender, []string{"http://localhost:3000"})
}

func testSender(mail sendgrid.Client) *outreach.Sender {
	gen := outreach.NewGenerator(stubLLM{}, "")
	return outreach.NewSender(gen, mail, "sales@example.com", "Sales Team", nil)
}

func TestRouter_Health(t *testing.T) {
	router := testRouter(t, &stubCrust{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Root_ListsEndpoints(t *testing.T) {
	router := testRouter(t, &stubCrust{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/search-companies")
	assert.Contains(t, rr.Body.String(), "/send-email")
}

func TestRouter_Industries(t *testing.T) {
	router := testRouter(t, &stubCrust{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/industries", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Industries []string `json:"industries"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body.Industries, "Fintech")
	assert.Contains(t, body.Industries, "SaaS")
}

func TestRouter_SearchCompanies(t *testing.T) {
	router := testRouter(t, &stubCrust{screenPayload: json.RawMessage(stubCompany)}, nil)

	icp := model.ICP{
		Industries: []string{"Fintech"},
		RevenueMin: 10_000_000, RevenueMax: 100_000_000,
		HeadcountMin: 100, HeadcountMax: 1000,
	}
	body, _ := json.Marshal(icp)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search-companies", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp model.SearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Companies, 1)
	assert.Equal(t, "Acme Payments", resp.Companies[0].Name)
	assert.Greater(t, resp.Companies[0].Score, 0.9)
	assert.Equal(t, 1, resp.TotalFound)
}

func TestRouter_SearchCompanies_InvalidBody(t *testing.T) {
	router := testRouter(t, &stubCrust{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search-companies", bytes.NewReader([]byte("not json"))))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestRouter_CompanyByDomain(t *testing.T) {
	router := testRouter(t, &stubCrust{lookupPayload: json.RawMessage(stubCompany)}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/company/acme.com", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var rec model.CompanyRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "Acme Payments", rec.Name)
	assert.Equal(t, "acme.com", rec.Domain)
	assert.Equal(t, 300, rec.Headcount)
}

func TestRouter_CompanyByDomain_NotFound(t *testing.T) {
	router := testRouter(t, &stubCrust{lookupPayload: json.RawMessage(`[]`)}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/company/nosuch.example", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "company not found")
}

func TestRouter_DecisionMakers(t *testing.T) {
	crust := &stubCrust{profiles: []map[string]any{
		{
			"name":                               "Jane Smith",
			"default_position_title":             "CEO",
			"emails":                             []any{"jane@acme.com"},
			"default_position_is_decision_maker": true,
		},
	}}
	router := testRouter(t, crust, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/company/acme.com/people?company_name=Acme", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Domain         string                `json:"domain"`
		DecisionMakers []model.DecisionMaker `json:"decision_makers"`
		TotalFound     int                   `json:"total_found"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "acme.com", body.Domain)
	require.Equal(t, 1, body.TotalFound)
	assert.Equal(t, "Jane Smith", body.DecisionMakers[0].Name)
	assert.Equal(t, "CEO", body.DecisionMakers[0].Title)
	assert.True(t, body.DecisionMakers[0].IsDecisionMaker)
}

func TestRouter_DecisionMakers_Empty(t *testing.T) {
	router := testRouter(t, &stubCrust{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/company/acme.com/people", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"decision_makers":[]`)
}

func TestRouter_SendEmail(t *testing.T) {
	mail := &stubMail{}
	router := testRouter(t, &stubCrust{}, testSender(mail))

	req := model.EmailRequest{
		Recipient:   "jane@acme.com",
		ProfileText: "Name: Jane Smith, CEO at Acme",
		ProductGoal: "We automate prospecting.",
	}
	body, _ := json.Marshal(req)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/send-email", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)

	var result model.EmailResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.Sent)
	assert.Equal(t, "Quick question", result.Subject)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "jane@acme.com", mail.sent[0].ToEmail)
	assert.Equal(t, "sales@example.com", mail.sent[0].FromEmail)
}

func TestRouter_SendEmail_MissingRecipient(t *testing.T) {
	router := testRouter(t, &stubCrust{}, testSender(&stubMail{}))

	body := []byte(`{"profile_text":"x","product_goal":"y"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/send-email", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "recipient is required")
}

func TestRouter_SendEmail_NotConfigured(t *testing.T) {
	router := testRouter(t, &stubCrust{}, nil)

	body := []byte(`{"recipient":"a@b.com","profile_text":"x","product_goal":"y"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/send-email", bytes.NewReader(body)))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
