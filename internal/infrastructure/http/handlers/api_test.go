package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/infrastructure/http/handlers"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
	"github.com/nutriplan/dietplan/test/testutils"
)

type APIHandlersTestSuite struct {
	suite.Suite
	plans     *testutils.MockPlanService
	documents *testutils.MockDocumentStore
	router    http.Handler
	http      *testutils.HTTPAssertions
}

func (s *APIHandlersTestSuite) SetupTest() {
	s.plans = new(testutils.MockPlanService)
	s.documents = new(testutils.MockDocumentStore)
	s.http = testutils.NewHTTPAssertions(s.T())

	h := handlers.NewAPIHandlers(s.plans, s.documents, zaptest.NewLogger(s.T()))
	r := chi.NewRouter()
	r.Post("/api/v1/plans", h.CreatePlan)
	r.Post("/api/v1/plans/pdf", h.CreatePlanPDF)
	r.Get("/api/v1/nutrition", h.GetNutrition)
	s.router = r
}

func (s *APIHandlersTestSuite) TearDownTest() {
	s.plans.AssertExpectations(s.T())
	s.documents.AssertExpectations(s.T())
}

func (s *APIHandlersTestSuite) do(method, target string, body []byte) *http.Response {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec.Result()
}

func (s *APIHandlersTestSuite) profileJSON(in profile.Input) []byte {
	data, err := json.Marshal(in)
	s.Require().NoError(err)
	return data
}

func (s *APIHandlersTestSuite) TestCreatePlan() {
	in := testutils.NewProfileBuilder().WithName("Asha Rao").WithCustomFoods("Apple, Rock").Input()
	doc := &plan.Document{Filename: "Asha_Rao_diet_plan.pdf", ContentType: plan.ContentTypePDF, Data: samplePDF}

	s.plans.On("Generate", mock.Anything, mock.MatchedBy(func(p *profile.UserProfile) bool {
		return p.Name() == "Asha Rao"
	})).Return(&inbound.PlanResult{
		Plan: &plan.DietPlan{Text: "Eat well", Model: "llama3-70b-8192"},
		Nutrition: []inbound.FoodNutrition{
			{Food: "Apple", Info: testutils.NutritionInfo("apple")},
			{Food: "Rock", Err: apperrors.NewNotFoundError("food")},
		},
		Document: doc,
	}, nil)
	s.documents.On("Save", mock.Anything, doc).Return("tok-9", nil)

	resp := s.do(http.MethodPost, "/api/v1/plans", s.profileJSON(in))

	s.http.StatusCode(resp, http.StatusOK)
	var body handlers.PlanResponse
	s.http.JSONResponse(resp, &body)

	s.Equal("Eat well", body.Plan.Text)
	s.Require().Len(body.Nutrition, 2)
	s.Equal("Apple", body.Nutrition[0].Food)
	s.Equal("Calories: 160 kcal, Protein: 2 g, Carbs: 8.5 g, Fat: 14.7 g", body.Nutrition[0].Summary)
	s.Nil(body.Nutrition[0].Error)
	s.Require().NotNil(body.Nutrition[1].Error)
	s.Equal(apperrors.CodeNotFound, body.Nutrition[1].Error.Code)

	s.Require().NotNil(body.Document)
	s.Equal("tok-9", body.Document.Token)
	s.Equal("/downloads/tok-9", body.Document.DownloadURL)
	s.Equal(len(samplePDF), body.Document.Size)
	s.Nil(body.RenderError)
}

func (s *APIHandlersTestSuite) TestCreatePlan_RenderFailure() {
	s.plans.On("Generate", mock.Anything, mock.Anything).Return(&inbound.PlanResult{
		Plan:      &plan.DietPlan{Text: "Eat well"},
		RenderErr: apperrors.NewRenderError(nil),
	}, nil)

	resp := s.do(http.MethodPost, "/api/v1/plans", s.profileJSON(profile.Defaults()))

	s.http.StatusCode(resp, http.StatusOK)
	var body handlers.PlanResponse
	s.http.JSONResponse(resp, &body)
	s.Nil(body.Document)
	s.Require().NotNil(body.RenderError)
	s.Equal(apperrors.CodeRender, body.RenderError.Code)
}

func (s *APIHandlersTestSuite) TestCreatePlan_ValidationFailed() {
	in := profile.Defaults()
	in.Age = 7
	in.Budget = "Unlimited"

	resp := s.do(http.MethodPost, "/api/v1/plans", s.profileJSON(in))

	s.http.StatusCode(resp, http.StatusBadRequest)
	errResp := s.http.ErrorResponse(resp, apperrors.CodeValidationFailed)
	s.Contains(errResp.Error.Details, profile.ErrAgeOutOfRange.Error())
	s.Contains(errResp.Error.Details, profile.ErrInvalidBudget.Error())
	s.plans.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
}

func (s *APIHandlersTestSuite) TestCreatePlan_BadJSON() {
	tests := map[string][]byte{
		"empty":         nil,
		"not json":      []byte("name=Asha"),
		"unknown field": []byte(`{"name":"Asha","shoe_size":42}`),
	}

	for name, body := range tests {
		s.Run(name, func() {
			resp := s.do(http.MethodPost, "/api/v1/plans", body)
			s.http.StatusCode(resp, http.StatusBadRequest)
			s.http.ErrorResponse(resp, apperrors.CodeBadRequest)
		})
	}
}

func (s *APIHandlersTestSuite) TestCreatePlan_UpstreamFailure() {
	s.plans.On("Generate", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAPIError("groq", http.StatusTooManyRequests, "Rate limit reached"))

	resp := s.do(http.MethodPost, "/api/v1/plans", s.profileJSON(profile.Defaults()))

	s.http.StatusCode(resp, http.StatusBadGateway)
	errResp := s.http.ErrorResponse(resp, apperrors.CodeAPI)
	s.Equal("Rate limit reached", errResp.Error.Message)
	s.Equal(http.StatusTooManyRequests, errResp.Error.UpstreamStatus)
}

func (s *APIHandlersTestSuite) TestCreatePlanPDF() {
	doc := &plan.Document{Filename: "Varun_Kumar_diet_plan.pdf", ContentType: plan.ContentTypePDF, Data: samplePDF}
	s.plans.On("Generate", mock.Anything, mock.Anything).Return(&inbound.PlanResult{
		Plan:     &plan.DietPlan{Text: "Eat well"},
		Document: doc,
	}, nil)

	resp := s.do(http.MethodPost, "/api/v1/plans/pdf", s.profileJSON(profile.Defaults()))

	s.http.StatusCode(resp, http.StatusOK)
	s.Equal(samplePDF, s.http.PDFAttachment(resp, "Varun_Kumar_diet_plan.pdf"))
	s.documents.AssertNotCalled(s.T(), "Save", mock.Anything, mock.Anything)
}

func (s *APIHandlersTestSuite) TestCreatePlanPDF_RenderFailure() {
	s.plans.On("Generate", mock.Anything, mock.Anything).Return(&inbound.PlanResult{
		Plan:      &plan.DietPlan{Text: "Eat well"},
		RenderErr: apperrors.NewRenderError(nil),
	}, nil)

	resp := s.do(http.MethodPost, "/api/v1/plans/pdf", s.profileJSON(profile.Defaults()))

	s.http.StatusCode(resp, http.StatusInternalServerError)
	s.http.ErrorResponse(resp, apperrors.CodeRender)
}

func (s *APIHandlersTestSuite) TestGetNutrition() {
	s.plans.On("LookupNutrition", mock.Anything, "apple").Return(testutils.NutritionInfo("apple"), nil)

	resp := s.do(http.MethodGet, "/api/v1/nutrition?food=apple", nil)

	s.http.StatusCode(resp, http.StatusOK)
	var body handlers.FoodNutritionResponse
	s.http.JSONResponse(resp, &body)
	s.Equal("apple", body.Food)
	s.Equal(160.0, body.Info.Calories.Amount)
	s.Equal("kcal", body.Info.Calories.Unit)
}

func (s *APIHandlersTestSuite) TestGetNutrition_Errors() {
	tests := []struct {
		name   string
		food   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"blank", "", apperrors.NewValidationError("food is required"), http.StatusBadRequest, apperrors.CodeValidationFailed},
		{"unknown", "rock", apperrors.NewNotFoundError("food"), http.StatusNotFound, apperrors.CodeNotFound},
		{"disabled", "kale", apperrors.NewConfigError("nutrition.enabled"), http.StatusServiceUnavailable, apperrors.CodeConfig},
		{"upstream", "pear", apperrors.NewLookupFailedError("pear", 500), http.StatusBadGateway, apperrors.CodeLookupFailed},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.plans.On("LookupNutrition", mock.Anything, tt.food).Return(nil, tt.err).Once()

			resp := s.do(http.MethodGet, "/api/v1/nutrition?food="+tt.food, nil)

			s.http.StatusCode(resp, tt.status)
			s.http.ErrorResponse(resp, tt.code)
		})
	}
}

func TestAPIHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(APIHandlersTestSuite))
}
