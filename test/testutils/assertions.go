// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	err := json.NewDecoder(resp.Body).Decode(target)
	require.NoError(ha.t, err, "Response should be valid JSON")
}

// ErrorResponse asserts that the response carries an error envelope with the
// given code and returns it
func (ha *HTTPAssertions) ErrorResponse(resp *http.Response, expectedCode apperrors.ErrorCode) apperrors.ErrorResponse {
	var errorResp apperrors.ErrorResponse
	ha.JSONResponse(resp, &errorResp)
	assert.Equal(ha.t, expectedCode, errorResp.Error.Code)
	return errorResp
}

// Header asserts that a header exists with expected value
func (ha *HTTPAssertions) Header(resp *http.Response, headerName, expectedValue string, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedValue, resp.Header.Get(headerName), msgAndArgs...)
}

// HasHeader asserts that a header exists
func (ha *HTTPAssertions) HasHeader(resp *http.Response, headerName string) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.NotEmpty(ha.t, resp.Header.Get(headerName), "Response should have header %s", headerName)
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(resp *http.Response) {
	for _, header := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
		"Content-Security-Policy",
	} {
		ha.HasHeader(resp, header)
	}
}

// PDFAttachment asserts that the response is a PDF download named filename
// and returns its body
func (ha *HTTPAssertions) PDFAttachment(resp *http.Response, filename string) []byte {
	require.NotNil(ha.t, resp, "Response should not be nil")
	ha.Header(resp, "Content-Type", "application/pdf")
	ha.Header(resp, "Content-Disposition", `attachment; filename="`+filename+`"`)

	body, err := io.ReadAll(resp.Body)
	require.NoError(ha.t, err)
	AssertPDF(ha.t, body)
	return body
}

// AssertPDF asserts that data looks like a complete PDF file
func AssertPDF(t *testing.T, data []byte) {
	t.Helper()
	require.NotEmpty(t, data, "PDF should not be empty")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "PDF should start with the %%PDF- header")
	assert.True(t, bytes.Contains(data[max(0, len(data)-1024):], []byte("%%EOF")), "PDF should end with an EOF marker")
}
