package imagegate

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Body encodings understood by the edge runtime.
const (
	BodyEncodingText   = "text"
	BodyEncodingBase64 = "base64"
)

const (
	cacheControlSuccess = "max-age=31536000"
	cacheControlFailure = "no-cache"
)

type failureBody struct {
	ErrorCode string `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
}

// cloneHeaders copies the upstream header set so overlays never touch the
// event the runtime handed us.
func cloneHeaders(base EdgeHeaders) EdgeHeaders {
	cloned := make(EdgeHeaders, len(base)+3)
	for name, entries := range base {
		cloned[name] = append([]EdgeHeader(nil), entries...)
	}
	return cloned
}

func setHeader(headers EdgeHeaders, key, value string) {
	headers[strings.ToLower(key)] = []EdgeHeader{{Key: key, Value: value}}
}

// SuccessResponse builds a 200 envelope carrying the encoded image body.
func SuccessResponse(base EdgeHeaders, body []byte, contentType string) *EdgeResponse {
	headers := cloneHeaders(base)
	setHeader(headers, "Cache-Control", cacheControlSuccess)
	setHeader(headers, "Content-Type", contentType)

	return &EdgeResponse{
		Status:            strconv.Itoa(http.StatusOK),
		StatusDescription: http.StatusText(http.StatusOK),
		Headers:           headers,
		BodyEncoding:      BodyEncodingBase64,
		Body:              base64.StdEncoding.EncodeToString(body),
	}
}

// FailureResponse builds a non-cacheable failure envelope with a structured
// JSON body.  The body is plain text, never base64.
func FailureResponse(base EdgeHeaders, status int, message string) *EdgeResponse {
	headers := cloneHeaders(base)
	setHeader(headers, "Cache-Control", cacheControlFailure)
	setHeader(headers, "Content-Type", "application/json")

	body, _ := json.Marshal(failureBody{
		ErrorCode: strconv.Itoa(status),
		ErrorMsg:  message,
	})

	return &EdgeResponse{
		Status:            strconv.Itoa(status),
		StatusDescription: http.StatusText(status),
		Headers:           headers,
		BodyEncoding:      BodyEncodingText,
		Body:              string(body),
	}
}

// RedirectResponse builds a 302 envelope deferring the request to the
// fallback service.  Redirects carry no body.
func RedirectResponse(base EdgeHeaders, location string) *EdgeResponse {
	headers := cloneHeaders(base)
	setHeader(headers, "Location", location)

	return &EdgeResponse{
		Status:            strconv.Itoa(http.StatusFound),
		StatusDescription: http.StatusText(http.StatusFound),
		Headers:           headers,
	}
}
