package imagegate

import (
	"net/url"
	"path"
	"strings"
)

// EdgeHeader is a single header entry in the edge event JSON.
type EdgeHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EdgeHeaders maps lowercased header names to their entries, the way the
// edge runtime encodes them.
type EdgeHeaders map[string][]EdgeHeader

// EdgeRequest is the original client request carried in the edge event.
type EdgeRequest struct {
	URI         string      `json:"uri"`
	Method      string      `json:"method"`
	QueryString string      `json:"querystring"`
	Headers     EdgeHeaders `json:"headers"`
}

// UpstreamResponse is the origin response the edge runtime was about to
// deliver when it invoked the gateway.
type UpstreamResponse struct {
	Status            string      `json:"status"`
	StatusDescription string      `json:"statusDescription"`
	Headers           EdgeHeaders `json:"headers"`
}

// EdgeResponse is the envelope returned to the edge runtime.  Exactly one is
// produced per event.
type EdgeResponse struct {
	Status            string      `json:"status"`
	StatusDescription string      `json:"statusDescription"`
	Headers           EdgeHeaders `json:"headers"`
	BodyEncoding      string      `json:"bodyEncoding,omitempty"`
	Body              string      `json:"body,omitempty"`
}

// EdgeEvent is the origin-response trigger payload.
type EdgeEvent struct {
	Records []EdgeRecord `json:"Records"`
}

type EdgeRecord struct {
	CF EdgeRecordData `json:"cf"`
}

type EdgeRecordData struct {
	Request  EdgeRequest      `json:"request"`
	Response UpstreamResponse `json:"response"`
}

// ParsedRequest is the decoded form of an incoming request path.  It is
// derived once per request and never mutated afterwards.
type ParsedRequest struct {
	Profile   string // second-to-last path segment
	ObjectKey string // URI-decoded final path segment
	Extension string // lowercased, no leading dot
}

// ParseRequestPath decodes a request path of the form
// /image/{profile}/{filename} into a ParsedRequest.  It performs no
// validation: unknown profiles and unsupported extensions are detected by
// the decision engine so that error classification stays in one place.
func ParseRequestPath(rawPath string) ParsedRequest {
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		decoded = rawPath
	}

	parts := strings.Split(strings.Trim(decoded, "/"), "/")
	filename := parts[len(parts)-1]

	var profile string
	if len(parts) >= 2 {
		profile = parts[len(parts)-2]
	}

	extension := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))

	return ParsedRequest{
		Profile:   profile,
		ObjectKey: filename,
		Extension: extension,
	}
}
