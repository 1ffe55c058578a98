package imagegate

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseRequestPath(t *testing.T) {
	tests := []struct {
		Path    string
		Request ParsedRequest
	}{
		{"/image/thumbnail/photo.jpg", ParsedRequest{"thumbnail", "photo.jpg", "jpg"}},
		{"/image/original/picture.PNG", ParsedRequest{"original", "picture.PNG", "png"}},
		{"/image/profile/avatar.webp", ParsedRequest{"profile", "avatar.webp", "webp"}},
		{"/image/miniThumbnail/logo.svg", ParsedRequest{"miniThumbnail", "logo.svg", "svg"}},
		{"/image/resized/diagram.svg+xml", ParsedRequest{"resized", "diagram.svg+xml", "svg+xml"}},

		// URI-encoded filenames are decoded before anything else looks at them
		{"/image/thumbnail/summer%20photo.jpg", ParsedRequest{"thumbnail", "summer photo.jpg", "jpg"}},
		{"/image/original/k%C3%A4sikirja.png", ParsedRequest{"original", "käsikirja.png", "png"}},

		// deeper paths still read the second-to-last segment as the profile
		{"/cdn/image/thumbnail/photo.jpeg", ParsedRequest{"thumbnail", "photo.jpeg", "jpeg"}},

		// degenerate paths parse without validation; the engine classifies them
		{"/photo.jpg", ParsedRequest{"", "photo.jpg", "jpg"}},
		{"/image/original/noextension", ParsedRequest{"original", "noextension", ""}},
		{"/image/unknownprofile/x.bmp", ParsedRequest{"unknownprofile", "x.bmp", "bmp"}},
	}

	for _, tt := range tests {
		if got, want := ParseRequestPath(tt.Path), tt.Request; got != want {
			t.Errorf("ParseRequestPath(%q) returned %#v, want %#v", tt.Path, got, want)
		}
	}
}

func TestEdgeEvent_Unmarshal(t *testing.T) {
	payload := `{
		"Records": [{
			"cf": {
				"request": {
					"uri": "/image/thumbnail/photo%20one.jpg",
					"method": "GET",
					"querystring": "",
					"headers": {
						"host": [{"key": "Host", "value": "images.example.net"}]
					}
				},
				"response": {
					"status": "200",
					"statusDescription": "OK",
					"headers": {
						"content-type": [{"key": "Content-Type", "value": "image/jpeg"}]
					}
				}
			}
		}]
	}`

	var event EdgeEvent
	if err := json.NewDecoder(strings.NewReader(payload)).Decode(&event); err != nil {
		t.Fatal("error caught", err)
	}

	if len(event.Records) != 1 {
		t.Fatal("unexpected record count", len(event.Records))
	}
	record := event.Records[0].CF

	if got, want := record.Request.URI, "/image/thumbnail/photo%20one.jpg"; got != want {
		t.Errorf("request URI is %q, want %q", got, want)
	}
	if got, want := record.Response.Status, "200"; got != want {
		t.Errorf("upstream status is %q, want %q", got, want)
	}
	if got, want := record.Response.Headers["content-type"][0].Value, "image/jpeg"; got != want {
		t.Errorf("upstream content-type is %q, want %q", got, want)
	}
}
