// This command starts an HTTP server that runs the same decision pipeline
// the edge function runs, for local development against real buckets.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mediafold/imagegate"
	"github.com/mediafold/imagegate/lambda"
)

var addr = flag.String("addr", "localhost:8080", "TCP address to listen on")
var generalBucket = flag.String("generalBucket", "", "override the general image bucket")
var profileBucket = flag.String("profileBucket", "", "override the profile image bucket")
var fallbackHost = flag.String("fallbackHost", "", "override the fallback redirect host")
var verbose = flag.Bool("verbose", false, "print verbose logging messages")

func buildLogger() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if *verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	plainLogger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return plainLogger.Sugar()
}

func main() {
	flag.Parse()

	logger := buildLogger()

	config := imagegate.DefaultConfig()
	if *generalBucket != "" {
		config.GeneralBucket = *generalBucket
	}
	if *profileBucket != "" {
		config.ProfileBucket = *profileBucket
	}
	if *fallbackHost != "" {
		config.FallbackHost = *fallbackHost
	}

	origin, err := imagegate.NewS3Origin(logger)
	if err != nil {
		logger.Fatalw("Could not initialize S3 origin",
			"error", err.Error(),
		)
	}

	executor := lambda.NewExecutor(config, origin, logger)

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Respond to health checks
		if r.URL.Path == "/" || r.URL.Path == "/health-check" {
			fmt.Fprint(w, "OK")
			return
		}

		event := imagegate.EdgeEvent{Records: []imagegate.EdgeRecord{{
			CF: imagegate.EdgeRecordData{
				Request: imagegate.EdgeRequest{
					URI:         r.URL.EscapedPath(),
					Method:      r.Method,
					QueryString: r.URL.RawQuery,
				},
				Response: imagegate.UpstreamResponse{
					Status:  strconv.Itoa(http.StatusOK),
					Headers: imagegate.EdgeHeaders{},
				},
			},
		}}}

		resp, err := executor.HandleEvent(r.Context(), event)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeEdgeResponse(w, resp)
	})
	handler = imagegate.WithLogging(handler, logger)

	server := &http.Server{
		Addr:    *addr,
		Handler: handler,
	}

	logger.Infow("imagegate listening",
		"server.Addr", server.Addr,
	)
	logger.Fatal(server.ListenAndServe())
}

// writeEdgeResponse replays an envelope as a plain HTTP response.
func writeEdgeResponse(w http.ResponseWriter, resp *imagegate.EdgeResponse) {
	for _, entries := range resp.Headers {
		for _, h := range entries {
			w.Header().Add(h.Key, h.Value)
		}
	}

	status, err := strconv.Atoi(resp.Status)
	if err != nil {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)

	if resp.Body == "" {
		return
	}
	if resp.BodyEncoding == imagegate.BodyEncodingBase64 {
		raw, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			return
		}
		w.Write(raw)
		return
	}
	io.WriteString(w, resp.Body)
}
