package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aratrikkk/UrjaBharat/internal/application/dto"
	"github.com/aratrikkk/UrjaBharat/internal/application/engine"
	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/internal/application/usecase"
	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
	wsInfra "github.com/aratrikkk/UrjaBharat/internal/infrastructure/notification/websocket"
	consolemetrics "github.com/aratrikkk/UrjaBharat/internal/infrastructure/observability/prometheus"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/http/handler"
	"github.com/aratrikkk/UrjaBharat/internal/interfaces/http/middleware"
	"github.com/aratrikkk/UrjaBharat/pkg/config"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

const (
	testToken  = "test-token"
	testOrigin = "http://localhost:8080"
)

type stubNarrator struct{}

func (stubNarrator) Analyze(context.Context, string) (string, error) {
	return "Forecast: stable load for the next shift.", nil
}

func (stubNarrator) Diagnose(context.Context, string) (string, error) {
	return "Root cause: stage 2 intercooler fouling.", nil
}

func (stubNarrator) Summarize(context.Context, string) (string, error) {
	return "# Shift Handover\nAll units nominal.", nil
}

func (stubNarrator) Explain(context.Context, string, string) (string, error) {
	return "Rebalancing moves Compressor #2 away from surge.", nil
}

type stubHostCollector struct{}

func (stubHostCollector) Collect(context.Context) (*dto.HostStatsDTO, error) {
	return &dto.HostStatsDTO{CPUPercent: 12.5, CPUCores: 4, MemoryPercent: 40, CollectedAt: time.Now()}, nil
}

type testServerOptions struct {
	rateLimit config.RateLimitConfig
	narrator  port.Narrator
	archive   port.ReportArchive
}

func newTestServer(t *testing.T, opts testServerOptions) *httptest.Server {
	t.Helper()

	if opts.rateLimit.CommandsPerMinute == 0 {
		opts.rateLimit = config.RateLimitConfig{CommandsPerMinute: 6000, Burst: 100}
	}
	if opts.narrator == nil {
		opts.narrator = stubNarrator{}
	}

	log := logger.New("error")
	metrics := consolemetrics.New(nil)
	hub := wsInfra.NewHub(log)

	directives := make([]*entity.Directive, 0, 2)
	for _, seed := range config.DefaultDirectiveSeeds() {
		d, err := entity.NewDirective(seed.ID, seed.Title, seed.Description, seed.Impact,
			seed.EstimatedSavings, valueobject.Urgency(seed.Urgency), seed.CreatedAt)
		if err != nil {
			t.Fatalf("failed to build directive: %v", err)
		}
		directives = append(directives, d)
	}

	consoleEngine, err := engine.New(engine.Config{
		TickInterval:     20 * time.Millisecond,
		AnalysisInterval: time.Hour,
		WindowCapacity:   24,
		UnitEnergyCost:   0.085,
		CurrencyRate:     83,
		Analysis:         usecase.RunAnalysisConfig{PeriodicSample: 10, OnDemandSample: 15, MinReadings: 10},
		PlantContext:     "Plant A-4",
	}, valueobject.DefaultGenerationProfile(), directives, engine.Collaborators{
		Narrator:      opts.narrator,
		Notifications: hub,
		Archive:       opts.archive,
		Metrics:       metrics,
	}, log)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	if err := consoleEngine.Start(ctx); err != nil {
		t.Fatalf("engine.Start() error = %v", err)
	}
	t.Cleanup(func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer closeCancel()
		_ = consoleEngine.Close(closeCtx)
		cancel()
	})

	authConfig := middleware.AuthConfig{
		Enabled:     true,
		BearerToken: testToken,
		OnFailure:   metrics.AuthFailures.Inc,
	}

	router := NewRouter(
		handler.NewDashboardHandler(consoleEngine.Snapshots(), log),
		handler.NewWebSocketHandler(hub, consoleEngine.Snapshots(), []string{testOrigin}, log),
		handler.NewConsoleAPIHandler(
			consoleEngine.Snapshots(),
			consoleEngine.Analysis(),
			consoleEngine.Anomaly(),
			consoleEngine.Directives(),
			consoleEngine.Handover(),
			stubHostCollector{},
			log,
		),
		handler.NewAuthAPIHandler(authConfig, log),
		handler.NewHealthHandler(consoleEngine),
		metrics,
		authConfig,
		opts.rateLimit,
		log,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return server
}

func TestE2EHealthEndpoints(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	resp := doRequest(t, server.Client(), http.MethodGet, server.URL+"/healthz", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for /healthz, got %d", resp.StatusCode)
	}

	// первый такт приходит через TickInterval
	waitFor(t, func() bool {
		resp := doRequest(t, server.Client(), http.MethodGet, server.URL+"/readyz", nil, nil)
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})
}

func TestE2EAuth(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	client := server.Client()

	resp := doRequest(t, client, http.MethodGet, server.URL+"/api/v1/console", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = doRequest(t, client, http.MethodPost, server.URL+"/api/v1/auth/login",
		bytes.NewBufferString(`{"token":"wrong"}`), map[string]string{"Content-Type": "application/json"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", resp.StatusCode)
	}

	resp = doRequest(t, client, http.MethodPost, server.URL+"/api/v1/auth/login",
		bytes.NewBufferString(`{"token":"`+testToken+`"}`), map[string]string{"Content-Type": "application/json"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for login, got %d", resp.StatusCode)
	}

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AuthCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected auth cookie after login")
	}

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/auth/status", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.AddCookie(cookie)
	statusResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var status map[string]any
	decodeJSON(t, statusResp, &status)
	if status["authenticated"] != true || status["cookie_present"] != true {
		t.Fatalf("unexpected auth status: %v", status)
	}

	metricsResp := doRequest(t, client, http.MethodGet, server.URL+"/metrics", nil, nil)
	body := readBody(t, metricsResp)
	if !strings.Contains(body, "compressor_console_auth_failures_total 2") {
		t.Fatalf("expected two auth failures in metrics output")
	}
}

func TestE2EReadEndpoints(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	client := server.Client()

	var snapshot dto.ConsoleSnapshotDTO
	decodeJSON(t, doRequest(t, client, http.MethodGet, server.URL+"/api/v1/console", nil, authHeader()), &snapshot)
	if len(snapshot.Telemetry) != 24 {
		t.Fatalf("expected 24 readings, got %d", len(snapshot.Telemetry))
	}
	if snapshot.Regime != "normal" || snapshot.AnomalyActive {
		t.Fatalf("expected normal regime, got %q", snapshot.Regime)
	}
	if len(snapshot.Directives) != 2 {
		t.Fatalf("expected 2 directives, got %d", len(snapshot.Directives))
	}

	var telemetry struct {
		Count    int              `json:"count"`
		Readings []dto.ReadingDTO `json:"readings"`
	}
	decodeJSON(t, doRequest(t, client, http.MethodGet, server.URL+"/api/v1/telemetry", nil, authHeader()), &telemetry)
	if telemetry.Count != 24 || len(telemetry.Readings) != 24 {
		t.Fatalf("unexpected telemetry: count=%d readings=%d", telemetry.Count, len(telemetry.Readings))
	}

	var kpi dto.KPIDTO
	decodeJSON(t, doRequest(t, client, http.MethodGet, server.URL+"/api/v1/kpi", nil, authHeader()), &kpi)
	if kpi.CurrentPowerKW < 410 || kpi.CurrentPowerKW > 455 {
		t.Fatalf("current power out of normal range: %d", kpi.CurrentPowerKW)
	}
	if kpi.AnnualProjectedSavings != (340+85)*365 {
		t.Fatalf("unexpected annual savings: %v", kpi.AnnualProjectedSavings)
	}

	var assets struct {
		Assets []dto.AssetDTO `json:"assets"`
	}
	decodeJSON(t, doRequest(t, client, http.MethodGet, server.URL+"/api/v1/assets", nil, authHeader()), &assets)
	if len(assets.Assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(assets.Assets))
	}

	var host dto.HostStatsDTO
	decodeJSON(t, doRequest(t, client, http.MethodGet, server.URL+"/api/v1/system", nil, authHeader()), &host)
	if host.CPUCores != 4 {
		t.Fatalf("unexpected host stats: %+v", host)
	}
}

func TestE2EAnomalyLifecycle(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	client := server.Client()

	var snapshot dto.ConsoleSnapshotDTO
	decodeJSON(t, doRequest(t, client, http.MethodPost, server.URL+"/api/v1/anomaly/activate", nil, authHeader()), &snapshot)
	if !snapshot.AnomalyActive || snapshot.Regime != "anomalous" {
		t.Fatalf("expected anomalous regime after activation, got %q", snapshot.Regime)
	}
	if snapshot.Diagnostic == nil {
		t.Fatal("expected diagnostic slot to be filled")
	}

	waitFor(t, func() bool {
		var current dto.ConsoleSnapshotDTO
		decodeJSON(t, doRequest(t, client, http.MethodGet, server.URL+"/api/v1/console", nil, authHeader()), &current)
		return current.Diagnostic != nil && current.Diagnostic.Status == "ready" &&
			strings.Contains(current.Diagnostic.Text, "intercooler fouling")
	})

	// omitempty-поля не перезаписываются при повторном декодировании, поэтому каждый ответ в свою структуру
	var resolved dto.ConsoleSnapshotDTO
	decodeJSON(t, doRequest(t, client, http.MethodPost, server.URL+"/api/v1/anomaly/resolve", nil, authHeader()), &resolved)
	if resolved.AnomalyActive || resolved.Diagnostic != nil {
		t.Fatalf("expected normal regime and empty diagnostic after resolve, got %q", resolved.Regime)
	}

	var reset dto.ConsoleSnapshotDTO
	decodeJSON(t, doRequest(t, client, http.MethodPost, server.URL+"/api/v1/console/reset", nil, authHeader()), &reset)
	if len(reset.Telemetry) != 24 || reset.Analysis != nil || reset.Handover != nil || reset.Diagnostic != nil {
		t.Fatalf("unexpected snapshot after reset: readings=%d", len(reset.Telemetry))
	}
}

func TestE2EDirectives(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	client := server.Client()

	resp := doRequest(t, client, http.MethodPost, server.URL+"/api/v1/directives/99/explain", nil, authHeader())
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown directive, got %d", resp.StatusCode)
	}

	resp = doRequest(t, client, http.MethodPost, server.URL+"/api/v1/directives/2/explain", nil, authHeader())
	var accepted map[string]any
	decodeJSON(t, resp, &accepted)
	if resp.StatusCode != http.StatusAccepted || accepted["request_id"] == "" {
		t.Fatalf("unexpected explain response: %d %v", resp.StatusCode, accepted)
	}

	waitFor(t, func() bool {
		var current dto.ConsoleSnapshotDTO
		decodeJSON(t, doRequest(t, client, http.MethodGet, server.URL+"/api/v1/console", nil, authHeader()), &current)
		explanation, ok := current.Explanations["2"]
		return ok && explanation.Status == "ready"
	})

	var snapshot dto.ConsoleSnapshotDTO
	decodeJSON(t, doRequest(t, client, http.MethodPost, server.URL+"/api/v1/directives/2/execute", nil, authHeader()), &snapshot)
	if len(snapshot.Directives) != 1 || snapshot.Directives[0].ID != "1" {
		t.Fatalf("expected only directive 1 to remain, got %+v", snapshot.Directives)
	}
	if _, ok := snapshot.Explanations["2"]; ok {
		t.Fatal("explanation must be dropped with its directive")
	}
	if snapshot.KPI.AnnualProjectedSavings != 340*365 {
		t.Fatalf("unexpected annual savings after execute: %v", snapshot.KPI.AnnualProjectedSavings)
	}

	resp = doRequest(t, client, http.MethodPost, server.URL+"/api/v1/directives/2/execute", nil, authHeader())
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("expected 200 on repeated execute, got %d", resp.StatusCode)
	}
	var repeated dto.ConsoleSnapshotDTO
	decodeJSON(t, resp, &repeated)
	if len(repeated.Directives) != 1 || repeated.KPI.AnnualProjectedSavings != 340*365 {
		t.Fatalf("repeated execute must leave state unchanged, got %+v", repeated.Directives)
	}

	resp = doRequest(t, client, http.MethodPost, server.URL+"/api/v1/directives/99/execute", nil, authHeader())
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for unknown directive execute, got %d", resp.StatusCode)
	}
}

func TestE2EAnalysisAndHandover(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	client := server.Client()

	resp := doRequest(t, client, http.MethodPost, server.URL+"/api/v1/analysis/deep", nil, authHeader())
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 for deep analysis, got %d", resp.StatusCode)
	}

	resp = doRequest(t, client, http.MethodPost, server.URL+"/api/v1/handover", nil, authHeader())
	var accepted map[string]any
	decodeJSON(t, resp, &accepted)
	if resp.StatusCode != http.StatusAccepted || accepted["request_id"] == "" {
		t.Fatalf("unexpected handover response: %d %v", resp.StatusCode, accepted)
	}

	waitFor(t, func() bool {
		var current dto.ConsoleSnapshotDTO
		decodeJSON(t, doRequest(t, client, http.MethodGet, server.URL+"/api/v1/console", nil, authHeader()), &current)
		return current.Analysis != nil && current.Analysis.Status == "ready" &&
			current.Handover != nil && current.Handover.Status == "ready" &&
			strings.HasPrefix(current.Handover.Text, "# Shift Handover")
	})
}

func TestE2ECommandRateLimit(t *testing.T) {
	server := newTestServer(t, testServerOptions{
		rateLimit: config.RateLimitConfig{CommandsPerMinute: 1, Burst: 1},
	})
	client := server.Client()

	resp := doRequest(t, client, http.MethodPost, server.URL+"/api/v1/analysis/deep", nil, authHeader())
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected first command to pass, got %d", resp.StatusCode)
	}

	resp = doRequest(t, client, http.MethodPost, server.URL+"/api/v1/analysis/deep", nil, authHeader())
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for second command, got %d", resp.StatusCode)
	}

	// чтение не ограничивается
	resp = doRequest(t, client, http.MethodGet, server.URL+"/api/v1/kpi", nil, authHeader())
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected reads to bypass limiter, got %d", resp.StatusCode)
	}
}

func TestE2EMethodNotAllowed(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	resp := doRequest(t, server.Client(), http.MethodGet, server.URL+"/api/v1/anomaly/activate", nil, authHeader())
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestE2EConsolePageAndStatic(t *testing.T) {
	server := newTestServer(t, testServerOptions{})
	client := server.Client()

	page := readBody(t, doRequest(t, client, http.MethodGet, server.URL+"/", nil, authHeader()))
	if !strings.Contains(page, "Compressor Operations Console") {
		t.Fatal("console page did not render")
	}

	resp := doRequest(t, client, http.MethodGet, server.URL+"/static/js/console.js", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for static asset, got %d", resp.StatusCode)
	}
}

func TestE2EWebSocketInitialSnapshot(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Origin", testOrigin)
	header.Set("Authorization", "Bearer "+testToken)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string                 `json:"type"`
		Data dto.ConsoleSnapshotDTO `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if msg.Type != wsInfra.MessageSnapshot || len(msg.Data.Telemetry) != 24 {
		t.Fatalf("unexpected first message: type=%q readings=%d", msg.Type, len(msg.Data.Telemetry))
	}
}

func TestE2EWebSocketRejectsForeignOrigin(t *testing.T) {
	server := newTestServer(t, testServerOptions{})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	header.Set("Authorization", "Bearer "+testToken)

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail for foreign origin")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testToken}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func doRequest(t *testing.T, client *http.Client, method, url string, body *bytes.Buffer, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = body
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
