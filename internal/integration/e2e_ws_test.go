package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"olo_mining/internal/config"
	"olo_mining/internal/db"
	httpserver "olo_mining/internal/http"
	"olo_mining/internal/http/handlers"
	"olo_mining/internal/http/middleware"
	"olo_mining/internal/kv"
	"olo_mining/internal/repository"
	"olo_mining/internal/service"
	"olo_mining/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// startServer wires the full stack the way cmd/app does, with short timings.
func startServer(t *testing.T, store kv.Store) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	installs := repository.NewInstalls(store, nil)
	audit := service.NewAuditService()
	tasks := service.NewTaskService(installs, audit, 2)
	withdrawals := service.NewWithdrawalService(installs, audit, 50*time.Millisecond)
	hub := ws.NewHub()
	tasks.OnComplete(hub.TaskCompleted)
	withdrawals.AddNotifier(hub)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go tasks.Run(ctx, 20*time.Millisecond)

	h := handlers.NewHandler(handlers.Services{
		Sessions:    service.NewSessionService(installs, "test-secret", time.Hour, "", true),
		Mining:      service.NewMiningService(installs, audit),
		Tasks:       tasks,
		Referrals:   service.NewReferralService(installs, "olo_bot"),
		Withdrawals: withdrawals,
		Admin:       service.NewAdminService(installs, audit, "8822"),
	})

	r := gin.New()
	httpserver.RegisterRoutes(r, h, handlers.NewHealthHandler(store, "test", "test"), hub, middleware.NewMemoryLimiter(), httpserver.RouteConfig{
		RateLimit:    1000,
		RateWindow:   time.Minute,
		TickInterval: 50 * time.Millisecond,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func waitFrame(t *testing.T, conn *websocket.Conn, frameType string) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", frameType, err)
		}
		var f map[string]any
		_ = json.Unmarshal(msg, &f)
		if f["type"] == frameType {
			return f
		}
	}
}

func runLiveFlow(t *testing.T, store kv.Store) {
	srv := startServer(t, store)

	var session struct {
		InstallID string         `json:"install_id"`
		Token     string         `json:"token"`
		User      map[string]any `json:"user"`
	}
	if code := call(t, http.MethodPost, srv.URL+"/api/v1/session", "", nil, &session); code != http.StatusCreated {
		t.Fatalf("session: %d", code)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + session.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFrame(t, conn, "ready")

	if code := call(t, http.MethodPost, srv.URL+"/api/v1/mining/start", session.Token, nil, nil); code != http.StatusOK {
		t.Fatalf("start mining: %d", code)
	}
	for {
		f := waitFrame(t, conn, "mining")
		if f["data"].(map[string]any)["status"] == "running" {
			break
		}
	}

	if code := call(t, http.MethodPost, srv.URL+"/api/v1/tasks/3/verify", session.Token, nil, nil); code != http.StatusAccepted {
		t.Fatalf("verify: %d", code)
	}
	done := waitFrame(t, conn, "task_completed")
	if done["data"].(map[string]any)["balance"] != float64(6) {
		t.Fatalf("unexpected completion: %v", done)
	}

	// fund the user through the admin console, then withdraw
	userID := session.User["id"].(string)
	call(t, http.MethodPost, srv.URL+"/api/v1/admin/login", session.Token, map[string]string{"pin": "8822"}, nil)
	if code := call(t, http.MethodPost, srv.URL+"/api/v1/admin/users/"+userID+"/balance", session.Token, map[string]int{"delta": 44}, nil); code != http.StatusOK {
		t.Fatalf("adjust balance: %d", code)
	}

	var w map[string]any
	code := call(t, http.MethodPost, srv.URL+"/api/v1/wallet/withdraw", session.Token,
		map[string]any{"address": "0x1234567890abcdef1234567890abcdef12345678", "amount": 10}, &w)
	if code != http.StatusCreated {
		t.Fatalf("withdraw: %d %v", code, w)
	}
	f := waitFrame(t, conn, "withdrawal")
	if f["data"].(map[string]any)["id"] != w["id"] {
		t.Fatalf("withdrawal frame %v for %v", f, w)
	}

	var wallet map[string]any
	call(t, http.MethodGet, srv.URL+"/api/v1/wallet", session.Token, nil, &wallet)
	if wallet["balance"] != float64(40) {
		t.Fatalf("balance after withdrawal: %v", wallet["balance"])
	}
}

func TestE2E_LiveView_SQLite(t *testing.T) {
	store, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "olo.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	runLiveFlow(t, store)
}

func TestE2E_LiveView_Postgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	store, err := db.OpenStore(context.Background(), &config.Config{
		StoreBackend: config.BackendPostgres,
		DatabaseURL:  dsn,
	})
	if err != nil {
		t.Fatalf("open postgres store: %v", err)
	}
	defer store.Close()

	runLiveFlow(t, store)
}
