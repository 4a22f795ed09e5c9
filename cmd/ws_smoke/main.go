// Command ws_smoke opens an install on a running server, starts mining and a
// task verification, and prints the live view frames it receives.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"olo_mining/internal/logger"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	duration := flag.Duration("for", 12*time.Second, "how long to listen")
	task := flag.String("task", "1", "task id to verify")
	flag.Parse()

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "http://127.0.0.1:" + port

	var session struct {
		InstallID string `json:"install_id"`
		Token     string `json:"token"`
	}
	if err := call(http.MethodPost, base+"/api/v1/session", "", &session); err != nil {
		logger.Fatal("create session", "error", err)
	}
	logger.Info("install created", "install_id", session.InstallID)

	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, session.Token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	if err := call(http.MethodPost, base+"/api/v1/mining/start", session.Token, nil); err != nil {
		logger.Fatal("start mining", "error", err)
	}
	if err := call(http.MethodPost, base+"/api/v1/tasks/"+*task+"/verify", session.Token, nil); err != nil {
		logger.Fatal("verify task", "error", err)
	}

	deadline := time.Now().Add(*duration)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		fmt.Println(string(msg))
	}
	logger.Info("smoke test finished")
}

func call(method, url, token string, out any) error {
	req, err := http.NewRequest(method, url, bytes.NewReader(nil))
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("%s %s: %d %v", method, url, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
