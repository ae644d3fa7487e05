package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// CallbackResult carries the outcome of the browser redirect.
type CallbackResult struct {
	Code string // authorization code, empty on failure
	Err  string // provider error parameter, if any
}

// CallbackServer intercepts the redirect URI on localhost and hands the
// query parameters back to the login flow.
type CallbackServer struct {
	server     *http.Server
	listener   net.Listener
	resultChan chan CallbackResult
	done       chan struct{}
}

// StartCallbackServer starts a local HTTP server on the given port to
// receive the authorization redirect. The result channel receives exactly
// one value per completed redirect.
func StartCallbackServer(port int) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}

	resultChan := make(chan CallbackResult, 1)
	done := make(chan struct{})

	mux := http.NewServeMux()
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	cs := &CallbackServer{
		server:     server,
		listener:   listener,
		resultChan: resultChan,
		done:       done,
	}

	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		authErr := r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html")
		if code != "" {
			fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Blindtest - Spotify Authorization</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>Authorization Successful!</h1>
<p>You can close this window and return to the game.</p>
</body>
</html>`)
		} else {
			fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Blindtest - Spotify Authorization</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>Authorization Failed</h1>
<p>No code received. Please try again.</p>
</body>
</html>`)
		}

		// Send result to channel (non-blocking)
		select {
		case resultChan <- CallbackResult{Code: code, Err: authErr}:
		default:
		}
	})

	go func() {
		_ = server.Serve(listener)
		close(done)
	}()

	return cs, nil
}

// ResultChan returns the channel that receives the redirect outcome.
func (cs *CallbackServer) ResultChan() <-chan CallbackResult {
	return cs.resultChan
}

// Shutdown stops the callback server.
func (cs *CallbackServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = cs.server.Shutdown(ctx)
	<-cs.done
}

// OpenBrowser opens the given URL in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// WriteLoginQR renders the authorization URL as a terminal QR code so the
// host can log in from a phone on the same network.
func WriteLoginQR(w io.Writer, url string) error {
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encode QR: %w", err)
	}
	_, err = io.WriteString(w, qr.ToSmallString(false))
	return err
}
