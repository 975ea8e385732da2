package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/lxzan/gws"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/soar/joymidi/internal/controller"
	"github.com/soar/joymidi/internal/hub"
)

var page = fstest.MapFS{
	"index.html": {Data: []byte(`<!DOCTYPE html>
<html>
  <head>
    <title>  status  </title>
    <style>
      body   {  color :  red ;  }
    </style>
  </head>
  <body>
    <p>   hello   </p>
    <script>
      var   answer  =  40  +  2 ;
    </script>
  </body>
</html>
`)},
	"app.js":   {Data: []byte("function  add ( a ,  b )  {\n  return  a  +  b ;\n}\n")},
	"icon.png": {Data: []byte{0x89, 'P', 'N', 'G'}},
}

type wsClient struct {
	gws.BuiltinEventHandler
	msgs chan hub.WSMessage
}

func (c *wsClient) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	var msg hub.WSMessage
	if err := json.Unmarshal(message.Bytes(), &msg); err == nil {
		c.msgs <- msg
	}
}

func (c *wsClient) next(t *testing.T) hub.WSMessage {
	t.Helper()
	select {
	case msg := <-c.msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no websocket message")
	}
	return hub.WSMessage{}
}

func newTestServer(t *testing.T) (*httptest.Server, chan controller.Status, *hub.Hub) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(logger)
	go h.Run(ctx)
	changes := make(chan controller.Status)
	b := hub.NewBroadcaster(h, changes, logger)
	b.Seed(controller.Status{Variant: controller.Right})
	go b.Run(ctx)

	handler, err := New(h, b, page, ":0", logger).Handler()
	test.That(t, err, test.ShouldBeNil)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, changes, h
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	return resp, string(body)
}

func TestPageIsMinified(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/")
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	test.That(t, resp.Header.Get("Content-Type"), test.ShouldStartWith, "text/html")
	test.That(t, body, test.ShouldContainSubstring, "hello")
	test.That(t, body, test.ShouldNotContainSubstring, "   hello")
	test.That(t, body, test.ShouldNotContainSubstring, "\n  ")

	resp, body = get(t, srv.URL+"/app.js")
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	test.That(t, body, test.ShouldNotContainSubstring, "  ")

	resp, body = get(t, srv.URL+"/icon.png")
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusOK)
	test.That(t, body, test.ShouldEqual, "\x89PNG")

	resp, _ = get(t, srv.URL+"/missing.css")
	test.That(t, resp.StatusCode, test.ShouldEqual, http.StatusNotFound)
}

func TestLoadAssetsNeedsIndex(t *testing.T) {
	_, err := loadAssets(fstest.MapFS{"app.js": {Data: []byte("1")}})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWebsocketFeed(t *testing.T) {
	srv, changes, h := newTestServer(t)

	c := &wsClient{msgs: make(chan hub.WSMessage, 16)}
	conn, _, err := gws.NewClient(c, &gws.ClientOption{
		Addr: "ws://" + strings.TrimPrefix(srv.URL, "http://") + "/ws",
	})
	test.That(t, err, test.ShouldBeNil)
	defer conn.WriteClose(1000, nil)
	go conn.ReadLoop()

	msg := c.next(t)
	test.That(t, msg.Type, test.ShouldEqual, "full")
	test.That(t, msg.Data.Variant, test.ShouldEqual, controller.Right)

	deadline := time.Now().Add(2 * time.Second)
	for h.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	test.That(t, h.Len(), test.ShouldEqual, 1)

	changes <- controller.Status{Variant: controller.Right, Joystick: controller.JoystickVector{X: 9}}
	msg = c.next(t)
	test.That(t, msg.Type, test.ShouldEqual, "delta")
	test.That(t, msg.Changes.Joystick.X, test.ShouldEqual, 9)

	test.That(t, conn.WriteMessage(gws.OpcodeText, []byte(`{"type":"sync"}`)), test.ShouldBeNil)
	msg = c.next(t)
	test.That(t, msg.Type, test.ShouldEqual, "full")
	test.That(t, msg.Data.Joystick.X, test.ShouldEqual, 9)
}

func TestURL(t *testing.T) {
	test.That(t, URL(":8080"), test.ShouldEqual, "http://localhost:8080")
	test.That(t, URL("0.0.0.0:80"), test.ShouldEqual, "http://localhost:80")
	test.That(t, URL("127.0.0.1:9000"), test.ShouldEqual, "http://127.0.0.1:9000")
}

func serveInBackground(srv *Server) <-chan error {
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()
	return done
}

func waitServed(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("server still serving after Shutdown returned")
	}
	return nil
}

func TestShutdownRacingStart(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	for i := 0; i < 20; i++ {
		srv := New(hub.NewHub(logger), hub.NewBroadcaster(nil, nil, logger), page, "127.0.0.1:0", logger)
		done := serveInBackground(srv)
		test.That(t, srv.Shutdown(context.Background()), test.ShouldBeNil)
		test.That(t, errors.Is(waitServed(t, done), http.ErrServerClosed), test.ShouldBeTrue)
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	srv := New(hub.NewHub(logger), hub.NewBroadcaster(nil, nil, logger), page, "127.0.0.1:0", logger)
	test.That(t, srv.Shutdown(context.Background()), test.ShouldBeNil)
	test.That(t, errors.Is(srv.ListenAndServe(), http.ErrServerClosed), test.ShouldBeTrue)
}
