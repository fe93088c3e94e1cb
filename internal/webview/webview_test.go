package webview

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/calqshell/internal/bridge"
)

type staticScript string

func (s staticScript) Script() string { return string(s) }

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var m Message
	require.NoError(t, wsjson.Read(ctx, conn, &m))
	return m
}

func TestSocketLifecycle(t *testing.T) {
	reg := bridge.NewRegistry(bridge.WithReloadDelay(time.Millisecond))
	srv := httptest.NewServer(NewSocketServer(reg, nil, nil))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	rep := reg.InjectIntoAllAndReload("document.title = 'x'")
	assert.Equal(t, bridge.Report{Targets: 1}, rep)
	assert.Equal(t, Message{Type: MsgInject, Code: "document.title = 'x'"}, read(t, conn))
	assert.Equal(t, Message{Type: MsgReload}, read(t, conn))

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "unmount"))
	require.Eventually(t, func() bool { return reg.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestSocketLoadedTriggersPreload(t *testing.T) {
	reg := bridge.NewRegistry()
	onLoad := Preload(reg, staticScript("setCurrency()"), staticScript("setTheme()"))
	srv := httptest.NewServer(NewSocketServer(reg, onLoad, nil))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, Message{Type: MsgLoaded, URL: "https://www.calqulation.com/blog"}))

	assert.Equal(t, "setCurrency()", read(t, conn).Code)
	assert.Equal(t, "setTheme()", read(t, conn).Code)

	infos := reg.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, "socket", infos[0].Kind)
	assert.Equal(t, "https://www.calqulation.com/blog", infos[0].URL)
}

func TestSocketsAreIndependent(t *testing.T) {
	reg := bridge.NewRegistry()
	srv := httptest.NewServer(NewSocketServer(reg, nil, nil))
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	defer b.CloseNow()
	require.Eventually(t, func() bool { return reg.Len() == 2 }, 2*time.Second, 5*time.Millisecond)

	a.CloseNow()
	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	rep := reg.InjectIntoAll("ping()")
	assert.Equal(t, 1, rep.Targets)
	assert.Equal(t, "ping()", read(t, b).Code)
}

func TestIdentityHeaders(t *testing.T) {
	id := Identity{Source: "CalqulationMobileApp", Name: "Calqulation", Version: "1.0.0", Platform: "linux"}
	h := id.Headers()
	assert.Equal(t, "CalqulationMobileApp", h["X-App-Source"])
	assert.Equal(t, "linux", h["X-App-Platform"])
	assert.Equal(t, "1.0.0", h["X-App-Version"])
	assert.Equal(t, "true", h["X-Mobile-App"])
	assert.Equal(t, "Calqulation", h["X-App-Name"])
	assert.Equal(t, "CalqulationMobileApp/1.0.0 (linux WebView)", h["User-Agent"])
}

func TestDetectPlatformNotEmpty(t *testing.T) {
	assert.NotEmpty(t, DetectPlatform())
}
