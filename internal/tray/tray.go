// Package tray shows a system tray icon with shortcuts to the status page
// and to exit.
package tray

import (
	_ "embed"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
	"go.uber.org/zap"
)

//go:embed icon.png
var iconData []byte

// ShutdownFunc is called once when "Exit" is clicked.
type ShutdownFunc func()

type Tray struct {
	url          string
	shutdownFunc ShutdownFunc
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuExit     *systray.MenuItem
	logger       *zap.SugaredLogger
}

// New creates a tray. url is the status page; when empty the "Open Status
// Page" item is not shown.
func New(url string, shutdownFn ShutdownFunc, logger *zap.SugaredLogger) *Tray {
	return &Tray{
		url:          url,
		shutdownFunc: shutdownFn,
		logger:       logger,
	}
}

// Run blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the icon and makes Run return.
func (t *Tray) Quit() {
	t.shuttingDown.Store(true)
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetIcon(iconData)
	systray.SetTitle("joymidi")
	tooltip := "joymidi"
	if t.url != "" {
		tooltip += " - " + t.url
		t.menuOpen = systray.AddMenuItem("Open Status Page", "Show live controller status")
	}
	systray.SetTooltip(tooltip)
	t.menuExit = systray.AddMenuItem("Exit", "Stop the bridge")

	go t.handleMenuClicks()

	t.logger.Debug("system tray initialized")
}

func (t *Tray) handleMenuClicks() {
	var openCh chan struct{}
	if t.menuOpen != nil {
		openCh = t.menuOpen.ClickedCh
	}
	for {
		select {
		case <-openCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.logger.Debug("system tray exiting")
}

func (t *Tray) openBrowser() {
	if err := browserCommand(runtime.GOOS, t.url).Start(); err != nil {
		t.logger.Warnw("failed to open browser", "url", t.url, "error", err)
	}
}

func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}
