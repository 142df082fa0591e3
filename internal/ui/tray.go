package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
	"github.com/reelcut/reelcut-agent/internal/project"
)

type Tray struct {
	projectSvc project.ProjectService
	runner     *project.Runner
	logger     *slog.Logger

	statusItem     *systray.MenuItem
	projectsItem   *systray.MenuItem
	recordingsItem *systray.MenuItem
	pauseItem      *systray.MenuItem

	mu sync.Mutex

	onOpenEditor func() error
	onQuit       func()
}

type TrayConfig struct {
	ProjectService project.ProjectService
	Runner         *project.Runner
	Logger         *slog.Logger
	OnOpenEditor   func() error
	OnQuit         func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		projectSvc:   cfg.ProjectService,
		runner:       cfg.Runner,
		logger:       cfg.Logger,
		onOpenEditor: cfg.OnOpenEditor,
		onQuit:       cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Reelcut")
	systray.SetTooltip("Reelcut Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.projectsItem = systray.AddMenuItem("Projects: 0", "Projects in the library")
	t.projectsItem.Disable()

	t.recordingsItem = systray.AddMenuItem("Recordings: 0", "Registered recordings")
	t.recordingsItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause background probing")

	openEditorItem := systray.AddMenuItem("Open Editor...", "Open the editor in a browser")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Reelcut Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-openEditorItem.ClickedCh:
				t.handleOpenEditor()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleOpenEditor() {
	if t.onOpenEditor != nil {
		if err := t.onOpenEditor(); err != nil {
			t.logger.Error("failed to open editor", "error", err)
		}
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateProjectsCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projectsItem.SetTitle(fmt.Sprintf("Projects: %d", count))
}

func (t *Tray) UpdateRecordingsCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordingsItem.SetTitle(fmt.Sprintf("Recordings: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
