package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

const loadMoreLabel = "[gray]... load more[-]"

// Library is the part of the Amazon Music client the browser uses.
type Library interface {
	AlbumsInLibrary() *amazonmusic.Pager[*amazonmusic.Album]
}

// Config holds TUI configuration options
type Config struct {
	BatchSize      int           // Albums appended to the list per load
	RequestTimeout time.Duration // Per album, track list or stream URL lookup
	Logger         zerolog.Logger
	Screen         tcell.Screen // Optional: defaults to the terminal
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		BatchSize:      50,
		RequestTimeout: 30 * time.Second,
		Logger:         zerolog.Nop(),
	}
}

// App browses the albums in the user's library, their tracks and stream
// URLs.
type App struct {
	app     *tview.Application
	albums  *tview.List
	tracks  *tview.List
	details *tview.TextView
	status  *tview.TextView

	config  Config
	library Library
	ctx     context.Context

	// Guarded by mu; the pager is driven from a loader goroutine while the
	// lists are read from the UI goroutine.
	mu      sync.Mutex
	pager   *amazonmusic.Pager[*amazonmusic.Album]
	loaded  []*amazonmusic.Album
	more    bool
	loading bool
	// opening is set while an album's track list is being fetched; albums
	// are resolved in place, so only one is opened at a time.
	opening bool
	shown   []*amazonmusic.Track

	cancelFunc context.CancelFunc
}

// New creates a browser over library with the default config
func New(library Library) *App {
	return NewWithConfig(library, DefaultConfig())
}

// NewWithConfig creates a browser over library
func NewWithConfig(library Library, cfg Config) *App {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}

	a := &App{
		app:     tview.NewApplication(),
		config:  cfg,
		library: library,
		ctx:     context.Background(),
		more:    true,
	}
	if cfg.Screen != nil {
		a.app.SetScreen(cfg.Screen)
	}
	a.setupUI()
	return a
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	a.albums = tview.NewList().ShowSecondaryText(true)
	a.albums.SetBorder(true).
		SetTitle(" Library ").
		SetTitleAlign(tview.AlignLeft)
	a.albums.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		a.selectAlbum(index)
	})
	a.albums.SetChangedFunc(func(index int, _, _ string, _ rune) {
		a.mu.Lock()
		atEnd := index >= len(a.loaded)
		a.mu.Unlock()
		if atEnd {
			a.loadMore()
		}
	})

	a.tracks = tview.NewList().ShowSecondaryText(false)
	a.tracks.SetBorder(true).
		SetTitle(" Tracks ").
		SetTitleAlign(tview.AlignLeft)
	a.tracks.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		a.selectTrack(index)
	})

	a.details = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	a.details.SetBorder(true).
		SetTitle(" Details ").
		SetTitleAlign(tview.AlignLeft)

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]q:quit  tab:switch pane  enter:open[-]")

	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.tracks, 0, 3, false).
		AddItem(a.details, 7, 1, false)

	columns := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.albums, 0, 1, true).
		AddItem(right, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(columns, 0, 1, true).
		AddItem(a.status, 1, 1, false)

	a.app.SetInputCapture(a.handleKeyEvent)
	a.app.SetRoot(flex, true)
}

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyTab {
		if a.albums.HasFocus() {
			a.app.SetFocus(a.tracks)
		} else {
			a.app.SetFocus(a.albums)
		}
		return nil
	}

	switch event.Rune() {
	case 'q', 'Q':
		a.Stop()
		return nil
	}
	return event
}

// Run starts the browser and blocks until it is closed.
func (a *App) Run(ctx context.Context) error {
	a.ctx, a.cancelFunc = context.WithCancel(ctx)

	go func() {
		<-a.ctx.Done()
		a.app.Stop()
	}()

	a.loadMore()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// Stop stops the TUI application
func (a *App) Stop() {
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	a.app.Stop()
}

// loadMore fetches the next batch of albums in the background. Must run on
// the UI goroutine or before the event loop starts.
func (a *App) loadMore() {
	a.mu.Lock()
	if a.loading || !a.more {
		a.mu.Unlock()
		return
	}
	a.loading = true
	if a.pager == nil {
		a.pager = a.library.AlbumsInLibrary()
	}
	pager := a.pager
	a.mu.Unlock()

	a.status.SetText("[yellow]Loading albums...[-]")

	go func() {
		batch, err := pager.Collect(a.ctx, a.config.BatchSize)
		more := err == nil && len(batch) == a.config.BatchSize
		a.app.QueueUpdateDraw(func() {
			a.appendAlbums(batch, more)
			if err != nil {
				a.showError("Failed to load library", err)
			}
		})
	}()
}

// appendAlbums adds a loaded batch to the album list and ends the load
// started by loadMore. Must run on the UI goroutine.
func (a *App) appendAlbums(batch []*amazonmusic.Album, more bool) {
	// The list calls the changed func while items are inserted, and that
	// func takes mu, so the lock is released before touching the list.
	a.mu.Lock()
	prev := len(a.loaded)
	a.loaded = append(a.loaded, batch...)
	a.more = more
	a.loading = false
	total := len(a.loaded)
	a.mu.Unlock()

	// Drop the previous "load more" placeholder.
	if n := a.albums.GetItemCount(); n > prev {
		a.albums.RemoveItem(n - 1)
	}
	for _, album := range batch {
		a.albums.AddItem(tview.Escape(album.Name), tview.Escape(albumSubtitle(album)), 0, nil)
	}
	if more {
		a.albums.AddItem(loadMoreLabel, "", 0, nil)
	}
	a.status.SetText(fmt.Sprintf("[gray]%d albums  q:quit  tab:switch pane  enter:open[-]", total))
}

// selectAlbum loads the track list of the album at index. Runs on the UI
// goroutine.
func (a *App) selectAlbum(index int) {
	a.mu.Lock()
	if index >= len(a.loaded) {
		a.mu.Unlock()
		a.loadMore()
		return
	}
	if a.opening {
		a.mu.Unlock()
		return
	}
	a.opening = true
	album := a.loaded[index]
	a.mu.Unlock()

	a.status.SetText(fmt.Sprintf("[yellow]Loading %s...[-]", tview.Escape(album.Name)))

	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.config.RequestTimeout)
		defer cancel()

		tracks, err := album.Tracks(ctx)
		a.app.QueueUpdateDraw(func() {
			a.mu.Lock()
			a.opening = false
			a.mu.Unlock()

			if err != nil {
				a.showError("Failed to load tracks", err)
				return
			}
			a.showAlbum(album, tracks)
			a.app.SetFocus(a.tracks)
		})
	}()
}

// showAlbum fills the track list and the details pane. Must run on the UI
// goroutine.
func (a *App) showAlbum(album *amazonmusic.Album, tracks []*amazonmusic.Track) {
	a.mu.Lock()
	a.shown = tracks
	a.mu.Unlock()

	a.tracks.Clear()
	for i, track := range tracks {
		a.tracks.AddItem(tview.Escape(trackLabel(i, track)), "", 0, nil)
	}
	a.details.SetText(albumDetails(album))
	a.status.SetText(fmt.Sprintf("[gray]%d tracks  enter:stream url  tab:albums[-]", len(tracks)))
}

// selectTrack looks up the stream URL of the track at index. Runs on the UI
// goroutine.
func (a *App) selectTrack(index int) {
	a.mu.Lock()
	if index >= len(a.shown) {
		a.mu.Unlock()
		return
	}
	track := a.shown[index]
	a.mu.Unlock()

	a.status.SetText(fmt.Sprintf("[yellow]Resolving %s...[-]", tview.Escape(track.Name)))

	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.config.RequestTimeout)
		defer cancel()

		u, err := track.URL(ctx)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.showError("Failed to resolve stream", err)
				return
			}
			a.details.SetText(trackDetails(track, u))
			a.status.SetText("[green]Stream URL resolved[-]")
		})
	}()
}

// showError reports err in the status bar. Must run on the UI goroutine.
func (a *App) showError(msg string, err error) {
	a.config.Logger.Error().Err(err).Msg(msg)
	a.status.SetText(fmt.Sprintf("[red]%s: %s[-]", msg, tview.Escape(err.Error())))
}

func albumSubtitle(album *amazonmusic.Album) string {
	parts := []string{album.Artist}
	if album.Genre != "" {
		parts = append(parts, album.Genre)
	}
	parts = append(parts, fmt.Sprintf("%d tracks", album.TrackCount))
	return strings.Join(parts, " · ")
}

func trackLabel(index int, track *amazonmusic.Track) string {
	label := fmt.Sprintf("%2d. %s", index+1, track.Name)
	if track.Artist != track.AlbumArtist {
		label += " (" + track.Artist + ")"
	}
	if track.Duration > 0 {
		label += "  " + formatDuration(track.Duration)
	}
	return label
}

func albumDetails(album *amazonmusic.Album) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[white::b]%s[-:-:-]\n", tview.Escape(album.Name)))
	sb.WriteString(fmt.Sprintf("[yellow]%s[-]\n", tview.Escape(album.Artist)))
	if album.ReleaseDate != nil {
		sb.WriteString(fmt.Sprintf("Released %s\n", album.ReleaseDate.Format("2006-01-02")))
	}
	if album.Rating != nil {
		sb.WriteString(fmt.Sprintf("Rating %.1f/5\n", *album.Rating))
	}
	sb.WriteString(fmt.Sprintf("[gray]%s[-]", album.ID))
	return sb.String()
}

func trackDetails(track *amazonmusic.Track, streamURL string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[white::b]%s[-:-:-]\n", tview.Escape(track.Name)))
	sb.WriteString(fmt.Sprintf("[yellow]%s[-]  [gray]%s[-]\n", tview.Escape(track.Artist), tview.Escape(track.Album)))
	sb.WriteString(tview.Escape(streamURL))
	return sb.String()
}

// formatDuration formats a duration as MM:SS or HH:MM:SS for longer durations
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
