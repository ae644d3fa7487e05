package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lmercier/blindtest/internal/artwork"
	"github.com/lmercier/blindtest/internal/auth"
	"github.com/lmercier/blindtest/internal/config"
	"github.com/lmercier/blindtest/internal/errmsg"
	"github.com/lmercier/blindtest/internal/game"
	"github.com/lmercier/blindtest/internal/notify"
	"github.com/lmercier/blindtest/internal/remote"
	"github.com/lmercier/blindtest/internal/store"
)

const loginTimeout = 5 * time.Minute

type app struct {
	cfg      config.SpotifyConfig
	gameCfg  config.GameConfig
	st       *store.Store
	notifier notify.Notifier
	session  *auth.Session
	link     *remote.Link
	api      *remote.APIClient
	artCache *artwork.Cache
	artFetch *artwork.Fetcher
	in       *bufio.Reader
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasClientID() {
		return fmt.Errorf("no spotify.client_id configured; see config.toml")
	}
	spotifyCfg := cfg.GetSpotifyConfig()
	if spotifyCfg.LinkURL == "" {
		return fmt.Errorf("no spotify.link_url configured; see config.toml")
	}

	st, err := store.Open()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	notifier, err := notify.New()
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}

	session, err := auth.New(spotifyCfg, st)
	if err != nil {
		return err
	}

	artCache := artwork.NewCache()

	a := &app{
		cfg:      spotifyCfg,
		gameCfg:  cfg.Game,
		st:       st,
		notifier: notifier,
		session:  session,
		link:     remote.NewLink(spotifyCfg.LinkURL, spotifyCfg.Timeout()),
		api:      remote.NewAPIClient(spotifyCfg.APIURL, session, spotifyCfg.Timeout()),
		artCache: artCache,
		artFetch: artwork.NewFetcher(artCache, spotifyCfg.Timeout()),
		in:       bufio.NewReader(os.Stdin),
	}
	defer a.link.Close()

	ctx := context.Background()

	if err := a.ensureLogin(ctx); err != nil {
		return err
	}

	playlistID, sourceLink, err := a.choosePlaylist(os.Args[1:])
	if err != nil {
		return err
	}

	roster, err := a.promptRoster()
	if err != nil {
		return err
	}

	return a.playGame(ctx, playlistID, sourceLink, roster)
}

// ensureLogin refreshes the persisted session when possible and runs the
// interactive PKCE flow when it is not.
func (a *app) ensureLogin(ctx context.Context) error {
	err := a.session.EnsureValid(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, auth.ErrLoginRequired) {
		// A refresh was attempted and failed; fall back to a new login.
		fmt.Println(errmsg.Format(errmsg.OpTokenRefresh, err))
	}

	server, err := auth.StartCallbackServer(a.cfg.RedirectPort)
	if err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}
	defer server.Shutdown()

	authURL, err := a.session.AuthorizationURL()
	if err != nil {
		return err
	}

	fmt.Println("Log in to Spotify to start:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	if err := auth.WriteLoginQR(os.Stdout, authURL); err == nil {
		fmt.Println("Scan the QR code or open the link above.")
	}
	_ = auth.OpenBrowser(authURL)

	select {
	case result := <-server.ResultChan():
		if result.Code == "" {
			a.notifyError(errmsg.Format(errmsg.OpLogin, fmt.Errorf("provider error: %s", result.Err)))
			return fmt.Errorf("authorization failed: %s", result.Err)
		}
		if err := a.session.ExchangeCode(ctx, result.Code); err != nil {
			a.notifyError(errmsg.Format(errmsg.OpLogin, err))
			return err
		}
		fmt.Println("Logged in.")
		return nil
	case <-time.After(loginTimeout):
		return fmt.Errorf("authorization timed out")
	}
}

// choosePlaylist takes a link from the command line when given one,
// otherwise offers the history and prompts for a pasted link.
func (a *app) choosePlaylist(args []string) (id, sourceLink string, err error) {
	if len(args) > 0 {
		if playlistID, ok := game.ExtractPlaylistID(args[0]); ok {
			return playlistID, args[0], nil
		}
		fmt.Println("Invalid Spotify playlist link")
	}

	history, err := a.st.GetPlaylistHistory()
	if err != nil {
		fmt.Println(errmsg.Format(errmsg.OpStateLoad, err))
	}
	if len(history) > 0 {
		fmt.Println("Recent playlists:")
		for i, ref := range history {
			fmt.Printf("  %d. %s\n", i+1, ref.Name)
		}
	}

	for {
		fmt.Print("Playlist link (or number from history): ")
		line, readErr := a.in.ReadString('\n')
		if readErr != nil {
			return "", "", readErr
		}
		line = strings.TrimSpace(line)

		if n, convErr := strconv.Atoi(line); convErr == nil && n >= 1 && n <= len(history) {
			ref := history[n-1]
			return ref.ID, ref.SourceLink, nil
		}

		if playlistID, ok := game.ExtractPlaylistID(line); ok {
			return playlistID, line, nil
		}

		fmt.Println("Invalid Spotify playlist link")
	}
}

// promptRoster reads player names, prefilled from the last game.
func (a *app) promptRoster() (*game.Roster, error) {
	prefill, err := a.st.GetRosterPrefill()
	if err != nil {
		fmt.Println(errmsg.Format(errmsg.OpStateLoad, err))
	}

	for {
		if len(prefill) > 0 {
			fmt.Printf("Players [%s]: ", strings.Join(prefill, ", "))
		} else {
			fmt.Print("Players (comma-separated): ")
		}
		line, readErr := a.in.ReadString('\n')
		if readErr != nil {
			return nil, readErr
		}
		line = strings.TrimSpace(line)

		names := prefill
		if line != "" {
			names = nil
			for _, name := range strings.Split(line, ",") {
				names = append(names, strings.TrimSpace(name))
			}
		}

		roster, rosterErr := game.NewRoster(names)
		if rosterErr != nil {
			fmt.Println(errmsg.Format(errmsg.OpGameStart, rosterErr))
			continue
		}

		if saveErr := a.st.SaveRosterPrefill(roster.Names()); saveErr != nil {
			fmt.Println(errmsg.Format(errmsg.OpStateSave, saveErr))
		}
		return roster, nil
	}
}

func (a *app) playGame(ctx context.Context, playlistID, sourceLink string, roster *game.Roster) error {
	fmt.Println("Connecting to the playback device...")
	if err := a.link.Connect(ctx); err != nil {
		a.notifyError(errmsg.Format(errmsg.OpLinkConnect, err))
		return err
	}

	engine := game.NewEngine(roster, &reconnectingCommander{link: a.link}, a.artCache, game.Capabilities{
		SkipWhilePaused:   a.gameCfg.SkipWhilePaused,
		SkipWhileRevealed: a.gameCfg.SkipWhileRevealed,
	})
	defer engine.Close()

	// Forward link events into the engine; the push stream is the source
	// of truth for what is playing.
	linkSub := a.link.Subscribe()
	go func() {
		for {
			select {
			case st := <-linkSub.States:
				engine.HandlePlayerState(st)
			case <-linkSub.Done:
				return
			}
		}
	}()

	uiSub := engine.Subscribe()
	go a.printEvents(ctx, uiSub, engine)

	if err := a.link.PlayPlaylist(playlistID, true); err != nil {
		a.notifyError(errmsg.Format(errmsg.OpPlayback, err))
		return err
	}

	// Record the playlist with its fetched name; history stays usable
	// even when the metadata fetch fails.
	go a.recordPlaylist(ctx, playlistID, sourceLink)

	// Seed the engine with a snapshot so the progress clock starts from
	// the reported position rather than zero.
	go func() {
		snapCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout())
		defer cancel()
		if st, err := a.link.PlayerState(snapCtx); err == nil {
			engine.HandlePlayerState(*st)
		}
	}()

	fmt.Printf("Game on! %s starts.\n", roster.Player(0))
	printHelp()
	return a.commandLoop(engine)
}

func (a *app) commandLoop(engine *game.Engine) error {
	for {
		fmt.Print("> ")
		line, err := a.in.ReadString('\n')
		if err != nil {
			return nil // stdin closed ends the game
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var actionErr error
		switch fields[0] {
		case "b", "buzz":
			actionErr = engine.Buzz()
		case "r", "reveal":
			actionErr = engine.Reveal()
		case "n", "next":
			actionErr = engine.NextTurn()
		case "s", "skip":
			actionErr = engine.Skip()
		case "+", "++", "-", "--":
			if len(fields) < 2 {
				fmt.Println("usage: + <player>")
				continue
			}
			delta := map[string]int{"+": 1, "++": 2, "-": -1, "--": -2}[fields[0]]
			player := strings.Join(fields[1:], " ")
			if err := engine.Board().Increment(player, delta); err != nil {
				fmt.Println(errmsg.Format(errmsg.OpScore, err))
				continue
			}
			a.printScores(engine)
		case "scores":
			a.printScores(engine)
		case "status":
			a.printStatus(engine)
		case "h", "help":
			printHelp()
		case "q", "quit":
			return nil
		default:
			fmt.Printf("unknown command %q (h for help)\n", fields[0])
		}

		if actionErr != nil {
			fmt.Println(errmsg.Format(errmsg.OpPlayback, actionErr))
		}
	}
}

// printEvents narrates engine events. Track changes only announce that a
// new track started; the name stays hidden until a reveal.
func (a *app) printEvents(ctx context.Context, sub *game.Subscription, engine *game.Engine) {
	for {
		select {
		case e := <-sub.TrackChanged:
			if e.Current != nil {
				a.artFetch.Preload(ctx, e.Current.ArtworkRef)
			}
			status := engine.Status()
			fmt.Printf("\n♫ New track — %s's turn. Buzz when you know it!\n> ", status.Player)
		case e := <-sub.Revealed:
			if e.Track != nil {
				a.artFetch.Fetch(ctx, e.Track.ArtworkRef) // warm for any display layer
				fmt.Printf("\n♪ %s — %s\n> ", e.Track.Name, e.Track.ArtistName)
			}
		case e := <-sub.TurnChanged:
			fmt.Printf("\n→ %s is up.\n> ", e.Player)
		case <-sub.PhaseChanged:
			// Phase flips are visible through the prompt flow already.
		case <-sub.Done:
			return
		}
	}
}

func (a *app) recordPlaylist(ctx context.Context, playlistID, sourceLink string) {
	name := playlistID
	fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout())
	defer cancel()
	if info, err := a.api.GetPlaylist(fetchCtx, playlistID); err == nil {
		name = info.Name
	} else {
		fmt.Println(errmsg.FormatWith(errmsg.OpPlaylistFetch, playlistID, err))
	}
	if err := a.st.AddPlaylistToHistory(store.PlaylistRef{
		ID:         playlistID,
		Name:       name,
		SourceLink: sourceLink,
	}); err != nil {
		fmt.Println(errmsg.Format(errmsg.OpPlaylistHistory, err))
	}
}

func (a *app) printScores(engine *game.Engine) {
	leaders := make(map[string]bool)
	for _, name := range engine.Board().Leaders() {
		leaders[name] = true
	}
	for _, row := range engine.Board().Scores() {
		marker := "  "
		if leaders[row.Player] {
			marker = "★ "
		}
		fmt.Printf("%s%-20s %d\n", marker, row.Player, row.Score)
	}
}

func (a *app) printStatus(engine *game.Engine) {
	status := engine.Status()
	fmt.Printf("%s — %s's turn", status.Phase, status.Player)
	if status.Track != nil {
		fmt.Printf(" (%s / %s)", formatDuration(status.Elapsed), formatDuration(status.Track.Duration))
	}
	fmt.Println()
}

func (a *app) notifyError(msg string) {
	fmt.Println(msg)
	_, _ = a.notifier.Notify(notify.Notification{
		Title:   "Blindtest",
		Body:    msg,
		Timeout: -1,
		Urgency: notify.UrgencyNormal,
	})
}

func printHelp() {
	fmt.Println(`Commands:
  b  buzz (pause/resume the track)
  r  reveal the track (after a buzz)
  n  next turn (after a reveal)
  s  skip this track
  +  <player> / ++ <player>   award 1 or 2 points
  -  <player> / -- <player>   deduct 1 or 2 points
  scores | status | h | q`)
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

// reconnectingCommander retries a failed command once after an
// opportunistic reconnect, matching the resume-from-background behavior
// of the app this game descends from.
type reconnectingCommander struct {
	link *remote.Link
}

func (c *reconnectingCommander) Pause() error    { return c.retry(c.link.Pause) }
func (c *reconnectingCommander) Resume() error   { return c.retry(c.link.Resume) }
func (c *reconnectingCommander) SkipNext() error { return c.retry(c.link.SkipNext) }

func (c *reconnectingCommander) retry(fn func() error) error {
	err := fn()
	if err == nil || c.link.Connected() {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cerr := c.link.Connect(ctx); cerr != nil {
		return err
	}
	return fn()
}
