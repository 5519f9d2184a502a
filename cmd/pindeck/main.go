// Package main provides the CLI entrypoint for pindeck.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pindeck/pindeck/internal/backup"
	"github.com/pindeck/pindeck/internal/config"
	"github.com/pindeck/pindeck/internal/export"
	"github.com/pindeck/pindeck/internal/lane"
	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/scoring"
	"github.com/pindeck/pindeck/internal/session"
	"github.com/pindeck/pindeck/internal/sheet"
	"github.com/pindeck/pindeck/internal/stats"
	"github.com/pindeck/pindeck/internal/statsui"
	"github.com/pindeck/pindeck/internal/store"
	"github.com/pindeck/pindeck/internal/tui"
)

const (
	defaultLaneName = "left"
	defaultBall     = ""
)

var (
	playSet    string
	playCenter string
	playLane   string
	playBall   string

	editGameID string

	exportOut string

	backupRemoteURL string
	restoreName     string
	listRemoteFlag  bool
	savePushFlag    bool

	arsenalAdd string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pindeck",
		Short:         "Bowling delivery tracker and scorer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playSet, "set", "", "set name or id (default: the most recent set)")
	rootCmd.Flags().StringVar(&playCenter, "center", "", "bowling center for a new set")
	rootCmd.Flags().StringVar(&playLane, "lane", defaultLaneName, "starting lane for a new game (left or right)")
	rootCmd.Flags().StringVar(&playBall, "ball", defaultBall, "ball preselected for each delivery")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newSetsCmd())
	rootCmd.AddCommand(newGamesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newArsenalCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "lane", &playLane, fileCfg.Play.StartingLane)
	applyStringConfig(cmd, "ball", &playBall, fileCfg.Play.DefaultBall)
	applyStringConfig(cmd, "center", &playCenter, fileCfg.Play.Center)

	startingLane, err := parseLane(playLane)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	set, err := resolveOrCreateSet(ctx, st, playSet, playCenter)
	if err != nil {
		return err
	}
	game, led, err := resumeOrCreateGame(ctx, st, set.ID, startingLane)
	if err != nil {
		return err
	}

	cfg := model.Config{
		StartingLane: startingLane,
		DefaultBall:  playBall,
		Center:       set.Center,
	}
	if fileCfg.Backup.RemoteURL != nil {
		cfg.RemoteURL = *fileCfg.Backup.RemoteURL
	}

	arsenal, err := st.ListArsenal(ctx)
	if err != nil {
		return err
	}
	entry := tui.NewModel(cfg, st, set, game, led, arsenal)
	program := tea.NewProgram(entry, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveOrCreateSet finds a set by id or exact name, falls back to the most
// recent set when no key is given, and creates a new set otherwise.
func resolveOrCreateSet(ctx context.Context, st *store.Store, key, center string) (model.Set, error) {
	sets, err := st.ListSets(ctx)
	if err != nil {
		return model.Set{}, err
	}
	if key == "" {
		if len(sets) > 0 {
			return sets[0], nil
		}
		name := "Session " + time.Now().Format("2006-01-02")
		return st.CreateSet(ctx, name, center)
	}
	for _, s := range sets {
		if s.ID == key || s.Name == key {
			return s, nil
		}
	}
	return st.CreateSet(ctx, key, center)
}

// resumeOrCreateGame keeps entering into an unfinished game, otherwise starts
// the next game on the opposite lane of the previous one.
func resumeOrCreateGame(ctx context.Context, st *store.Store, setID string, startingLane model.Lane) (model.Game, *ledger.Ledger, error) {
	prev, found, err := st.LatestGame(ctx, setID)
	if err != nil {
		return model.Game{}, nil, err
	}
	if found {
		led, err := st.LoadLedger(ctx, prev.ID)
		if err != nil {
			return model.Game{}, nil, err
		}
		if !session.Derive(led).GameOver {
			return prev, led, nil
		}
		startingLane = lane.NextGameStart(prev.StartingLane)
	}

	game, err := st.CreateGame(ctx, setID, startingLane)
	if err != nil {
		return model.Game{}, nil, err
	}
	led, err := ledger.New(game.ID, nil)
	if err != nil {
		return model.Game{}, nil, err
	}
	return game, led, nil
}

func parseLane(value string) (model.Lane, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "left", strings.ToLower(string(model.LaneLeft)):
		return model.LaneLeft, nil
	case "right", strings.ToLower(string(model.LaneRight)):
		return model.LaneRight, nil
	}
	return "", fmt.Errorf("invalid lane %q (use left or right)", value)
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [game-id]",
		Short: "Print a game's score sheet",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScoreCmd,
	}
}

func runScoreCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	var game model.Game
	if len(args) == 1 {
		game, err = st.GetGame(ctx, args[0])
		if err != nil {
			return err
		}
	} else {
		set, err := resolveOrCreateSet(ctx, st, "", "")
		if err != nil {
			return err
		}
		latest, found, err := st.LatestGame(ctx, set.ID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no games recorded yet")
		}
		game = latest
	}

	led, err := st.LoadLedger(ctx, game.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "game %d • starting on %s\n", game.Number, game.StartingLane)
	fmt.Fprintln(out, sheet.Render(scoring.Score(led), sheet.TerminalWidth()))
	return nil
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <frame> <shot> [standing-pins]",
		Short: "Correct a recorded delivery's leave (e.g. edit 5 2 \"7,10\")",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  runEditCmd,
	}
	cmd.Flags().StringVar(&editGameID, "game", "", "game id (default: the most recent game)")
	return cmd
}

func runEditCmd(cmd *cobra.Command, args []string) error {
	frame, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid frame %q", args[0])
	}
	shot, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid shot %q", args[1])
	}
	var standing model.PinSet
	if len(args) == 3 {
		standing, err = model.ParsePinSet(args[2])
		if err != nil {
			return fmt.Errorf("invalid standing pins %q: %w", args[2], err)
		}
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	gameID := editGameID
	if gameID == "" {
		set, err := resolveSetArg(ctx, st, nil)
		if err != nil {
			return err
		}
		latest, found, err := st.LatestGame(ctx, set.ID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no games recorded yet")
		}
		gameID = latest.ID
	}

	led, err := st.LoadLedger(ctx, gameID)
	if err != nil {
		return err
	}
	amended, repl, err := session.Amend(led, frame, shot, standing)
	if err != nil {
		return err
	}
	if err := st.ReplaceDelivery(ctx, repl); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sheet.Render(scoring.Score(amended), sheet.TerminalWidth()))
	return nil
}

func newSetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List sets",
		Args:  cobra.NoArgs,
		RunE:  runSetsCmd,
	}
}

func runSetsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	sets, err := st.ListSets(context.Background())
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		logErrln("No sets recorded yet. Start one with: pindeck --set <name>")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, s := range sets {
		line := s.Name
		if s.Center != "" {
			line += " @ " + s.Center
		}
		fmt.Fprintf(out, "%s  %s  (%s)\n", s.CreatedAt.Local().Format("2006-01-02"), line, s.ID)
	}
	return nil
}

func newGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games [set]",
		Short: "List a set's games with totals",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGamesCmd,
	}
}

func runGamesCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	set, err := resolveSetArg(ctx, st, args)
	if err != nil {
		return err
	}
	report, err := stats.BuildReport(ctx, st, set.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(report.Games) == 0 {
		logErrln("No games in this set yet.")
		return nil
	}
	fmt.Fprint(out, sheet.SetTable(report))
	return nil
}

// resolveSetArg resolves an optional positional set key, failing instead of
// creating when the key is unknown.
func resolveSetArg(ctx context.Context, st *store.Store, args []string) (model.Set, error) {
	sets, err := st.ListSets(ctx)
	if err != nil {
		return model.Set{}, err
	}
	if len(args) == 0 {
		if len(sets) == 0 {
			return model.Set{}, fmt.Errorf("no sets recorded yet")
		}
		return sets[0], nil
	}
	for _, s := range sets {
		if s.ID == args[0] || s.Name == args[0] {
			return s, nil
		}
	}
	return model.Set{}, fmt.Errorf("unknown set %q", args[0])
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [set]",
		Short: "Open the set dashboard",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatsCmd,
	}
}

func runStatsCmd(_ *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	set, err := resolveSetArg(ctx, st, args)
	if err != nil {
		return err
	}
	dashboard, err := statsui.NewModel(ctx, st, set.ID)
	if err != nil {
		return err
	}
	program := tea.NewProgram(dashboard, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [set]",
		Short: "Export a set as a JSON analysis bundle",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	set, err := resolveSetArg(ctx, st, args)
	if err != nil {
		return err
	}
	bundle, err := export.Build(ctx, st, set.ID)
	if err != nil {
		return err
	}

	if exportOut == "" {
		return export.WriteJSON(cmd.OutOrStdout(), bundle)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	if err := export.WriteJSON(f, bundle); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", exportOut, err)
	}
	logErrf("Wrote %s\n", exportOut)
	return nil
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Save and restore sets as CSV backups",
	}
	cmd.PersistentFlags().StringVar(&backupRemoteURL, "remote", "", "remote archive URL (default: from config)")

	saveCmd := &cobra.Command{
		Use:   "save [set]",
		Short: "Write a set's backup file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBackupSaveCmd,
	}
	saveCmd.Flags().BoolVar(&savePushFlag, "push", false, "also upload the backup to the remote archive")

	restoreCmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Recreate a set from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupRestoreCmd,
	}
	restoreCmd.Flags().StringVar(&restoreName, "name", "", "name for the restored set (default: derived from the file)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List backup files",
		Args:  cobra.NoArgs,
		RunE:  runBackupListCmd,
	}
	listCmd.Flags().BoolVar(&listRemoteFlag, "remote", false, "list the remote archive instead of local backups")

	pullCmd := &cobra.Command{
		Use:   "pull <name>",
		Short: "Download a backup from the remote archive",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupPullCmd,
	}

	cmd.AddCommand(saveCmd, restoreCmd, listCmd, pullCmd)
	return cmd
}

func remoteFromConfig() (*backup.Remote, error) {
	url := backupRemoteURL
	if url == "" {
		fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if fileCfg.Backup.RemoteURL != nil {
			url = *fileCfg.Backup.RemoteURL
		}
	}
	if url == "" {
		return nil, fmt.Errorf("no remote archive configured (set backup.remote-url or pass --remote)")
	}
	return backup.NewRemote(url)
}

func runBackupSaveCmd(_ *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	set, err := resolveSetArg(ctx, st, args)
	if err != nil {
		return err
	}
	path, err := backup.Save(ctx, st, set.ID, config.DefaultBackupDir())
	if err != nil {
		return err
	}
	logErrf("Wrote %s\n", path)

	if savePushFlag {
		remote, err := remoteFromConfig()
		if err != nil {
			return err
		}
		if err := remote.Push(ctx, path); err != nil {
			return fmt.Errorf("failed to push backup: %w", err)
		}
		logErrln("Pushed to remote archive")
	}
	return nil
}

func runBackupRestoreCmd(_ *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	path := args[0]
	if _, err := os.Stat(path); os.IsNotExist(err) {
		candidate := filepath.Join(config.DefaultBackupDir(), path)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	name := restoreName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".csv")
	}
	set, err := backup.Restore(context.Background(), st, path, name, "")
	if err != nil {
		return err
	}
	logErrf("Restored %s as %s\n", filepath.Base(path), set.ID)
	return nil
}

func runBackupListCmd(cmd *cobra.Command, _ []string) error {
	var names []string
	var err error
	if listRemoteFlag {
		remote, rerr := remoteFromConfig()
		if rerr != nil {
			return rerr
		}
		names, err = remote.ListRemote(context.Background())
	} else {
		names, err = backup.List(config.DefaultBackupDir())
	}
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logErrln("No backups found. Create one with: pindeck backup save")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

func runBackupPullCmd(_ *cobra.Command, args []string) error {
	remote, err := remoteFromConfig()
	if err != nil {
		return err
	}
	path, err := remote.Pull(context.Background(), args[0], config.DefaultBackupDir())
	if err != nil {
		return err
	}
	logErrf("Wrote %s\n", path)
	return nil
}

func newArsenalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arsenal",
		Short: "List or extend the ball arsenal",
		Args:  cobra.NoArgs,
		RunE:  runArsenalCmd,
	}
	cmd.Flags().StringVar(&arsenalAdd, "add", "", "add a ball to the arsenal")
	return cmd
}

func runArsenalCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	if arsenalAdd != "" {
		if err := st.AddBall(ctx, arsenalAdd); err != nil {
			return err
		}
	}
	balls, err := st.ListArsenal(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, ball := range balls {
		fmt.Fprintln(out, ball)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return `# pindeck configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# starting-lane = "left"    # Lane of frame 1 for a new game (left or right)
# default-ball = ""         # Ball preselected for each delivery
# center = ""               # Bowling center for new sets

[backup]
# remote-url = ""           # HTTP archive for pushed backups
`
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
