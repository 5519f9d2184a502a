// Package backup saves and restores sets as CSV files, locally and
// against an optional remote archive.
package backup

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pindeck/pindeck/internal/ledger"
	"github.com/pindeck/pindeck/internal/model"
	"github.com/pindeck/pindeck/internal/store"
)

var csvHeader = []string{
	"game_number", "starting_lane", "frame", "shot", "pins_down",
	"pins_standing", "lane", "split", "ball", "arrows_pos",
	"breakpoint_pos", "reaction", "created_at",
}

// FileName builds the backup file name for a set.
func FileName(set model.Set) string {
	parts := []string{"set", slug(set.Name)}
	if set.Center != "" {
		parts = append(parts, slug(set.Center))
	}
	parts = append(parts, set.ID)
	return strings.Join(parts, "-") + ".csv"
}

func slug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Save writes every delivery of a set into dir and returns the file path.
func Save(ctx context.Context, st *store.Store, setID, dir string) (string, error) {
	set, err := st.GetSet(ctx, setID)
	if err != nil {
		return "", err
	}
	games, err := st.ListGames(ctx, setID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "set-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp backup: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	w := csv.NewWriter(tmpFile)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, game := range games {
		deliveries, err := st.LoadDeliveries(ctx, game.ID)
		if err != nil {
			return "", err
		}
		for _, d := range deliveries {
			record := []string{
				strconv.Itoa(game.Number),
				string(game.StartingLane),
				strconv.Itoa(d.Frame),
				strconv.Itoa(d.Shot),
				strconv.Itoa(d.PinsDown),
				d.Standing.String(),
				string(d.Lane),
				d.SplitName,
				d.Equipment.Ball,
				strconv.Itoa(d.Equipment.ArrowsPos),
				strconv.Itoa(d.Equipment.BreakpointPos),
				d.Equipment.Reaction,
				d.CreatedAt.UTC().Format(time.RFC3339Nano),
			}
			if err := w.Write(record); err != nil {
				return "", fmt.Errorf("failed to write record: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush backup: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp backup: %w", err)
	}

	destPath := filepath.Join(dir, FileName(set))
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("failed to move backup into place: %w", err)
	}
	return destPath, nil
}

// Restore reads a backup file and recreates it as a new set. Malformed
// rows surface as a RestoreError so callers can tell corrupt backups
// apart from storage failures.
func Restore(ctx context.Context, st *store.Store, path, name, center string) (model.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Set{}, fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return model.Set{}, &ledger.RestoreError{Err: fmt.Errorf("malformed csv: %w", err)}
	}
	if len(records) == 0 || len(records[0]) != len(csvHeader) {
		return model.Set{}, &ledger.RestoreError{Err: fmt.Errorf("missing backup header")}
	}

	byGame := map[int][]model.Delivery{}
	startingLanes := map[int]model.Lane{}
	for i, record := range records[1:] {
		gameNumber, d, lane, err := parseRecord(record)
		if err != nil {
			return model.Set{}, &ledger.RestoreError{Err: fmt.Errorf("row %d: %w", i+2, err)}
		}
		byGame[gameNumber] = append(byGame[gameNumber], d)
		startingLanes[gameNumber] = lane
	}

	numbers := make([]int, 0, len(byGame))
	for n := range byGame {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	set, err := st.CreateSet(ctx, name, center)
	if err != nil {
		return model.Set{}, err
	}
	for _, n := range numbers {
		game, err := st.CreateGame(ctx, set.ID, startingLanes[n])
		if err != nil {
			return model.Set{}, err
		}
		if _, err := ledger.New(game.ID, byGame[n]); err != nil {
			return model.Set{}, &ledger.RestoreError{GameID: game.ID, Err: err}
		}
		for _, d := range byGame[n] {
			d.GameID = game.ID
			if _, err := st.AppendDelivery(ctx, d); err != nil {
				return model.Set{}, err
			}
		}
	}
	return set, nil
}

func parseRecord(record []string) (int, model.Delivery, model.Lane, error) {
	if len(record) != len(csvHeader) {
		return 0, model.Delivery{}, "", fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(record))
	}
	gameNumber, err := strconv.Atoi(record[0])
	if err != nil {
		return 0, model.Delivery{}, "", fmt.Errorf("bad game number %q", record[0])
	}
	startingLane := model.Lane(record[1])
	if !startingLane.Valid() {
		return 0, model.Delivery{}, "", fmt.Errorf("bad starting lane %q", record[1])
	}
	frame, err := strconv.Atoi(record[2])
	if err != nil {
		return 0, model.Delivery{}, "", fmt.Errorf("bad frame %q", record[2])
	}
	shot, err := strconv.Atoi(record[3])
	if err != nil {
		return 0, model.Delivery{}, "", fmt.Errorf("bad shot %q", record[3])
	}
	pinsDown, err := strconv.Atoi(record[4])
	if err != nil {
		return 0, model.Delivery{}, "", fmt.Errorf("bad pins down %q", record[4])
	}
	standing, err := model.ParsePinSet(record[5])
	if err != nil {
		return 0, model.Delivery{}, "", fmt.Errorf("bad standing pins %q: %w", record[5], err)
	}
	lane := model.Lane(record[6])
	if !lane.Valid() {
		return 0, model.Delivery{}, "", fmt.Errorf("bad lane %q", record[6])
	}
	arrowsPos, err := parseIntField(record[9])
	if err != nil {
		return 0, model.Delivery{}, "", fmt.Errorf("bad arrows position %q", record[9])
	}
	breakpointPos, err := parseIntField(record[10])
	if err != nil {
		return 0, model.Delivery{}, "", fmt.Errorf("bad breakpoint position %q", record[10])
	}
	createdAt, err := time.Parse(time.RFC3339Nano, record[12])
	if err != nil {
		return 0, model.Delivery{}, "", fmt.Errorf("bad timestamp %q", record[12])
	}

	d := model.Delivery{
		Frame:     frame,
		Shot:      shot,
		PinsDown:  pinsDown,
		Standing:  standing,
		Lane:      lane,
		SplitName: record[7],
		Equipment: model.Equipment{
			Ball:          record[8],
			ArrowsPos:     arrowsPos,
			BreakpointPos: breakpointPos,
			Reaction:      record[11],
		},
		CreatedAt: createdAt,
	}
	return gameNumber, d, startingLane, nil
}

func parseIntField(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// List returns backup file names under dir, newest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}
	type fileInfo struct {
		name    string
		modTime time.Time
	}
	files := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{name: entry.Name(), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}
