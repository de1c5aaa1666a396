// Package sample writes synthetic inventory, application and terms exports
// for trying the lottery end to end.
package sample

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jaykayes/lottery-script/internal/adapters/intake"
	"github.com/jaykayes/lottery-script/internal/config"
	"github.com/jaykayes/lottery-script/pkg/logger"
)

// File names written by Write.
const (
	InventoryFile    = "inventory.csv"
	ApplicationsFile = "applications.csv"
	TermsFile        = "terms.csv"
)

// TimestampLayout is the form export timestamp format.
const TimestampLayout = "2006/01/02 15:04:05"

// Default generator settings.
const (
	defaultApplicants = 40
	defaultTermsShare = 0.9
	resubmitShare     = 0.1
	lateShare         = 0.05
	maxRequests       = 4
)

var firstNames = []string{
	"Anna", "Bjorn", "Carla", "Didrik", "Eva", "Frode", "Gro", "Hakon",
	"Ingrid", "Jonas", "Kari", "Lars", "Marit", "Nils", "Oda", "Per",
}

var lastNames = []string{
	"Berg", "Dahl", "Hansen", "Lie", "Moe", "Nilsen", "Strand", "Vik",
}

// stockItem is one generated catalog row.
type stockItem struct {
	name  string
	stock int
}

// Config tunes the generated lottery.
type Config struct {
	Applicants int
	Seed       uint64
	// TermsShare is the fraction of applicants listed in the terms export.
	TermsShare float64
	// Now anchors the application window; zero means time.Now.
	Now          time.Time
	DeadlineHour int
	Period       time.Duration
	Pools        []config.PoolConfig
	Groups       []config.GroupConfig
	Logger       logger.Logger
}

// Files are the paths Write produced.
type Files struct {
	Inventory    string
	Applications string
	Terms        string
}

// FromConfig takes pools, groups and the window from cfg.
func FromConfig(cfg *config.Config, applicants int, seed uint64) Config {
	return Config{
		Applicants:   applicants,
		Seed:         seed,
		DeadlineHour: cfg.DeadlineHour,
		Period:       cfg.ApplicationPeriod,
		Pools:        cfg.Pools,
		Groups:       cfg.Groups,
	}
}

func (c *Config) applyDefaults() {
	if c.Applicants <= 0 {
		c.Applicants = defaultApplicants
	}
	if c.TermsShare <= 0 || c.TermsShare > 1 {
		c.TermsShare = defaultTermsShare
	}
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	if c.Period <= 0 {
		c.Period = 14 * 24 * time.Hour
	}
	if c.Pools == nil {
		c.Pools = config.DefaultPools()
	}
	if c.Groups == nil {
		c.Groups = config.DefaultGroups()
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
}

// Write generates the three exports into dir. Identical configs produce
// identical files.
func Write(ctx context.Context, dir string, cfg Config) (Files, error) {
	cfg.applyDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("sample dir: %w", err)
	}
	files := Files{
		Inventory:    filepath.Join(dir, InventoryFile),
		Applications: filepath.Join(dir, ApplicationsFile),
		Terms:        filepath.Join(dir, TermsFile),
	}

	sections := inventory(cfg)
	ids := make(map[string][]int, len(sections))
	if err := writeCSV(files.Inventory, func(w *csv.Writer) error {
		return writeInventory(w, cfg.Pools, sections, ids)
	}); err != nil {
		return Files{}, err
	}

	people := applicants(rng, cfg.Applicants)
	if err := writeCSV(files.Applications, func(w *csv.Writer) error {
		return writeApplications(ctx, w, rng, cfg, people, ids)
	}); err != nil {
		return Files{}, err
	}
	if err := writeCSV(files.Terms, func(w *csv.Writer) error {
		return writeTerms(w, rng, cfg.TermsShare, people)
	}); err != nil {
		return Files{}, err
	}

	cfg.Logger.Info(ctx, "sample written",
		logger.String("dir", dir),
		logger.Int("applicants", len(people)),
		logger.Int("pools", len(cfg.Pools)),
	)
	return files, nil
}

// inventory builds the rows of every pool. Group names are included so the
// configured groups match.
func inventory(cfg Config) map[string][]stockItem {
	out := make(map[string][]stockItem, len(cfg.Pools))
	for _, p := range cfg.Pools {
		out[p.Name] = []stockItem{{"Tent 2p", 2}, {"Stove", 3}, {"Sled", 1}}
	}
	for _, g := range cfg.Groups {
		for i, name := range g.Primary {
			out[g.Pool] = append(out[g.Pool], stockItem{name, 1 + i%2})
		}
		for _, name := range g.Dependent {
			out[g.Pool] = append(out[g.Pool], stockItem{name + " 42", 2})
		}
	}
	return out
}

func writeInventory(w *csv.Writer, pools []config.PoolConfig, sections map[string][]stockItem, ids map[string][]int) error {
	if err := w.Write([]string{intake.ColName, intake.ColNumber}); err != nil {
		return err
	}
	line := 1
	for _, p := range pools {
		line++
		if err := w.Write([]string{p.Name + " Container:", ""}); err != nil {
			return err
		}
		for _, it := range sections[p.Name] {
			line++
			if err := w.Write([]string{it.name, strconv.Itoa(it.stock)}); err != nil {
				return err
			}
			ids[p.Name] = append(ids[p.Name], line)
		}
	}
	return nil
}

type person struct {
	name     string
	username string
}

func applicants(rng *rand.Rand, n int) []person {
	seen := make(map[string]bool, n)
	out := make([]person, 0, n)
	for len(out) < n {
		name := firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
		if seen[name] {
			name = fmt.Sprintf("%s %d", name, len(out))
		}
		seen[name] = true
		user := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.org"
		out = append(out, person{name: name, username: user})
	}
	return out
}

func writeApplications(ctx context.Context, w *csv.Writer, rng *rand.Rand, cfg Config, people []person, ids map[string][]int) error {
	header := []string{intake.ColTimestamp, intake.ColUsername, intake.ColName}
	for _, p := range cfg.Pools {
		header = append(header, p.Column)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	window := intake.DefaultWindow(cfg.Now, cfg.DeadlineHour, cfg.Period)
	span := window.Deadline.Sub(window.Opening)
	for _, p := range people {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during sample generation: %w", ctx.Err())
		default:
		}

		submissions := 1
		if rng.Float64() < resubmitShare {
			submissions = 2
		}
		for s := 0; s < submissions; s++ {
			ts := window.Opening.Add(time.Duration(rng.Int64N(int64(span))))
			if rng.Float64() < lateShare {
				ts = window.Deadline.Add(time.Duration(rng.Int64N(int64(time.Hour))))
			}
			row := []string{ts.Format(TimestampLayout), p.username, p.name}
			for _, pool := range cfg.Pools {
				row = append(row, pick(rng, ids[pool.Name]))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// pick lists up to maxRequests distinct ids, form style ("3, 7,").
func pick(rng *rand.Rand, ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	n := rng.IntN(min(maxRequests, len(ids)) + 1)
	var b strings.Builder
	for _, i := range rng.Perm(len(ids))[:n] {
		b.WriteString(strconv.Itoa(ids[i]))
		b.WriteString(", ")
	}
	return b.String()
}

func writeTerms(w *csv.Writer, rng *rand.Rand, share float64, people []person) error {
	if err := w.Write([]string{intake.ColName, intake.ColEmail}); err != nil {
		return err
	}
	for _, p := range people {
		if rng.Float64() >= share {
			continue
		}
		if err := w.Write([]string{p.name, p.username}); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, fill func(*csv.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sample %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return writeAll(f, fill)
}

func writeAll(out io.Writer, fill func(*csv.Writer) error) error {
	w := csv.NewWriter(out)
	if err := fill(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
