package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jaykayes/lottery-script/internal/adapters/intake"
	"github.com/jaykayes/lottery-script/internal/config"
	"github.com/jaykayes/lottery-script/internal/domain/model"
	"github.com/jaykayes/lottery-script/pkg/logger"
	"github.com/jaykayes/lottery-script/pkg/metrics"
)

// Sources names the files of one draw. Terms may be empty, in which case
// every applicant counts as having accepted.
type Sources struct {
	Catalog      string
	Applications string
	Terms        string
	Window       intake.Window
}

// IntakeReport collects what reading the sources dropped or flagged.
type IntakeReport struct {
	intake.Report
	Problems []intake.Problem
	Warnings []intake.Warning
}

// LoadRequest reads the sources with the configured pools and groups and
// returns a request ready for Draw.
func LoadRequest(ctx context.Context, cfg *config.Config, src Sources, log logger.Logger) (Request, IntakeReport, error) {
	var rep IntakeReport
	if log == nil {
		log = logger.Nop()
	}

	catalog, err := intake.ReadCatalogFile(src.Catalog)
	if err != nil {
		return Request{}, rep, fmt.Errorf("catalog: %w", err)
	}
	catalog, rep.Warnings = intake.AssignGroups(catalog, GroupRules(cfg))
	for _, w := range rep.Warnings {
		log.Warn(ctx, "group item not in catalog",
			logger.String("group", w.Tag),
			logger.String("name", w.Name),
			logger.String("did_you_mean", w.Suggestion),
		)
	}
	if err := catalog.Validate(); err != nil {
		return Request{}, rep, fmt.Errorf("catalog: %w", err)
	}

	form := intake.Form{Layouts: cfg.TimestampLayouts, Location: time.Local}
	for _, p := range cfg.Pools {
		form.Pools = append(form.Pools, intake.PoolColumn{Pool: model.Pool(p.Name), Column: p.Column})
	}
	applicants, problems, err := intake.ReadApplicationsFile(src.Applications, catalog, form)
	if err != nil {
		return Request{}, rep, fmt.Errorf("applications: %w", err)
	}
	rep.Problems = problems
	for _, p := range problems {
		log.Warn(ctx, "application problem", logger.String("problem", p.String()))
	}

	var terms *intake.Terms
	if src.Terms != "" {
		if terms, err = intake.ReadTermsFile(src.Terms); err != nil {
			return Request{}, rep, fmt.Errorf("terms: %w", err)
		}
	}

	applicants, rep.Report = intake.Prepare(ctx, applicants, terms, src.Window)
	metrics.AddApplicants("accepted", rep.Accepted)
	metrics.AddApplicants("no_terms", rep.Ineligible)
	metrics.AddApplicants("outside_window", rep.Early+rep.Late)
	metrics.AddApplicants("superseded", rep.Duplicates)
	log.Info(ctx, "applications read",
		logger.Int("rows", rep.Read),
		logger.Int("accepted", rep.Accepted),
		logger.Int("no_terms", rep.Ineligible),
		logger.Int("early", rep.Early),
		logger.Int("late", rep.Late),
		logger.Int("superseded", rep.Duplicates),
		logger.Int("problems", len(rep.Problems)),
	)

	return Request{
		Catalog:    catalog,
		Applicants: applicants,
		Pools:      PoolOrder(cfg, catalog),
	}, rep, nil
}

// GroupRules converts the configured groups.
func GroupRules(cfg *config.Config) []intake.GroupRule {
	rules := make([]intake.GroupRule, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		rules = append(rules, intake.GroupRule{
			Tag:       g.Tag,
			Pool:      model.Pool(g.Pool),
			Primary:   g.Primary,
			Dependent: g.Dependent,
		})
	}
	return rules
}

// PoolOrder lists the configured pools present in the catalog first, then any
// other catalog pool.
func PoolOrder(cfg *config.Config, catalog model.Catalog) []model.Pool {
	inCatalog := make(map[model.Pool]bool)
	for _, pool := range catalog.Pools() {
		inCatalog[pool] = true
	}
	seen := make(map[model.Pool]bool)
	var pools []model.Pool
	for _, p := range cfg.Pools {
		pool := model.Pool(p.Name)
		if inCatalog[pool] && !seen[pool] {
			seen[pool] = true
			pools = append(pools, pool)
		}
	}
	for _, pool := range catalog.Pools() {
		if !seen[pool] {
			seen[pool] = true
			pools = append(pools, pool)
		}
	}
	return pools
}
