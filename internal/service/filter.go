package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/runbeam/runbeam/internal/domain"
	"github.com/runbeam/runbeam/internal/domain/run"
	"github.com/runbeam/runbeam/internal/friendlyid"
	"github.com/runbeam/runbeam/internal/port/analytics"
)

// runFilter is the fully resolved filter set. All relation identifiers are
// internal; an empty value means the dimension imposes no constraint.
type runFilter struct {
	organizationID string
	projectID      string
	environmentID  string

	tasks    []string
	versions []string
	statuses []run.Status
	tags     []string

	scheduleID   string
	batchID      string
	bulkActionID string
	runIDs       []string

	periodMS int64
	from     int64
	to       int64

	isTest   *bool
	rootOnly bool
}

// normalizeFilter validates the raw filter and resolves every friendly
// identifier it carries. Unresolvable batch/schedule references degrade to
// "no filter on that dimension"; everything else that is malformed fails
// validation before any analytical query runs.
func (s *RunListService) normalizeFilter(ctx context.Context, f *run.ListFilter) (*runFilter, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	nf := &runFilter{
		organizationID: f.OrganizationID,
		projectID:      f.ProjectID,
		environmentID:  f.EnvironmentID,
		tasks:          f.Tasks,
		versions:       f.Versions,
		tags:           f.Tags,
		from:           f.From,
		to:             f.To,
		isTest:         f.IsTest,
	}

	for _, st := range f.Statuses {
		nf.statuses = append(nf.statuses, run.Status(st))
	}

	if f.Period != "" {
		period, err := parsePeriod(f.Period)
		if err != nil {
			return nil, fmt.Errorf("invalid period %q: %w", f.Period, domain.ErrValidation)
		}
		// Explicit bounds win over a symbolic period: the period is only
		// resolved when the caller gave no absolute window of their own.
		if f.From == 0 && f.To == 0 {
			nf.periodMS = period.Milliseconds()
		}
	}

	runIDs, err := friendlyid.ToInternalList(friendlyid.KindRun, f.RunIDs)
	if err != nil {
		return nil, fmt.Errorf("invalid run identifier: %w", domain.ErrValidation)
	}
	nf.runIDs = runIDs

	if f.BulkActionID != "" {
		id, err := friendlyid.ToInternal(friendlyid.KindBulkAction, f.BulkActionID)
		if err != nil {
			return nil, fmt.Errorf("invalid bulk action identifier: %w", domain.ErrValidation)
		}
		nf.bulkActionID = id
	}

	// A specific-entity filter means the caller wants matches at any
	// hierarchy depth, so it overrides a root-only request.
	if f.BatchID == "" && len(f.RunIDs) == 0 && len(f.Tasks) == 0 && f.ScheduleID == "" {
		nf.rootOnly = f.RootOnly
	}

	if f.BatchID != "" {
		id, err := s.db.FindBatchID(ctx, f.BatchID, f.ProjectID, f.EnvironmentID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Unresolvable relation filter: drop the dimension, keep the request.
		case err != nil:
			return nil, err
		default:
			nf.batchID = id
		}
	}

	if f.ScheduleID != "" {
		id, err := s.db.FindScheduleID(ctx, f.ScheduleID, f.ProjectID, f.EnvironmentID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			nf.scheduleID = ""
		case err != nil:
			return nil, err
		default:
			nf.scheduleID = id
		}
	}

	return nf, nil
}

// conditions renders the filter as predicate fragments with named, typed
// parameters. The scope predicates are always present; the period lower bound
// is anchored to now, so a retried query re-resolves it.
func (f *runFilter) conditions(now time.Time) []analytics.Condition {
	conds := []analytics.Condition{
		{Fragment: "organization_id = $organizationId", Params: []analytics.Param{analytics.String("organizationId", f.organizationID)}},
		{Fragment: "project_id = $projectId", Params: []analytics.Param{analytics.String("projectId", f.projectID)}},
		{Fragment: "environment_id = $environmentId", Params: []analytics.Param{analytics.String("environmentId", f.environmentID)}},
	}

	if len(f.tasks) > 0 {
		conds = append(conds, analytics.Condition{
			Fragment: "task_identifier IN ($tasks)",
			Params:   []analytics.Param{analytics.ArrayString("tasks", f.tasks)},
		})
	}
	if len(f.versions) > 0 {
		conds = append(conds, analytics.Condition{
			Fragment: "task_version IN ($versions)",
			Params:   []analytics.Param{analytics.ArrayString("versions", f.versions)},
		})
	}
	if len(f.statuses) > 0 {
		statuses := make([]string, len(f.statuses))
		for i, st := range f.statuses {
			statuses[i] = string(st)
		}
		conds = append(conds, analytics.Condition{
			Fragment: "status IN ($statuses)",
			Params:   []analytics.Param{analytics.ArrayString("statuses", statuses)},
		})
	}
	if len(f.tags) > 0 {
		// tags is itself a list column, so membership is a set intersection.
		conds = append(conds, analytics.Condition{
			Fragment: "list_has_any(tags, [$tags])",
			Params:   []analytics.Param{analytics.ArrayString("tags", f.tags)},
		})
	}
	if f.periodMS > 0 {
		floor := now.UnixMilli() - f.periodMS
		conds = append(conds, analytics.Condition{
			Fragment: "created_at >= $periodStart",
			Params:   []analytics.Param{analytics.Int64("periodStart", floor)},
		})
	}
	if f.from > 0 {
		conds = append(conds, analytics.Condition{
			Fragment: "created_at >= $from",
			Params:   []analytics.Param{analytics.Int64("from", f.from)},
		})
	}
	if f.to > 0 {
		conds = append(conds, analytics.Condition{
			Fragment: "created_at <= $to",
			Params:   []analytics.Param{analytics.Int64("to", f.to)},
		})
	}
	if f.isTest != nil {
		conds = append(conds, analytics.Condition{
			Fragment: "is_test = $isTest",
			Params:   []analytics.Param{analytics.Boolean("isTest", *f.isTest)},
		})
	}
	if f.rootOnly {
		conds = append(conds, analytics.Condition{
			Fragment: "(root_task_run_id IS NULL OR root_task_run_id = '')",
		})
	}
	if f.scheduleID != "" {
		conds = append(conds, analytics.Condition{
			Fragment: "schedule_id = $scheduleId",
			Params:   []analytics.Param{analytics.String("scheduleId", f.scheduleID)},
		})
	}
	if f.batchID != "" {
		conds = append(conds, analytics.Condition{
			Fragment: "batch_id = $batchId",
			Params:   []analytics.Param{analytics.String("batchId", f.batchID)},
		})
	}
	if f.bulkActionID != "" {
		conds = append(conds, analytics.Condition{
			Fragment: "list_contains(bulk_action_group_ids, $bulkActionId)",
			Params:   []analytics.Param{analytics.String("bulkActionId", f.bulkActionID)},
		})
	}
	if len(f.runIDs) > 0 {
		conds = append(conds, analytics.Condition{
			Fragment: "run_id IN ($runIds)",
			Params:   []analytics.Param{analytics.ArrayString("runIds", f.runIDs)},
		})
	}

	return conds
}

// parsePeriod parses a duration literal such as "30s", "15m", "6h", "7d" or
// "2w" into a time.Duration. time.ParseDuration alone will not do: symbolic
// periods are expressed in days and weeks.
func parsePeriod(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("period too short")
	}

	unit := s[len(s)-1]
	value, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("period must be a positive integer followed by a unit")
	}

	switch unit {
	case 's':
		return time.Duration(value) * time.Second, nil
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown period unit %q", string(unit))
	}
}
