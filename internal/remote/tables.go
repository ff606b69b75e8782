package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"dayplan-cli/internal/model"
)

// Backend loads and saves a user's full snapshot.
type Backend interface {
	Load(ctx context.Context, userID string) (model.Snapshot, bool, error)
	Save(ctx context.Context, userID string, snap model.Snapshot) error
}

// Tables stores snapshots in Azure Table Storage: one entity per day in the plans
// table and one per history entry in the history table, both partitioned by user.
type Tables struct {
	plans   *aztables.Client
	history *aztables.Client
}

// NewTables creates a Tables client from a storage connection string.
func NewTables(connStr, plansTable, historyTable string) (*Tables, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Tables{
		plans:   svc.NewClient(plansTable),
		history: svc.NewClient(historyTable),
	}, nil
}

// EnsureTables creates both tables, ignoring ones that already exist.
func (t *Tables) EnsureTables(ctx context.Context) error {
	for _, c := range []*aztables.Client{t.plans, t.history} {
		if _, err := c.CreateTable(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
				return err
			}
		}
	}
	return nil
}

type planEntity struct {
	aztables.Entity
	Week        int    `json:"Week"`
	Phase       string `json:"Phase"`
	TasksJSON   string `json:"TasksJSON"`
	Notes       string `json:"Notes"`
	MetricsJSON string `json:"MetricsJSON"`
}

type historyEntity struct {
	aztables.Entity
	TS     string `json:"TS"`
	Date   string `json:"Date"`
	Action string `json:"Action"`
	Detail string `json:"Detail"`
}

type dayMetrics struct {
	SleepHours  *float64 `json:"sleepHours,omitempty"`
	HRRest      *int     `json:"hrRest,omitempty"`
	BodyMass    *float64 `json:"bodyMass,omitempty"`
	NapsNote    string   `json:"napsNote,omitempty"`
	MicroDone   *int     `json:"microDone,omitempty"`
	MicroTarget *int     `json:"microTarget,omitempty"`
}

func toPlanEntity(userID string, d model.DayPlan) (planEntity, error) {
	tasks, err := json.Marshal(d.Clone().Tasks)
	if err != nil {
		return planEntity{}, err
	}
	metrics, err := json.Marshal(dayMetrics{
		SleepHours:  d.SleepHours,
		HRRest:      d.HRRest,
		BodyMass:    d.BodyMass,
		NapsNote:    d.NapsNote,
		MicroDone:   d.MicroDone,
		MicroTarget: d.MicroTarget,
	})
	if err != nil {
		return planEntity{}, err
	}
	return planEntity{
		Entity:      aztables.Entity{PartitionKey: userID, RowKey: d.Date},
		Week:        d.Week,
		Phase:       string(d.Phase),
		TasksJSON:   string(tasks),
		Notes:       d.Notes,
		MetricsJSON: string(metrics),
	}, nil
}

func fromPlanEntity(e planEntity) (model.DayPlan, error) {
	d := model.DayPlan{
		Date:  e.RowKey,
		Week:  e.Week,
		Phase: model.Phase(e.Phase),
		Notes: e.Notes,
	}
	if err := json.Unmarshal([]byte(e.TasksJSON), &d.Tasks); err != nil {
		return model.DayPlan{}, fmt.Errorf("%s tasks: %w", e.RowKey, err)
	}
	if strings.TrimSpace(e.MetricsJSON) != "" {
		var m dayMetrics
		if err := json.Unmarshal([]byte(e.MetricsJSON), &m); err != nil {
			return model.DayPlan{}, fmt.Errorf("%s metrics: %w", e.RowKey, err)
		}
		d.SleepHours, d.HRRest, d.BodyMass = m.SleepHours, m.HRRest, m.BodyMass
		d.NapsNote, d.MicroDone, d.MicroTarget = m.NapsNote, m.MicroDone, m.MicroTarget
	}
	return d.Clone(), nil
}

// historyRowKey numbers entries from the oldest, so prepending an entry leaves every
// older key unchanged. Zero padding keeps lexical order numeric.
func historyRowKey(seq int) string { return fmt.Sprintf("%08d", seq) }

func toHistoryEntity(userID string, seq int, h model.HistoryItem) historyEntity {
	return historyEntity{
		Entity: aztables.Entity{PartitionKey: userID, RowKey: historyRowKey(seq)},
		TS:     h.TS.UTC().Format(time.RFC3339Nano),
		Date:   h.Date,
		Action: string(h.Action),
		Detail: h.Detail,
	}
}

// historyRows maps a newest-first log onto rows keyed by sequence.
func historyRows(userID string, hist []model.HistoryItem) []historyEntity {
	out := make([]historyEntity, len(hist))
	for i, h := range hist {
		out[i] = toHistoryEntity(userID, len(hist)-1-i, h)
	}
	return out
}

func samePlan(a, b planEntity) bool {
	return a.Week == b.Week && a.Phase == b.Phase && a.TasksJSON == b.TasksJSON &&
		a.Notes == b.Notes && a.MetricsJSON == b.MetricsJSON
}

func sameHistory(a, b historyEntity) bool {
	return a.TS == b.TS && a.Date == b.Date && a.Action == b.Action && a.Detail == b.Detail
}

// diffRows compares stored rows with the wanted ones by RowKey. It returns the rows
// that are missing or changed, and the keys of stored rows that are no longer wanted.
func diffRows[T any](have, want []T, key func(T) string, same func(a, b T) bool) (upserts []T, deletes []string) {
	stored := make(map[string]T, len(have))
	for _, h := range have {
		stored[key(h)] = h
	}
	for _, w := range want {
		h, ok := stored[key(w)]
		delete(stored, key(w))
		if ok && same(h, w) {
			continue
		}
		upserts = append(upserts, w)
	}
	for k := range stored {
		deletes = append(deletes, k)
	}
	sort.Strings(deletes)
	return upserts, deletes
}

func fromHistoryEntity(e historyEntity) (model.HistoryItem, error) {
	ts, err := time.Parse(time.RFC3339Nano, e.TS)
	if err != nil {
		return model.HistoryItem{}, fmt.Errorf("history %s: %w", e.RowKey, err)
	}
	return model.HistoryItem{TS: ts.UTC(), Date: e.Date, Action: model.Action(e.Action), Detail: e.Detail}, nil
}

func partitionFilter(userID string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(userID, "'", "''") + "'"
}

func listEntities[T any](ctx context.Context, c *aztables.Client, userID string) ([]T, error) {
	filter := partitionFilter(userID)
	pager := c.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var out []T
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent T
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			out = append(out, ent)
		}
	}
	return out, nil
}

// Load returns ok=false when the user has no plan rows.
func (t *Tables) Load(ctx context.Context, userID string) (model.Snapshot, bool, error) {
	plans, err := listEntities[planEntity](ctx, t.plans, userID)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	if len(plans) == 0 {
		return model.Snapshot{}, false, nil
	}
	hist, err := listEntities[historyEntity](ctx, t.history, userID)
	if err != nil {
		return model.Snapshot{}, false, err
	}

	snap := model.Snapshot{
		Plans:   make([]model.DayPlan, 0, len(plans)),
		History: make([]model.HistoryItem, 0, len(hist)),
	}
	for _, e := range plans {
		d, err := fromPlanEntity(e)
		if err != nil {
			return model.Snapshot{}, false, err
		}
		snap.Plans = append(snap.Plans, d)
	}
	sort.Slice(snap.Plans, func(i, j int) bool { return snap.Plans[i].Date < snap.Plans[j].Date })

	// Highest sequence first gives the newest-first log.
	sort.Slice(hist, func(i, j int) bool { return hist[i].RowKey > hist[j].RowKey })
	for _, e := range hist {
		h, err := fromHistoryEntity(e)
		if err != nil {
			return model.Snapshot{}, false, err
		}
		snap.History = append(snap.History, h)
	}
	return snap, true, nil
}

// Save writes only the day and history rows that differ from what is stored for
// userID, and deletes rows the snapshot no longer has.
func (t *Tables) Save(ctx context.Context, userID string, snap model.Snapshot) error {
	storedPlans, err := listEntities[planEntity](ctx, t.plans, userID)
	if err != nil {
		return err
	}
	wantPlans := make([]planEntity, 0, len(snap.Plans))
	for _, d := range snap.Plans {
		ent, err := toPlanEntity(userID, d)
		if err != nil {
			return err
		}
		wantPlans = append(wantPlans, ent)
	}
	upserts, deletes := diffRows(storedPlans, wantPlans, func(e planEntity) string { return e.RowKey }, samePlan)
	for _, ent := range upserts {
		if err := upsert(ctx, t.plans, ent); err != nil {
			return fmt.Errorf("upsert plan %s: %w", ent.RowKey, err)
		}
	}
	for _, key := range deletes {
		if _, err := t.plans.DeleteEntity(ctx, userID, key, nil); err != nil {
			return fmt.Errorf("delete plan %s: %w", key, err)
		}
	}

	storedHist, err := listEntities[historyEntity](ctx, t.history, userID)
	if err != nil {
		return err
	}
	histUpserts, histDeletes := diffRows(storedHist, historyRows(userID, snap.History), func(e historyEntity) string { return e.RowKey }, sameHistory)
	for _, ent := range histUpserts {
		if err := upsert(ctx, t.history, ent); err != nil {
			return fmt.Errorf("upsert history %s: %w", ent.RowKey, err)
		}
	}
	for _, key := range histDeletes {
		if _, err := t.history.DeleteEntity(ctx, userID, key, nil); err != nil {
			return fmt.Errorf("delete history %s: %w", key, err)
		}
	}
	return nil
}

func upsert(ctx context.Context, c *aztables.Client, ent any) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = c.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}
