package deck

import (
	"fmt"
	"strings"

	"github.com/billleddy/finapp/internal/models"
	"github.com/billleddy/finapp/internal/signals"
)

// PlanItem is one chart in a deck. Period is ignored for fundamentals kinds.
type PlanItem struct {
	Kind   models.ChartKind
	Period signals.Period
}

// Name returns the artifact stem the item produces
func (p PlanItem) Name() string {
	if !p.Kind.IsPriceKind() {
		return models.ArtifactName("", p.Kind)
	}
	return models.ArtifactName(p.Period.Label, p.Kind)
}

// DefaultPlan returns the standard deck in slide order
func DefaultPlan() []PlanItem {
	return []PlanItem{
		{Kind: models.ChartCandle, Period: signals.Period5Year},
		{Kind: models.ChartMovingAverage, Period: signals.DaysPeriod(365)},
		{Kind: models.ChartCandle, Period: signals.Period90Day},
		{Kind: models.ChartRSI, Period: signals.DaysPeriod(90)},
		{Kind: models.ChartMACD, Period: signals.DaysPeriod(90)},
		{Kind: models.ChartBollinger, Period: signals.DaysPeriod(90)},
		{Kind: models.ChartCandle, Period: signals.Period5Day},
		{Kind: models.ChartEarnings},
		{Kind: models.ChartRecommendations},
		{Kind: models.ChartGradeChanges},
		{Kind: models.ChartInsider},
	}
}

// FilterPlan keeps the items whose kind is listed. An empty list keeps all.
func FilterPlan(plan []PlanItem, kinds []models.ChartKind) []PlanItem {
	if len(kinds) == 0 {
		return plan
	}
	keep := make(map[models.ChartKind]bool, len(kinds))
	for _, k := range kinds {
		keep[k] = true
	}
	out := make([]PlanItem, 0, len(plan))
	for _, p := range plan {
		if keep[p.Kind] {
			out = append(out, p)
		}
	}
	return out
}

// ParsePlanItem parses "<kind>" or "<kind>@<period>", e.g. "rsi@90" or "candle@5 Day"
func ParsePlanItem(v string) (PlanItem, error) {
	kindName, periodLabel, hasPeriod := strings.Cut(v, "@")
	kind, err := models.ParseChartKind(kindName)
	if err != nil {
		return PlanItem{}, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	item := PlanItem{Kind: kind}
	if !kind.IsPriceKind() {
		return item, nil
	}
	if !hasPeriod {
		item.Period = signals.Period90Day
		return item, nil
	}
	item.Period, err = signals.ParsePeriod(periodLabel)
	if err != nil {
		return PlanItem{}, err
	}
	return item, nil
}
