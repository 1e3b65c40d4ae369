package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billleddy/finapp/internal/models"
	"github.com/billleddy/finapp/internal/signals"
)

func TestDefaultPlan_Names(t *testing.T) {
	plan := DefaultPlan()
	require.Len(t, plan, 11)
	assert.Equal(t, "5 Year_candle", plan[0].Name())
	assert.Equal(t, "365_ma", plan[1].Name())
	assert.Equal(t, "earnings", plan[7].Name())
}

func TestFilterPlan(t *testing.T) {
	plan := DefaultPlan()
	assert.Equal(t, plan, FilterPlan(plan, nil))

	candles := FilterPlan(plan, []models.ChartKind{models.ChartCandle})
	require.Len(t, candles, 3)
	for _, p := range candles {
		assert.Equal(t, models.ChartCandle, p.Kind)
	}
	assert.Empty(t, FilterPlan(plan, []models.ChartKind{"nope"}))
}

func TestParsePlanItem(t *testing.T) {
	tests := []struct {
		input   string
		want    PlanItem
		wantErr bool
	}{
		{"rsi@90", PlanItem{Kind: models.ChartRSI, Period: signals.DaysPeriod(90)}, false},
		{"candle@5 Day", PlanItem{Kind: models.ChartCandle, Period: signals.Period5Day}, false},
		{"macd", PlanItem{Kind: models.ChartMACD, Period: signals.Period90Day}, false},
		{"earnings@90", PlanItem{Kind: models.ChartEarnings}, false},
		{"bogus", PlanItem{}, true},
		{"rsi@0", PlanItem{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePlanItem(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportStatus(t *testing.T) {
	assert.Equal(t, StatusOK, (&Report{}).Status())
	assert.Equal(t, StatusFailed, (&Report{Failures: []Failure{{}}}).Status())
	assert.Equal(t, StatusPartial, (&Report{Artifacts: []models.Artifact{{}}, Failures: []Failure{{}}}).Status())
}
