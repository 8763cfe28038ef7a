package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/nicempc/internal/model"
)

func generateTestBars(n int, generator func(int) model.Bar) []model.Bar {
	bars := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = generator(i)
		bars[i].Timestamp = time.Unix(int64(i)*60, 0).UTC()
	}
	return bars
}

func TestClassifyMarketRegime(t *testing.T) {
	tests := []struct {
		name      string
		bars      []model.Bar
		regime    string
		direction string
	}{
		{
			name:      "Недостаточно данных",
			bars:      generateTestBars(10, func(int) model.Bar { return model.Bar{Open: 1, High: 1, Low: 1, Close: 1} }),
			regime:    "UNKNOWN",
			direction: "NEUTRAL",
		},
		{
			name: "Бычий тренд",
			bars: generateTestBars(80, func(i int) model.Bar {
				c := 100 + float64(i)*2
				return model.Bar{Open: c - 1, High: c + 1, Low: c - 2, Close: c, Volume: 1000}
			}),
			regime:    "TRENDING",
			direction: "BULLISH",
		},
		{
			name: "Медвежий тренд",
			bars: generateTestBars(80, func(i int) model.Bar {
				c := 500 - float64(i)*2
				return model.Bar{Open: c + 1, High: c + 2, Low: c - 1, Close: c, Volume: 1000}
			}),
			regime:    "TRENDING",
			direction: "BEARISH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ClassifyMarketRegime(tt.bars)
			assert.Equal(t, tt.regime, r.Type)
			assert.Equal(t, tt.direction, r.Direction)
			assert.GreaterOrEqual(t, r.Strength, 0.0)
			assert.LessOrEqual(t, r.Strength, 1.0)
		})
	}
}
