package analyze

import (
	"context"
	"testing"

	"github.com/juju/errors"

	"github.com/termovis/server/model"
	"github.com/termovis/server/pkg/irmap"
	"github.com/termovis/server/pkg/polygon"
)

// mapCtlStub контроллер карт с одной картой на все метки времени
type mapCtlStub struct {
	im   *irmap.Map
	fail bool
}

func (m *mapCtlStub) Map(_ int64) (*irmap.Map, error) {
	if m.fail {
		return nil, errors.New("карта недоступна")
	}
	return m.im, nil
}

func testMap(t *testing.T) *irmap.Map {
	t.Helper()
	data := make([]float64, 8*8)
	for i := range data {
		data[i] = 10
	}
	data[3*8+3] = 77 // пиксель (3, 3)
	im, err := irmap.NewMap(8, 8, data)
	if err != nil {
		t.Fatal(err)
	}
	return im
}

func TestAnalyzeEvent(t *testing.T) {
	svc, err := NewAnalyze(context.Background(), &ConfigAnalyze{
		MapCtl:  &mapCtlStub{im: testMap(t)},
		Workers: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	event := &model.Event{Device: "WEST", Method: "manual"}
	event.AddInstance(model.NewInstanceFromRect(polygon.Rect{Left: 2, Top: 2, Width: 3, Height: 3}, 20))
	event.AddInstance(model.NewInstanceFromRect(polygon.Rect{Left: 0, Top: 0, Width: 2, Height: 2}, 10))

	if err := svc.AnalyzeEvent(event); err != nil {
		t.Fatal(err)
	}

	// Сводные поля пересчитаны по результатам анализа
	if event.MaxTemperature == nil || *event.MaxTemperature != 77 {
		t.Errorf("MaxTemperature = %v, ожидалось 77", event.MaxTemperature)
	}
	if event.MaxTTimestampNs == nil || *event.MaxTTimestampNs != 20 {
		t.Errorf("MaxTTimestampNs = %v, ожидалось 20", event.MaxTTimestampNs)
	}
	if event.InitialTimestampNs != 10 || event.FinalTimestampNs != 20 {
		t.Errorf("границы события %d-%d", event.InitialTimestampNs, event.FinalTimestampNs)
	}

	for _, instance := range event.Instances {
		if instance.PixelArea == nil || instance.MeanTemperature == nil {
			t.Errorf("инстанс на %d не проанализирован", instance.TimestampNs)
		}
	}
}

func TestAnalyzeEventMapUnavailable(t *testing.T) {
	svc, err := NewAnalyze(context.Background(), &ConfigAnalyze{
		MapCtl: &mapCtlStub{fail: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	event := &model.Event{Device: "WEST", Method: "manual"}
	event.AddInstance(model.NewInstanceFromRect(polygon.Rect{Left: 0, Top: 0, Width: 2, Height: 2}, 10))

	if err := svc.AnalyzeEvent(event); err == nil {
		t.Error("ожидалась ошибка")
	}
}

func TestAnalyzeEmptyEvent(t *testing.T) {
	svc, err := NewAnalyze(context.Background(), &ConfigAnalyze{
		MapCtl: &mapCtlStub{im: testMap(t)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.AnalyzeEvent(&model.Event{}); !model.IsEmptyEvent(err) {
		t.Errorf("ожидалась ошибка пустого события, получено %v", err)
	}
}

func TestNewAnalyzeConfig(t *testing.T) {
	if _, err := NewAnalyze(context.Background(), nil); err == nil {
		t.Error("ожидалась ошибка отсутствия конфигурации")
	}
	if _, err := NewAnalyze(context.Background(), &ConfigAnalyze{}); err == nil {
		t.Error("ожидалась ошибка отсутствия контроллера карт")
	}
}
