package model

import (
	"encoding/json"
	"testing"

	"github.com/termovis/server/pkg/polygon"
)

const sampleDocument = `{
	"10": {
		"experiment_id": 54178,
		"line_of_sight": "wide angle",
		"device": "WEST",
		"category": "hot spot",
		"is_automatic_detection": true,
		"method": "detector-v2",
		"confidence": 0.8,
		"dataset": "1, 3",
		"name": "event-b",
		"initial_timestamp_ns": 10,
		"final_timestamp_ns": 25,
		"duration_ns": 15,
		"max_temperature_C": 55,
		"max_T_timestamp_ns": 15,
		"annotation_tool": "thermavip",
		"thermal_events_instances": [
			{
				"timestamp_ns": 10,
				"polygon": "0 0 4 0 4 3 0 3 ",
				"bbox_x": 0, "bbox_y": 0, "bbox_width": 5, "bbox_height": 4,
				"max_temperature_C": 40,
				"quantile_50": "1 1 3 2",
				"scene_model": "v7"
			},
			{
				"timestamp_ns": 25,
				"polygon": "",
				"bbox_x": 5, "bbox_y": 3, "bbox_width": 6, "bbox_height": 4,
				"max_temperature_C": 55,
				"max_T_world_position_x_m": 1.5,
				"max_T_world_position_y_m": -0.25,
				"max_T_world_position_z_m": 0.75
			}
		]
	},
	"2": {
		"experiment_id": 54178,
		"device": "WEST",
		"method": "manual",
		"name": "event-a",
		"thermal_events_instances": [
			{
				"timestamp_ns": 5,
				"polygon": "",
				"bbox_x": 0, "bbox_y": 0, "bbox_width": 2, "bbox_height": 2
			}
		]
	}
}`

func TestReadDocument(t *testing.T) {
	events, err := ReadDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("прочитано %d событий, ожидалось 2", len(events))
	}

	// Числовые ключи обходятся в числовом порядке: "2" раньше "10"
	if events[0].Name != "event-a" || events[1].Name != "event-b" {
		t.Errorf("порядок событий %q, %q", events[0].Name, events[1].Name)
	}

	event := events[1]
	if event.ExperimentID != 54178 || event.Device != "WEST" || event.Category != "hot spot" {
		t.Errorf("скалярные поля события: %+v", event)
	}
	// Сводные поля берутся из документа без пересчёта
	if event.InitialTimestampNs != 10 || event.FinalTimestampNs != 25 || event.DurationNs != 15 {
		t.Errorf("границы события %d-%d (%d)", event.InitialTimestampNs, event.FinalTimestampNs, event.DurationNs)
	}
	if *event.MaxTemperature != 55 || *event.MaxTTimestampNs != 15 {
		t.Errorf("максимум %v на %v", *event.MaxTemperature, *event.MaxTTimestampNs)
	}
	// Неизвестное поле события сохранено
	if string(event.Extra["annotation_tool"]) != `"thermavip"` {
		t.Errorf("Extra = %v", event.Extra)
	}

	if len(event.Instances) != 2 {
		t.Fatalf("у события %d инстансов", len(event.Instances))
	}

	first := event.Instances[0]
	if _, ok := first.Shape.(PolygonShape); !ok {
		t.Errorf("форма первого инстанса %T", first.Shape)
	}
	if first.Rect != (polygon.Rect{Left: 0, Top: 0, Width: 5, Height: 4}) {
		t.Errorf("охват первого инстанса %+v", first.Rect)
	}
	if first.Quantiles[50] != (polygon.Rect{Left: 1, Top: 1, Width: 3, Height: 2}) {
		t.Errorf("квантиль 50 = %+v", first.Quantiles[50])
	}
	if string(first.Extra["scene_model"]) != `"v7"` {
		t.Errorf("Extra инстанса = %v", first.Extra)
	}

	second := event.Instances[1]
	if _, ok := second.Shape.(RectShape); !ok {
		t.Errorf("форма второго инстанса %T", second.Shape)
	}
	if second.MaxWorldPos == nil || *second.MaxWorldPos != (WorldPoint{X: 1.5, Y: -0.25, Z: 0.75}) {
		t.Errorf("MaxWorldPos = %v", second.MaxWorldPos)
	}
	if second.MinWorldPos != nil {
		t.Errorf("MinWorldPos = %v, ожидалось отсутствие", second.MinWorldPos)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	events, err := ReadDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatal(err)
	}

	data, err := WriteDocument(events, false)
	if err != nil {
		t.Fatal(err)
	}

	back, err := ReadDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != len(events) {
		t.Fatalf("после цикла %d событий", len(back))
	}

	event := back[1]
	if event.Name != "event-b" || *event.MaxTemperature != 55 {
		t.Errorf("событие после цикла: %+v", event)
	}
	// Неизвестные поля переживают цикл чтение-запись
	if string(event.Extra["annotation_tool"]) != `"thermavip"` {
		t.Errorf("Extra после цикла = %v", event.Extra)
	}
	if string(event.Instances[0].Extra["scene_model"]) != `"v7"` {
		t.Errorf("Extra инстанса после цикла = %v", event.Instances[0].Extra)
	}
	// Контуры переживают цикл
	if !event.Instances[0].Outline().Equal(events[1].Instances[0].Outline()) {
		t.Errorf("контур после цикла %v", event.Instances[0].Outline())
	}
}

func TestWriteDocumentKeys(t *testing.T) {
	event := &Event{ID: 42, Device: "WEST", Method: "manual"}
	event.AddInstance(NewInstanceFromRect(polygon.Rect{Left: 0, Top: 0, Width: 2, Height: 2}, 10))

	t.Run("порядковые номера", func(t *testing.T) {
		data, err := WriteDocument([]*Event{event}, false)
		if err != nil {
			t.Fatal(err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatal(err)
		}
		if _, ok := raw["0"]; !ok {
			t.Errorf("ключи документа: %v", keysOf(raw))
		}
	})

	t.Run("идентификаторы", func(t *testing.T) {
		data, err := WriteDocument([]*Event{event}, true)
		if err != nil {
			t.Fatal(err)
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatal(err)
		}
		if _, ok := raw["42"]; !ok {
			t.Errorf("ключи документа: %v", keysOf(raw))
		}
	})
}

func TestEncodeRectShape(t *testing.T) {
	// Прямоугольная форма записывается пустой строкой полигона
	event := &Event{Device: "WEST", Method: "manual"}
	event.AddInstance(NewInstanceFromRect(polygon.Rect{Left: 5, Top: 3, Width: 6, Height: 4}, 10))

	data, err := WriteDocument([]*Event{event}, false)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]struct {
		Instances []struct {
			Polygon    string `json:"polygon"`
			BboxX      int    `json:"bbox_x"`
			BboxWidth  int    `json:"bbox_width"`
			BboxHeight int    `json:"bbox_height"`
		} `json:"thermal_events_instances"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	instance := raw["0"].Instances[0]
	if instance.Polygon != "" {
		t.Errorf("polygon = %q, ожидалась пустая строка", instance.Polygon)
	}
	if instance.BboxX != 5 || instance.BboxWidth != 6 || instance.BboxHeight != 4 {
		t.Errorf("охват: %+v", instance)
	}
}

func keysOf(raw map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	return keys
}
