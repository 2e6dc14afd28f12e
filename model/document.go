package model

import (
	"encoding/json"
	"io/ioutil"
	"sort"
	"strconv"

	"github.com/juju/errors"

	"github.com/termovis/server/pkg/polygon"
)

// Документ агрегата: отображение произвольного строкового ключа (порядковый
// номер или идентификатор из БД) в объект события со скалярными полями и
// списком инстансов под ключом thermal_events_instances. Ядро читает и пишет
// только геометрические и временные поля; все прочие поля переносятся через
// документ без изменений

// eventDoc событие в формате документа
type eventDoc struct {
	ID                   int64    `json:"id"`
	ExperimentID         int64    `json:"experiment_id"`
	LineOfSight          string   `json:"line_of_sight"`
	Device               string   `json:"device"`
	Category             string   `json:"category"`
	IsAutomaticDetection bool     `json:"is_automatic_detection"`
	Method               string   `json:"method"`
	Confidence           float64  `json:"confidence"`
	Severity             string   `json:"severity"`
	User                 string   `json:"user"`
	Dataset              string   `json:"dataset"`
	Comments             string   `json:"comments"`
	Name                 string   `json:"name"`
	AnalysisStatus       string   `json:"analysis_status"`
	InitialTimestampNs   int64    `json:"initial_timestamp_ns"`
	FinalTimestampNs     int64    `json:"final_timestamp_ns"`
	DurationNs           int64    `json:"duration_ns"`
	MaxTemperature       *float64 `json:"max_temperature_C"`
	MaxTTimestampNs      *int64   `json:"max_T_timestamp_ns"`

	Instances []json.RawMessage `json:"thermal_events_instances"`
}

// instanceDoc инстанс в формате документа
type instanceDoc struct {
	ID          int64  `json:"id"`
	TimestampNs int64  `json:"timestamp_ns"`
	Polygon     string `json:"polygon"`
	BboxX       int    `json:"bbox_x"`
	BboxY       int    `json:"bbox_y"`
	BboxWidth   int    `json:"bbox_width"`
	BboxHeight  int    `json:"bbox_height"`
	PfcID       int64  `json:"pfc_id"`

	MaxTemperature    *float64 `json:"max_temperature_C"`
	MinTemperature    *float64 `json:"min_temperature_C"`
	MeanTemperature   *float64 `json:"average_temperature_C"`
	StdTemperature    *float64 `json:"std_temperature_C"`
	OverheatingFactor *float64 `json:"overheating_factor"`

	MaxPosX   *int     `json:"max_T_image_position_x"`
	MaxPosY   *int     `json:"max_T_image_position_y"`
	MinPosX   *int     `json:"min_T_image_position_x"`
	MinPosY   *int     `json:"min_T_image_position_y"`
	CentroidX *float64 `json:"centroid_image_position_x"`
	CentroidY *float64 `json:"centroid_image_position_y"`

	PixelArea    *int     `json:"pixel_area"`
	PhysicalArea *float64 `json:"physical_area"`

	MaxWorldX      *float64 `json:"max_T_world_position_x_m"`
	MaxWorldY      *float64 `json:"max_T_world_position_y_m"`
	MaxWorldZ      *float64 `json:"max_T_world_position_z_m"`
	MinWorldX      *float64 `json:"min_T_world_position_x_m"`
	MinWorldY      *float64 `json:"min_T_world_position_y_m"`
	MinWorldZ      *float64 `json:"min_T_world_position_z_m"`
	CentroidWorldX *float64 `json:"centroid_world_position_x_m"`
	CentroidWorldY *float64 `json:"centroid_world_position_y_m"`
	CentroidWorldZ *float64 `json:"centroid_world_position_z_m"`

	Quantile50 *string `json:"quantile_50"`
	Quantile25 *string `json:"quantile_25"`
	Quantile10 *string `json:"quantile_10"`
	Quantile5  *string `json:"quantile_5"`
}

// ReadDocument разбирает документ агрегата в список событий. Ключи документа
// обходятся в возрастающем порядке (числовом, если все ключи числовые).
// Сводные поля берутся из документа как есть, без пересчёта
func ReadDocument(data []byte) ([]*Event, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "разбор документа")
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseInt(keys[i], 10, 64)
		b, errB := strconv.ParseInt(keys[j], 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})

	res := make([]*Event, 0, len(keys))
	for _, key := range keys {
		event, err := decodeEvent(raw[key])
		if err != nil {
			return nil, errors.Annotatef(err, "событие с ключом %q", key)
		}
		res = append(res, event)
	}
	return res, nil
}

// ReadDocumentFile читает документ агрегата из файла
func ReadDocumentFile(path string) ([]*Event, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "чтение файла документа")
	}
	return ReadDocument(data)
}

// WriteDocument сериализует события в документ агрегата. При useIDAsKey
// ключом служит идентификатор события, иначе порядковый номер
func WriteDocument(events []*Event, useIDAsKey bool) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(events))
	for i, event := range events {
		encoded, err := encodeEvent(event)
		if err != nil {
			return nil, errors.Trace(err)
		}
		key := strconv.Itoa(i)
		if useIDAsKey {
			key = strconv.FormatInt(event.ID, 10)
		}
		out[key] = encoded
	}
	return json.Marshal(out)
}

// WriteDocumentFile записывает документ агрегата в файл
func WriteDocumentFile(path string, events []*Event, useIDAsKey bool) error {
	data, err := WriteDocument(events, useIDAsKey)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(ioutil.WriteFile(path, data, 0644), "запись файла документа")
}

func decodeEvent(data json.RawMessage) (*Event, error) {
	var doc eventDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Annotate(err, "разбор события")
	}

	event := Event{
		ID:                   doc.ID,
		ExperimentID:         doc.ExperimentID,
		LineOfSight:          doc.LineOfSight,
		Device:               doc.Device,
		Category:             doc.Category,
		IsAutomaticDetection: doc.IsAutomaticDetection,
		Method:               doc.Method,
		Confidence:           doc.Confidence,
		Severity:             doc.Severity,
		User:                 doc.User,
		Dataset:              doc.Dataset,
		Comments:             doc.Comments,
		Name:                 doc.Name,
		AnalysisStatus:       doc.AnalysisStatus,
		InitialTimestampNs:   doc.InitialTimestampNs,
		FinalTimestampNs:     doc.FinalTimestampNs,
		DurationNs:           doc.DurationNs,
		MaxTemperature:       doc.MaxTemperature,
		MaxTTimestampNs:      doc.MaxTTimestampNs,
	}

	for i, rawInstance := range doc.Instances {
		instance, err := decodeInstance(rawInstance)
		if err != nil {
			return nil, errors.Annotatef(err, "инстанс %d", i)
		}
		event.Instances = append(event.Instances, instance)
	}

	extra, err := extraFields(data, eventDoc{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	event.Extra = extra

	return &event, nil
}

func encodeEvent(event *Event) (json.RawMessage, error) {
	doc := eventDoc{
		ID:                   event.ID,
		ExperimentID:         event.ExperimentID,
		LineOfSight:          event.LineOfSight,
		Device:               event.Device,
		Category:             event.Category,
		IsAutomaticDetection: event.IsAutomaticDetection,
		Method:               event.Method,
		Confidence:           event.Confidence,
		Severity:             event.Severity,
		User:                 event.User,
		Dataset:              event.Dataset,
		Comments:             event.Comments,
		Name:                 event.Name,
		AnalysisStatus:       event.AnalysisStatus,
		InitialTimestampNs:   event.InitialTimestampNs,
		FinalTimestampNs:     event.FinalTimestampNs,
		DurationNs:           event.DurationNs,
		MaxTemperature:       event.MaxTemperature,
		MaxTTimestampNs:      event.MaxTTimestampNs,
		Instances:            make([]json.RawMessage, 0, len(event.Instances)),
	}

	for i, instance := range event.Instances {
		encoded, err := encodeInstance(instance)
		if err != nil {
			return nil, errors.Annotatef(err, "инстанс %d", i)
		}
		doc.Instances = append(doc.Instances, encoded)
	}

	return mergeExtra(doc, event.Extra)
}

func decodeInstance(data json.RawMessage) (*Instance, error) {
	var doc instanceDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Annotate(err, "разбор инстанса")
	}

	instance := Instance{
		ID:                doc.ID,
		TimestampNs:       doc.TimestampNs,
		PfcID:             doc.PfcID,
		MaxTemperature:    doc.MaxTemperature,
		MinTemperature:    doc.MinTemperature,
		MeanTemperature:   doc.MeanTemperature,
		StdTemperature:    doc.StdTemperature,
		OverheatingFactor: doc.OverheatingFactor,
		CentroidX:         doc.CentroidX,
		CentroidY:         doc.CentroidY,
		PixelArea:         doc.PixelArea,
		PhysicalArea:      doc.PhysicalArea,
		Rect: polygon.Rect{
			Left:   doc.BboxX,
			Top:    doc.BboxY,
			Width:  doc.BboxWidth,
			Height: doc.BboxHeight,
		},
	}

	poly, err := polygon.FromString(doc.Polygon)
	if err != nil {
		return nil, errors.Annotate(err, "разбор полигона")
	}
	if len(poly) > 0 {
		instance.Shape = PolygonShape{Points: poly}
	} else {
		instance.Shape = RectShape{Rect: instance.Rect}
	}

	if doc.MaxPosX != nil && doc.MaxPosY != nil {
		instance.MaxPos = &polygon.Point{X: *doc.MaxPosX, Y: *doc.MaxPosY}
	}
	if doc.MinPosX != nil && doc.MinPosY != nil {
		instance.MinPos = &polygon.Point{X: *doc.MinPosX, Y: *doc.MinPosY}
	}
	instance.MaxWorldPos = worldPoint(doc.MaxWorldX, doc.MaxWorldY, doc.MaxWorldZ)
	instance.MinWorldPos = worldPoint(doc.MinWorldX, doc.MinWorldY, doc.MinWorldZ)
	instance.CentroidWorldPos = worldPoint(doc.CentroidWorldX, doc.CentroidWorldY, doc.CentroidWorldZ)

	quantiles := map[int]*string{50: doc.Quantile50, 25: doc.Quantile25, 10: doc.Quantile10, 5: doc.Quantile5}
	for level, s := range quantiles {
		if s == nil || *s == "" {
			continue
		}
		rect, err := polygon.RectFromString(*s)
		if err != nil {
			return nil, errors.Annotatef(err, "разбор квантиля %d", level)
		}
		if instance.Quantiles == nil {
			instance.Quantiles = make(map[int]polygon.Rect, 4)
		}
		instance.Quantiles[level] = rect
	}

	extra, err := extraFields(data, instanceDoc{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	instance.Extra = extra

	return &instance, nil
}

func encodeInstance(instance *Instance) (json.RawMessage, error) {
	doc := instanceDoc{
		ID:                instance.ID,
		TimestampNs:       instance.TimestampNs,
		BboxX:             instance.Rect.Left,
		BboxY:             instance.Rect.Top,
		BboxWidth:         instance.Rect.Width,
		BboxHeight:        instance.Rect.Height,
		PfcID:             instance.PfcID,
		MaxTemperature:    instance.MaxTemperature,
		MinTemperature:    instance.MinTemperature,
		MeanTemperature:   instance.MeanTemperature,
		StdTemperature:    instance.StdTemperature,
		OverheatingFactor: instance.OverheatingFactor,
		CentroidX:         instance.CentroidX,
		CentroidY:         instance.CentroidY,
		PixelArea:         instance.PixelArea,
		PhysicalArea:      instance.PhysicalArea,
	}

	// Строка полигона записывается только для полигональной формы. Для
	// прямоугольной формы достаточно охватывающего прямоугольника
	if shape, ok := instance.Shape.(PolygonShape); ok {
		doc.Polygon = polygon.ToString(shape.Points)
	}

	if instance.MaxPos != nil {
		doc.MaxPosX = intPtr(instance.MaxPos.X)
		doc.MaxPosY = intPtr(instance.MaxPos.Y)
	}
	if instance.MinPos != nil {
		doc.MinPosX = intPtr(instance.MinPos.X)
		doc.MinPosY = intPtr(instance.MinPos.Y)
	}
	if instance.MaxWorldPos != nil {
		doc.MaxWorldX = floatPtr(instance.MaxWorldPos.X)
		doc.MaxWorldY = floatPtr(instance.MaxWorldPos.Y)
		doc.MaxWorldZ = floatPtr(instance.MaxWorldPos.Z)
	}
	if instance.MinWorldPos != nil {
		doc.MinWorldX = floatPtr(instance.MinWorldPos.X)
		doc.MinWorldY = floatPtr(instance.MinWorldPos.Y)
		doc.MinWorldZ = floatPtr(instance.MinWorldPos.Z)
	}
	if instance.CentroidWorldPos != nil {
		doc.CentroidWorldX = floatPtr(instance.CentroidWorldPos.X)
		doc.CentroidWorldY = floatPtr(instance.CentroidWorldPos.Y)
		doc.CentroidWorldZ = floatPtr(instance.CentroidWorldPos.Z)
	}

	for level, rect := range instance.Quantiles {
		s := polygon.RectToString(rect)
		switch level {
		case 50:
			doc.Quantile50 = &s
		case 25:
			doc.Quantile25 = &s
		case 10:
			doc.Quantile10 = &s
		case 5:
			doc.Quantile5 = &s
		}
	}

	return mergeExtra(doc, instance.Extra)
}

// worldPoint собирает точку в пространстве сцены из трёх координат документа
func worldPoint(x, y, z *float64) *WorldPoint {
	if x == nil || y == nil || z == nil {
		return nil
	}
	return &WorldPoint{X: *x, Y: *y, Z: *z}
}

// extraFields возвращает поля объекта data, не описанные структурой known
func extraFields(data json.RawMessage, known interface{}) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Trace(err)
	}

	knownData, err := json.Marshal(known)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(knownData, &knownMap); err != nil {
		return nil, errors.Trace(err)
	}

	for key := range knownMap {
		delete(raw, key)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// mergeExtra сериализует известные поля known поверх неизвестных extra
func mergeExtra(known interface{}, extra map[string]json.RawMessage) (json.RawMessage, error) {
	knownData, err := json.Marshal(known)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(extra) == 0 {
		return knownData, nil
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(knownData, &out); err != nil {
		return nil, errors.Trace(err)
	}
	for key, value := range extra {
		if _, ok := out[key]; !ok {
			out[key] = value
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}
