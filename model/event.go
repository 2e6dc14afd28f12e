package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/termovis/server/pkg/polygon"
)

// ErrEmptyEvent операция не определена для события без инстансов
var ErrEmptyEvent = errors.New("событие не содержит инстансов")

// IsEmptyEvent проверяет, что ошибка err обозначает событие без инстансов
func IsEmptyEvent(err error) bool {
	return errors.Cause(err) == ErrEmptyEvent
}

// globalHullMaxVertices предварительный лимит числа вершин общего полигона
// события до подгонки под лимит строки
const globalHullMaxVertices = 75

// Event тепловое событие: упорядоченная по времени последовательность
// инстансов одной непрерывной тепловой аномалии и её сводные характеристики.
// Сводные поля заполняются вызовом Compute
type Event struct {
	ID int64

	ExperimentID         int64
	LineOfSight          string `conform:"trim"`
	Device               string `conform:"trim" validate:"required"`
	Category             string `conform:"trim"`
	IsAutomaticDetection bool
	Method               string  `conform:"trim" validate:"required"`
	Confidence           float64 `validate:"gte=0,lte=1"`
	Severity             string  `conform:"trim"`
	User                 string  `conform:"trim"`
	Dataset              string  `conform:"trim"`
	Comments             string  `conform:"trim"`
	Name                 string  `conform:"trim"`
	AnalysisStatus       string  `conform:"trim"`

	// Сводные поля, вычисляемые по инстансам
	InitialTimestampNs int64
	FinalTimestampNs   int64
	DurationNs         int64
	// Максимальная температура среди инстансов и метка времени первого
	// инстанса, на котором она достигнута
	MaxTemperature  *float64
	MaxTTimestampNs *int64

	// Инстансы события. Событие владеет ими монопольно; после Compute
	// порядок канонический - по возрастанию метки времени
	Instances []*Instance

	// Неизвестные поля документа, переносимые без изменений
	Extra map[string]json.RawMessage
}

// JoinDatasets нормализует список датасетов в строковое поле Dataset:
// значения сортируются и соединяются запятой ("1, 3, 5")
func JoinDatasets(datasets []int) string {
	sorted := make([]int, len(datasets))
	copy(sorted, datasets)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, d := range sorted {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ", ")
}

// AddInstance добавляет инстанс в событие. Сводные поля после добавления
// недействительны до повторного вызова Compute
func (m *Event) AddInstance(instance *Instance) {
	m.Instances = append(m.Instances, instance)
}

// Timestamps метки времени всех инстансов события в текущем порядке
func (m *Event) Timestamps() []int64 {
	res := make([]int64, len(m.Instances))
	for i, instance := range m.Instances {
		res[i] = instance.TimestampNs
	}
	return res
}

// Compute вычисляет сводные поля события по текущему набору инстансов.
// Инстансы дедуплицируются по метке времени (при совпадении побеждает
// добавленный позже), сортируются по возрастанию времени, и этот порядок
// становится каноническим. Максимум температуры обновляется только при
// строгом превышении, поэтому при равенстве запоминается самый ранний
// инстанс. Вычисление всегда идёт от текущего содержимого инстансов, поэтому
// повторный вызов при неизменном наборе даёт тот же результат
func (m *Event) Compute() error {
	if len(m.Instances) == 0 {
		return errors.Trace(ErrEmptyEvent)
	}

	unique := make(map[int64]*Instance, len(m.Instances))
	for _, instance := range m.Instances {
		unique[instance.TimestampNs] = instance
	}

	timestamps := make([]int64, 0, len(unique))
	for ts := range unique {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	m.Instances = m.Instances[:0]
	m.MaxTemperature = nil
	m.MaxTTimestampNs = nil
	for _, ts := range timestamps {
		instance := unique[ts]
		m.Instances = append(m.Instances, instance)

		if instance.MaxTemperature == nil {
			continue
		}
		if m.MaxTemperature == nil || *instance.MaxTemperature > *m.MaxTemperature {
			maxT := *instance.MaxTemperature
			maxTS := instance.TimestampNs
			m.MaxTemperature = &maxT
			m.MaxTTimestampNs = &maxTS
		}
	}

	m.InitialTimestampNs = timestamps[0]
	m.FinalTimestampNs = timestamps[len(timestamps)-1]
	m.DurationNs = m.FinalTimestampNs - m.InitialTimestampNs

	return nil
}

// GlobalPolygon общий полигон события: выпуклая оболочка контуров всех
// инстансов, усечённая до лимита строки budget (при budget <= 0 берётся
// DefaultGlobalPolygonBudget). Выпуклая оболочка завышает площадь для
// невыпуклых событий; поведение сохранено для совместимости со старым
// форматом
func (m *Event) GlobalPolygon(budget int) (polygon.Polygon, error) {
	if len(m.Instances) == 0 {
		return nil, errors.Trace(ErrEmptyEvent)
	}
	if budget <= 0 {
		budget = DefaultGlobalPolygonBudget
	}

	points := make([]polygon.Point, 0, len(m.Instances)*8)
	for _, instance := range m.Instances {
		points = append(points, instance.Outline().Closed()...)
	}

	hull := polygon.ConvexHull(points)
	if len(hull) > globalHullMaxVertices {
		hull = polygon.NewSimplifier(hull).FromNumber(globalHullMaxVertices)
	}

	res, err := polygon.FitString(hull, budget)
	if err != nil {
		return nil, errors.Annotate(err, "подгонка общего полигона")
	}
	return res, nil
}
