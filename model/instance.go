package model

import (
	"encoding/json"

	"github.com/juju/errors"

	"github.com/termovis/server/pkg/irmap"
	"github.com/termovis/server/pkg/polygon"
)

const (
	// DefaultPolygonBudget лимит длины строки полигона инстанса (ширина
	// колонки в БД)
	DefaultPolygonBudget = 256
	// DefaultGlobalPolygonBudget лимит длины строки общего полигона события
	DefaultGlobalPolygonBudget = 600
)

// WorldPoint точка в трёхмерном пространстве сцены, в метрах. Координаты
// вычисляются внешней моделью сцены и переносятся без изменений
type WorldPoint struct {
	X float64
	Y float64
	Z float64
}

// Instance наблюдение теплового события в один момент времени: форма области
// на изображении и статистика температур по её пикселям
type Instance struct {
	ID int64

	// Метка времени наблюдения в наносекундах. Внутри события уникальна
	// после дедупликации
	TimestampNs int64 `validate:"gte=0"`

	// Форма области. Может быть nil, тогда форма восстанавливается из Rect
	Shape Shape
	// Охватывающий прямоугольник формы (хранится избыточно)
	Rect polygon.Rect

	// Идентификатор компонента установки, на котором наблюдается инстанс
	PfcID int64

	MaxTemperature  *float64
	MinTemperature  *float64
	MeanTemperature *float64
	StdTemperature  *float64

	// Позиции экстремумов температуры на изображении
	MaxPos *polygon.Point
	MinPos *polygon.Point

	// Центр масс области на изображении
	CentroidX *float64
	CentroidY *float64

	// Число пикселей области
	PixelArea *int

	// Поля, вычисляемые внешними системами и переносимые без изменений
	OverheatingFactor *float64
	PhysicalArea      *float64
	MaxWorldPos       *WorldPoint
	MinWorldPos       *WorldPoint
	CentroidWorldPos  *WorldPoint

	// Охватывающие прямоугольники N% самых горячих пикселей по уровням
	// irmap.QuantileLevels
	Quantiles map[int]polygon.Rect

	// Неизвестные поля документа, переносимые без изменений
	Extra map[string]json.RawMessage
}

// NewInstanceFromPolygon конструктор инстанса из полигона. Полигон при
// необходимости упрощается до budget символов строкового представления
// (при budget <= 0 берётся DefaultPolygonBudget)
func NewInstanceFromPolygon(poly polygon.Polygon, timestampNs int64, budget int) (*Instance, error) {
	if budget <= 0 {
		budget = DefaultPolygonBudget
	}

	fitted, err := polygon.FitString(poly, budget)
	if err != nil {
		return nil, errors.Annotate(err, "упрощение полигона")
	}

	rect, ok := polygon.IsRectangle(fitted)
	if !ok {
		rect, err = polygon.BoundingRectangle(fitted)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}

	return &Instance{
		TimestampNs: timestampNs,
		Shape:       PolygonShape{Points: fitted},
		Rect:        rect,
	}, nil
}

// NewInstanceFromRect конструктор инстанса из прямоугольника
func NewInstanceFromRect(rect polygon.Rect, timestampNs int64) *Instance {
	return &Instance{
		TimestampNs: timestampNs,
		Shape:       RectShape{Rect: rect},
		Rect:        rect,
	}
}

// Outline контур инстанса. Если форма не записана, контур восстанавливается
// из охватывающего прямоугольника
func (m *Instance) Outline() polygon.Polygon {
	if m.Shape != nil {
		return m.Shape.Outline()
	}
	return RectShape{Rect: m.Rect}.Outline()
}

// ApplyImage заполняет статистику температур инстанса по инфракрасной карте
func (m *Instance) ApplyImage(im *irmap.Map, opts irmap.Options) error {
	stats, err := irmap.Extract(m.Outline(), im, opts)
	if err != nil {
		return errors.Annotate(err, "извлечение статистики области")
	}

	m.PixelArea = intPtr(stats.Area)
	m.MaxTemperature = floatPtr(stats.Max)
	m.MinTemperature = floatPtr(stats.Min)
	m.MeanTemperature = floatPtr(stats.Mean)
	m.StdTemperature = floatPtr(stats.Std)
	m.MaxPos = &polygon.Point{X: stats.MaxPos.X, Y: stats.MaxPos.Y}
	m.MinPos = &polygon.Point{X: stats.MinPos.X, Y: stats.MinPos.Y}
	m.CentroidX = floatPtr(stats.CentroidX)
	m.CentroidY = floatPtr(stats.CentroidY)

	if len(stats.Quantiles) > 0 {
		m.Quantiles = make(map[int]polygon.Rect, len(stats.Quantiles))
		for level, rect := range stats.Quantiles {
			m.Quantiles[level] = rect
		}
	}
	return nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
