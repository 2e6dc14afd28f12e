package model

import (
	"github.com/termovis/server/pkg/polygon"
)

// Shape форма области инстанса на изображении. Форма задаётся либо
// полигоном, либо прямоугольником: явное разделение вместо проверки строки
// полигона на пустоту
type Shape interface {
	// Outline контур формы в пиксельных координатах
	Outline() polygon.Polygon
	// Bounds охватывающий прямоугольник формы
	Bounds() polygon.Rect
}

// PolygonShape форма, заданная полигоном
type PolygonShape struct {
	Points polygon.Polygon
}

// Outline контур формы
func (m PolygonShape) Outline() polygon.Polygon {
	return m.Points
}

// Bounds охватывающий прямоугольник полигона
func (m PolygonShape) Bounds() polygon.Rect {
	rect, err := polygon.BoundingRectangle(m.Points)
	if err != nil {
		return polygon.Rect{}
	}
	return rect
}

// RectShape форма, заданная прямоугольником
type RectShape struct {
	Rect polygon.Rect
}

// Outline четырёхточечный контур прямоугольника
func (m RectShape) Outline() polygon.Polygon {
	return polygon.FromRect(m.Rect)
}

// Bounds охватывающий прямоугольник
func (m RectShape) Bounds() polygon.Rect {
	return m.Rect
}
