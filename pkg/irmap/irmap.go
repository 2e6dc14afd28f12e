// Package irmap работа с инфракрасной картой температур: растеризация
// полигона в маску и извлечение статистики температур по покрытым пикселям
package irmap

import (
	"github.com/juju/errors"

	"github.com/termovis/server/pkg/polygon"
)

// ErrEmptyRegion полигон не покрывает ни одного пикселя карты
var ErrEmptyRegion = errors.New("область не покрывает ни одного пикселя")

// IsEmptyRegion проверяет, что ошибка err обозначает пустую область
func IsEmptyRegion(err error) bool {
	return errors.Cause(err) == ErrEmptyRegion
}

// Map карта температур изображения. Значения хранятся построчно.
// Инициируется через NewMap или NewMapFrom
type Map struct {
	width  int
	height int
	data   []float64
}

// NewMap конструктор карты из плоского построчного массива значений
func NewMap(width, height int, data []float64) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("некорректный размер карты %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("длина данных %d не соответствует размеру карты %dx%d", len(data), width, height)
	}
	return &Map{width: width, height: height, data: data}, nil
}

// NewMapFrom конструктор карты из массива строк
func NewMapFrom(rows [][]float64) (*Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("передана пустая карта")
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, errors.Errorf("строка %d имеет длину %d вместо %d", i, len(row), width)
		}
		data = append(data, row...)
	}
	return &Map{width: width, height: len(rows), data: data}, nil
}

// Width ширина карты в пикселях
func (m *Map) Width() int { return m.width }

// Height высота карты в пикселях
func (m *Map) Height() int { return m.height }

// At значение температуры в пикселе (x, y)
func (m *Map) At(x, y int) float64 { return m.data[y*m.width+x] }

// covers проверяет, что прямоугольник целиком лежит внутри карты
func (m *Map) covers(rect polygon.Rect) bool {
	return rect.Left >= 0 && rect.Top >= 0 &&
		rect.Left+rect.Width <= m.width && rect.Top+rect.Height <= m.height
}
