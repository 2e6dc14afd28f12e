// Package polygon кодек и геометрические операции над полигонами тепловых
// событий. Полигон хранится как последовательность целочисленных пиксельных
// координат и сериализуется в строку вида "x0 y0 x1 y1 ... " для записи в
// колонку фиксированной ширины.
package polygon

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

var (
	// ErrFormat строка полигона не соответствует формату "x0 y0 x1 y1 ..."
	ErrFormat = errors.New("некорректный формат строки полигона")
	// ErrEmptyPolygon операция не определена для пустого полигона
	ErrEmptyPolygon = errors.New("полигон пуст")
	// ErrBudget полигон не удаётся упростить до заданного лимита строки
	ErrBudget = errors.New("полигон не умещается в заданный лимит строки")
)

// IsFormat проверяет, что ошибка err обозначает некорректный формат строки
func IsFormat(err error) bool {
	return errors.Cause(err) == ErrFormat
}

// IsEmptyPolygon проверяет, что ошибка err обозначает пустой полигон
func IsEmptyPolygon(err error) bool {
	return errors.Cause(err) == ErrEmptyPolygon
}

// IsBudget проверяет, что ошибка err обозначает невыполнимый лимит строки
func IsBudget(err error) bool {
	return errors.Cause(err) == ErrBudget
}

// Point точка изображения в пикселях
type Point struct {
	X int
	Y int
}

// Polygon упорядоченная последовательность точек. Может быть открытым или
// явно замкнутым (первая точка равна последней). Пустой полигон корректен и
// означает "полигон не записан".
type Polygon []Point

// Rect прямоугольник (левый верхний угол, ширина и высота) в пикселях.
// Ширина и высота считаются включительно: Width = xmax - xmin + 1
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// ToString сериализует полигон в строку "x0 y0 x1 y1 ... " с завершающим
// пробелом. Пустой полигон сериализуется в пустую строку
func ToString(poly Polygon) string {
	var sb strings.Builder
	for _, p := range poly {
		sb.WriteString(strconv.Itoa(p.X))
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(p.Y))
		sb.WriteByte(' ')
	}
	return sb.String()
}

// FromString разбирает строку "x0 y0 x1 y1 ..." в полигон. Пустая строка
// разбирается в пустой полигон
func FromString(s string) (Polygon, error) {
	fields := strings.Fields(s)
	if len(fields)%2 != 0 {
		return nil, errors.Annotatef(ErrFormat, "нечётное число значений (%d)", len(fields))
	}

	poly := make(Polygon, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, errors.Annotatef(ErrFormat, "значение %q не является целым числом", fields[i])
		}
		y, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, errors.Annotatef(ErrFormat, "значение %q не является целым числом", fields[i+1])
		}
		poly = append(poly, Point{X: x, Y: y})
	}
	return poly, nil
}

// RectToString сериализует прямоугольник в строку "x y w h" без
// завершающего пробела
func RectToString(rect Rect) string {
	return strconv.Itoa(rect.Left) + " " + strconv.Itoa(rect.Top) + " " +
		strconv.Itoa(rect.Width) + " " + strconv.Itoa(rect.Height)
}

// RectFromString разбирает строку "x y w h" в прямоугольник
func RectFromString(s string) (Rect, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return Rect{}, errors.Annotatef(ErrFormat, "ожидалось 4 значения, получено %d", len(fields))
	}
	values := make([]int, 4)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Rect{}, errors.Annotatef(ErrFormat, "значение %q не является целым числом", f)
		}
		values[i] = v
	}
	return Rect{Left: values[0], Top: values[1], Width: values[2], Height: values[3]}, nil
}

// BoundingRectangle возвращает охватывающий прямоугольник полигона за один
// линейный проход
func BoundingRectangle(poly Polygon) (Rect, error) {
	if len(poly) == 0 {
		return Rect{}, errors.Trace(ErrEmptyPolygon)
	}

	xmin, xmax := poly[0].X, poly[0].X
	ymin, ymax := poly[0].Y, poly[0].Y
	for _, p := range poly {
		if p.X < xmin {
			xmin = p.X
		}
		if p.X > xmax {
			xmax = p.X
		}
		if p.Y < ymin {
			ymin = p.Y
		}
		if p.Y > ymax {
			ymax = p.Y
		}
	}
	return Rect{
		Left:   xmin,
		Top:    ymin,
		Width:  xmax - xmin + 1,
		Height: ymax - ymin + 1,
	}, nil
}

// IsRectangle проверяет, что полигон описывает прямоугольник со сторонами
// вдоль осей, и возвращает этот прямоугольник. Допускается 4 или 5 точек
// (5 для явно замкнутого прямоугольника). Проверка строго структурная: среди
// координат должно быть ровно два различных значения по каждой оси
func IsRectangle(poly Polygon) (Rect, bool) {
	if len(poly) < 4 || len(poly) > 5 {
		return Rect{}, false
	}

	xs := make([]int, 0, 2)
	ys := make([]int, 0, 2)
	for _, p := range poly {
		if !containsInt(xs, p.X) {
			xs = append(xs, p.X)
		}
		if !containsInt(ys, p.Y) {
			ys = append(ys, p.Y)
		}
	}
	if len(xs) != 2 || len(ys) != 2 {
		return Rect{}, false
	}

	left := minInt(xs[0], xs[1])
	top := minInt(ys[0], ys[1])
	return Rect{
		Left:   left,
		Top:    top,
		Width:  maxInt(xs[0], xs[1]) - left + 1,
		Height: maxInt(ys[0], ys[1]) - top + 1,
	}, true
}

// FromRect строит четырёхточечный полигон по углам прямоугольника. Углы
// берутся включительно, поэтому правая и нижняя стороны смещены на единицу
// внутрь
func FromRect(rect Rect) Polygon {
	return Polygon{
		{X: rect.Left, Y: rect.Top},
		{X: rect.Left + rect.Width - 1, Y: rect.Top},
		{X: rect.Left + rect.Width - 1, Y: rect.Top + rect.Height - 1},
		{X: rect.Left, Y: rect.Top + rect.Height - 1},
	}
}

// Closed возвращает явно замкнутый полигон: если первая точка не равна
// последней, она добавляется в конец. Исходный полигон не изменяется
func (m Polygon) Closed() Polygon {
	if len(m) == 0 {
		return Polygon{}
	}
	res := make(Polygon, len(m), len(m)+1)
	copy(res, m)
	if m[0] != m[len(m)-1] {
		res = append(res, m[0])
	}
	return res
}

// Equal проверяет поэлементное равенство двух полигонов
func (m Polygon) Equal(other Polygon) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// Dedupe удаляет повторяющиеся точки, сохраняя первое вхождение и исходный
// порядок обхода
func (m Polygon) Dedupe() Polygon {
	res := make(Polygon, 0, len(m))
	seen := make(map[Point]struct{}, len(m))
	for _, p := range m {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		res = append(res, p)
	}
	return res
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
