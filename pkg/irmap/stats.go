package irmap

import (
	"math"
	"sort"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/termovis/server/pkg/polygon"
)

// QuantileLevels уровни квантилей "N% самых горячих пикселей", для которых
// вычисляются охватывающие прямоугольники
var QuantileLevels = []int{50, 25, 10, 5}

// Options параметры извлечения статистики
type Options struct {
	// Вычислять охватывающие прямоугольники квантилей температуры
	Quantiles bool
	// Пул буферов масок. Если не задан, буфер выделяется на каждый вызов
	Pool *MaskPool
}

// RegionStats статистика температур по пикселям, покрытым полигоном.
// Все координаты даны в системе исходного изображения
type RegionStats struct {
	// Число покрытых пикселей
	Area int

	Max  float64
	Min  float64
	Mean float64
	Std  float64

	// Позиция максимума и минимума температуры. При совпадающих значениях
	// берётся первый пиксель в построчном обходе
	MaxPos polygon.Point
	MinPos polygon.Point

	// Центр масс покрытых пикселей
	CentroidX float64
	CentroidY float64

	// Охватывающие прямоугольники N% самых горячих пикселей по уровням из
	// QuantileLevels. Заполняется только при Options.Quantiles
	Quantiles map[int]polygon.Rect
}

// Extract вычисляет статистику температур карты m по области, ограниченной
// полигоном outline. Карта обрезается до охватывающего прямоугольника
// полигона, полигон растеризуется в маску (внутренность и граница), после
// чего статистика собирается по значениям под маской
func Extract(outline polygon.Polygon, m *Map, opts Options) (*RegionStats, error) {
	rect, err := polygon.BoundingRectangle(outline)
	if err != nil {
		return nil, errors.Trace(ErrEmptyRegion)
	}
	if !m.covers(rect) {
		return nil, errors.Errorf(
			"карта %dx%d не покрывает область (%d, %d, %d, %d)",
			m.width, m.height, rect.Left, rect.Top, rect.Width, rect.Height,
		)
	}

	// Переносим полигон в систему координат вырезанной области
	local := make(polygon.Polygon, len(outline))
	for i, p := range outline {
		local[i] = polygon.Point{X: p.X - rect.Left, Y: p.Y - rect.Top}
	}

	size := rect.Width * rect.Height
	var mask []uint8
	if opts.Pool != nil {
		mask = opts.Pool.get(size)
		defer opts.Pool.put(mask)
	} else {
		mask = make([]uint8, size)
	}
	rasterize(local, rect.Width, rect.Height, mask)

	// Собираем значения и их координаты в построчном порядке
	values := make([]float64, 0, size)
	coordsX := make([]int, 0, size)
	coordsY := make([]int, 0, size)
	for y := 0; y < rect.Height; y++ {
		for x := 0; x < rect.Width; x++ {
			if mask[y*rect.Width+x] == 0 {
				continue
			}
			values = append(values, m.At(rect.Left+x, rect.Top+y))
			coordsX = append(coordsX, x)
			coordsY = append(coordsY, y)
		}
	}
	if len(values) == 0 {
		return nil, errors.Trace(ErrEmptyRegion)
	}

	res := RegionStats{
		Area: len(values),
		Mean: stat.Mean(values, nil),
	}

	posMax, posMin := 0, 0
	sumX, sumY := 0.0, 0.0
	for i, v := range values {
		if v > values[posMax] {
			posMax = i
		}
		if v < values[posMin] {
			posMin = i
		}
		sumX += float64(coordsX[i])
		sumY += float64(coordsY[i])
	}
	res.Max = values[posMax]
	res.Min = values[posMin]
	res.MaxPos = polygon.Point{X: rect.Left + coordsX[posMax], Y: rect.Top + coordsY[posMax]}
	res.MinPos = polygon.Point{X: rect.Left + coordsX[posMin], Y: rect.Top + coordsY[posMin]}
	res.CentroidX = float64(rect.Left) + sumX/float64(len(values))
	res.CentroidY = float64(rect.Top) + sumY/float64(len(values))

	// Среднеквадратичное отклонение по всей совокупности пикселей
	var sq float64
	for _, v := range values {
		d := v - res.Mean
		sq += d * d
	}
	res.Std = math.Sqrt(sq / float64(len(values)))

	if opts.Quantiles {
		res.Quantiles = quantileBoxes(values, coordsX, coordsY, rect)
	}
	return &res, nil
}

// quantileBoxes вычисляет охватывающий прямоугольник N% самых горячих
// пикселей для каждого уровня из QuantileLevels. Уровни независимы: каждый
// отбор идёт по полному набору пикселей, а не по результату предыдущего
func quantileBoxes(values []float64, coordsX, coordsY []int, rect polygon.Rect) map[int]polygon.Rect {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	res := make(map[int]polygon.Rect, len(QuantileLevels))
	for _, level := range QuantileLevels {
		// Порог — квантиль уровня 1-N/100 с линейной интерполяцией
		// эмпирической функции распределения (stat.LinInterp). Эта оценка
		// не совпадает с оценкой numpy.quantile по умолчанию (интерполяция
		// по рангу (n-1)p): пороги могут расходиться в пределах шага между
		// соседними отсортированными значениями, и граничный пиксель может
		// попасть в отбор у одной схемы и не попасть у другой
		threshold := stat.Quantile(1-float64(level)/100, stat.LinInterp, sorted, nil)

		x0, y0 := math.MaxInt, math.MaxInt
		x1, y1 := math.MinInt, math.MinInt
		for i, v := range values {
			if v < threshold {
				continue
			}
			if coordsX[i] < x0 {
				x0 = coordsX[i]
			}
			if coordsX[i] > x1 {
				x1 = coordsX[i]
			}
			if coordsY[i] < y0 {
				y0 = coordsY[i]
			}
			if coordsY[i] > y1 {
				y1 = coordsY[i]
			}
		}
		if x1 < x0 {
			// Порог выше максимума быть не может, но пустой отбор не
			// должен породить некорректный прямоугольник
			continue
		}
		res[level] = polygon.Rect{
			Left:   rect.Left + x0,
			Top:    rect.Top + y0,
			Width:  x1 - x0 + 1,
			Height: y1 - y0 + 1,
		}
	}
	return res
}
