package irmap

import (
	"math"
	"sort"
	"sync"

	"github.com/termovis/server/pkg/polygon"
)

// MaskPool пул буферов масок для повторного использования между вызовами
// Extract. Общего состояния на уровне пакета нет: пул создаётся вызывающей
// стороной и передаётся через Options. Захват и возврат буфера ограничены
// одним вызовом
type MaskPool struct {
	pool sync.Pool
}

// NewMaskPool конструктор MaskPool
func NewMaskPool() *MaskPool {
	return &MaskPool{
		pool: sync.Pool{
			New: func() interface{} { return []uint8(nil) },
		},
	}
}

// get возвращает обнулённый буфер длиной не менее n
func (m *MaskPool) get(n int) []uint8 {
	buf := m.pool.Get().([]uint8)
	if cap(buf) < n {
		return make([]uint8, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// put возвращает буфер в пул
func (m *MaskPool) put(buf []uint8) {
	m.pool.Put(buf) //nolint:staticcheck
}

// rasterize заполняет маску mask размером width x height полигоном poly:
// единица внутри полигона и на его границе, ноль снаружи. Заполнение
// построчное по чётности пересечений, граница дорисовывается отдельно
func rasterize(poly polygon.Polygon, width, height int, mask []uint8) {
	ring := poly.Closed()

	for y := 0; y < height; y++ {
		xs := make([]float64, 0, 8)
		for i := 0; i+1 < len(ring); i++ {
			a, b := ring[i], ring[i+1]
			if a.Y == b.Y {
				continue
			}
			if (a.Y <= y && y < b.Y) || (b.Y <= y && y < a.Y) {
				x := float64(a.X) + float64(y-a.Y)*float64(b.X-a.X)/float64(b.Y-a.Y)
				xs = append(xs, x)
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Ceil(xs[i]))
			x1 := int(math.Floor(xs[i+1]))
			if x0 < 0 {
				x0 = 0
			}
			if x1 > width-1 {
				x1 = width - 1
			}
			for x := x0; x <= x1; x++ {
				mask[y*width+x] = 1
			}
		}
	}

	// Граница полигона входит в маску
	for i := 0; i+1 < len(ring); i++ {
		drawLine(ring[i], ring[i+1], width, height, mask)
	}
	if len(ring) == 1 {
		p := ring[0]
		if p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height {
			mask[p.Y*width+p.X] = 1
		}
	}
}

// drawLine растеризация отрезка алгоритмом Брезенхема
func drawLine(a, b polygon.Point, width, height int, mask []uint8) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx := 1
	if a.X > b.X {
		sx = -1
	}
	sy := 1
	if a.Y > b.Y {
		sy = -1
	}

	x, y := a.X, a.Y
	err := dx + dy
	for {
		if x >= 0 && x < width && y >= 0 && y < height {
			mask[y*width+x] = 1
		}
		if x == b.X && y == b.Y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
