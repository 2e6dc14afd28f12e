package irmap

import (
	"testing"

	"github.com/termovis/server/pkg/polygon"
)

func maskAt(mask []uint8, width, x, y int) uint8 {
	return mask[y*width+x]
}

func TestRasterizeRectangle(t *testing.T) {
	// Прямоугольный контур покрывает все пиксели внутри и на границе
	poly := polygon.Polygon{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 2}, {X: 0, Y: 2}}
	mask := make([]uint8, 4*3)
	rasterize(poly, 4, 3, mask)

	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if maskAt(mask, 4, x, y) != 1 {
				t.Errorf("пиксель (%d, %d) не покрыт", x, y)
			}
		}
	}
}

func TestRasterizeTriangle(t *testing.T) {
	poly := polygon.Polygon{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}}
	mask := make([]uint8, 3*3)
	rasterize(poly, 3, 3, mask)

	want := map[polygon.Point]bool{
		{X: 0, Y: 0}: true, {X: 1, Y: 0}: true, {X: 2, Y: 0}: true,
		{X: 0, Y: 1}: true, {X: 1, Y: 1}: true,
		{X: 0, Y: 2}: true,
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			got := maskAt(mask, 3, x, y) == 1
			if got != want[polygon.Point{X: x, Y: y}] {
				t.Errorf("пиксель (%d, %d): покрыт=%v", x, y, got)
			}
		}
	}
}

func TestRasterizePoint(t *testing.T) {
	poly := polygon.Polygon{{X: 1, Y: 1}}
	mask := make([]uint8, 3*3)
	rasterize(poly, 3, 3, mask)

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			want := x == 1 && y == 1
			if got := maskAt(mask, 3, x, y) == 1; got != want {
				t.Errorf("пиксель (%d, %d): покрыт=%v", x, y, got)
			}
		}
	}
}

func TestMaskPoolReuse(t *testing.T) {
	pool := NewMaskPool()

	buf := pool.get(9)
	for i := range buf {
		buf[i] = 1
	}
	pool.put(buf)

	// Повторно выданный буфер обнулён
	again := pool.get(9)
	for i, v := range again {
		if v != 0 {
			t.Fatalf("буфер не обнулён в позиции %d", i)
		}
	}

	// Запрос большего размера выделяет новый буфер нужной длины
	big := pool.get(100)
	if len(big) != 100 {
		t.Errorf("длина буфера %d, ожидалось 100", len(big))
	}
}
