package polygon

import (
	"testing"
)

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		want string
	}{
		{"пустой полигон", Polygon{}, ""},
		{"одна точка", Polygon{{5, 3}}, "5 3 "},
		{"несколько точек", Polygon{{0, 0}, {4, 0}, {4, 3}}, "0 0 4 0 4 3 "},
		{"отрицательные координаты", Polygon{{-1, -2}}, "-1 -2 "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToString(tt.poly); got != tt.want {
				t.Errorf("ToString() = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

func TestFromString(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    Polygon
		wantErr bool
	}{
		{"пустая строка", "", Polygon{}, false},
		{"строка с завершающим пробелом", "0 0 4 0 4 3 ", Polygon{{0, 0}, {4, 0}, {4, 3}}, false},
		{"лишние пробелы", "  5   3  ", Polygon{{5, 3}}, false},
		{"нечётное число значений", "1 2 3", nil, true},
		{"не число", "1 a", nil, true},
		{"дробное число", "1.5 2", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromString(tt.s)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ожидалась ошибка")
				}
				if !IsFormat(err) {
					t.Errorf("ожидалась ошибка формата, получено %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("FromString() = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	poly := Polygon{{0, 0}, {10, 2}, {7, 9}, {-3, 4}}
	got, err := FromString(ToString(poly))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(poly) {
		t.Errorf("после кодека получено %v, ожидалось %v", got, poly)
	}
}

func TestRectString(t *testing.T) {
	rect := Rect{Left: 5, Top: 3, Width: 6, Height: 4}
	s := RectToString(rect)
	if s != "5 3 6 4" {
		t.Errorf("RectToString() = %q, ожидалось %q", s, "5 3 6 4")
	}
	got, err := RectFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != rect {
		t.Errorf("после кодека получено %+v, ожидалось %+v", got, rect)
	}

	if _, err := RectFromString("5 3 6"); !IsFormat(err) {
		t.Errorf("ожидалась ошибка формата, получено %v", err)
	}
}

func TestBoundingRectangle(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		want Rect
	}{
		{
			"прямоугольный контур",
			Polygon{{0, 0}, {4, 0}, {4, 3}, {0, 3}},
			Rect{Left: 0, Top: 0, Width: 5, Height: 4},
		},
		{
			"две точки",
			Polygon{{5, 3}, {10, 6}},
			Rect{Left: 5, Top: 3, Width: 6, Height: 4},
		},
		{
			"одна точка",
			Polygon{{7, 2}},
			Rect{Left: 7, Top: 2, Width: 1, Height: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BoundingRectangle(tt.poly)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("BoundingRectangle() = %+v, ожидалось %+v", got, tt.want)
			}
		})
	}

	t.Run("пустой полигон", func(t *testing.T) {
		_, err := BoundingRectangle(Polygon{})
		if !IsEmptyPolygon(err) {
			t.Errorf("ожидалась ошибка пустого полигона, получено %v", err)
		}
	})
}

func TestIsRectangle(t *testing.T) {
	tests := []struct {
		name     string
		poly     Polygon
		want     Rect
		wantRect bool
	}{
		{
			"открытый прямоугольник",
			Polygon{{0, 0}, {4, 0}, {4, 3}, {0, 3}},
			Rect{Left: 0, Top: 0, Width: 5, Height: 4},
			true,
		},
		{
			"замкнутый прямоугольник",
			Polygon{{0, 0}, {4, 0}, {4, 3}, {0, 3}, {0, 0}},
			Rect{Left: 0, Top: 0, Width: 5, Height: 4},
			true,
		},
		{
			"произвольный порядок углов",
			Polygon{{4, 3}, {0, 0}, {4, 0}, {0, 3}},
			Rect{Left: 0, Top: 0, Width: 5, Height: 4},
			true,
		},
		{"треугольник", Polygon{{0, 0}, {4, 0}, {2, 3}}, Rect{}, false},
		{"четыре точки не прямоугольником", Polygon{{0, 0}, {4, 0}, {4, 3}, {2, 5}}, Rect{}, false},
		{"шесть точек", Polygon{{0, 0}, {2, 0}, {4, 0}, {4, 3}, {2, 3}, {0, 3}}, Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IsRectangle(tt.poly)
			if ok != tt.wantRect {
				t.Fatalf("IsRectangle() ok = %v, ожидалось %v", ok, tt.wantRect)
			}
			if ok && got != tt.want {
				t.Errorf("IsRectangle() = %+v, ожидалось %+v", got, tt.want)
			}
		})
	}
}

func TestFromRect(t *testing.T) {
	rect := Rect{Left: 5, Top: 3, Width: 10, Height: 2}
	poly := FromRect(rect)
	if got := ToString(poly); got != "5 3 14 3 14 4 5 4 " {
		t.Errorf("ToString(FromRect()) = %q", got)
	}

	// Восстановленный прямоугольник совпадает с исходным
	back, ok := IsRectangle(poly)
	if !ok || back != rect {
		t.Errorf("IsRectangle(FromRect()) = %+v, %v", back, ok)
	}
}

func TestClosed(t *testing.T) {
	open := Polygon{{0, 0}, {4, 0}, {4, 3}}
	closed := open.Closed()
	if len(closed) != 4 || closed[3] != open[0] {
		t.Errorf("Closed() = %v", closed)
	}
	// Исходный полигон не изменяется
	if len(open) != 3 {
		t.Errorf("исходный полигон изменён: %v", open)
	}
	// Повторное замыкание ничего не добавляет
	if again := closed.Closed(); len(again) != 4 {
		t.Errorf("повторный Closed() = %v", again)
	}
}

func TestDedupe(t *testing.T) {
	poly := Polygon{{1, 1}, {2, 2}, {1, 1}, {3, 3}, {2, 2}}
	want := Polygon{{1, 1}, {2, 2}, {3, 3}}
	if got := poly.Dedupe(); !got.Equal(want) {
		t.Errorf("Dedupe() = %v, ожидалось %v", got, want)
	}
}
