package polygon

import (
	"strings"
	"testing"
)

// zigzag полигон из n вершин с чередующейся высотой зубцов, у которого все
// внутренние вершины имеют разную эффективную площадь
func zigzag(n int) Polygon {
	poly := make(Polygon, 0, n)
	for i := 0; i < n; i++ {
		y := 0
		if i%2 == 1 {
			y = 1 + i
		}
		poly = append(poly, Point{X: i * 3, Y: y})
	}
	return poly
}

func TestFromNumber(t *testing.T) {
	poly := zigzag(9)
	simplifier := NewSimplifier(poly)

	t.Run("порядок обхода сохраняется", func(t *testing.T) {
		got := simplifier.FromNumber(5)
		if len(got) != 5 {
			t.Fatalf("получено %d вершин, ожидалось 5", len(got))
		}
		pos := 0
		for _, p := range got {
			for pos < len(poly) && poly[pos] != p {
				pos++
			}
			if pos == len(poly) {
				t.Fatalf("вершина %v нарушает исходный порядок", p)
			}
		}
	})

	t.Run("крайние вершины не удаляются", func(t *testing.T) {
		got := simplifier.FromNumber(2)
		if len(got) != 2 || got[0] != poly[0] || got[1] != poly[len(poly)-1] {
			t.Errorf("FromNumber(2) = %v", got)
		}
	})

	t.Run("усечение вложенное", func(t *testing.T) {
		// Каждое меньшее усечение является подмножеством большего
		prev := simplifier.FromNumber(9)
		for n := 8; n >= 2; n-- {
			cur := simplifier.FromNumber(n)
			if len(cur) != n {
				t.Fatalf("FromNumber(%d) вернул %d вершин", n, len(cur))
			}
			for _, p := range cur {
				found := false
				for _, q := range prev {
					if p == q {
						found = true
						break
					}
				}
				if !found {
					t.Fatalf("вершина %v из усечения %d отсутствует в усечении %d", p, n, n+1)
				}
			}
			prev = cur
		}
	})

	t.Run("запрос всех вершин возвращает копию", func(t *testing.T) {
		got := simplifier.FromNumber(len(poly))
		if !got.Equal(poly) {
			t.Errorf("FromNumber(len) = %v", got)
		}
		got[0] = Point{X: -100, Y: -100}
		if simplifier.FromNumber(len(poly))[0] != poly[0] {
			t.Error("изменение результата повлияло на внутреннее состояние")
		}
	})
}

func TestFitString(t *testing.T) {
	t.Run("полигон в лимите не изменяется", func(t *testing.T) {
		poly := Polygon{{0, 0}, {4, 0}, {4, 3}, {0, 3}}
		got, err := FitString(poly, 256)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(poly) {
			t.Errorf("FitString() = %v, ожидалось %v", got, poly)
		}
	})

	t.Run("полигон усекается до лимита", func(t *testing.T) {
		poly := zigzag(40)
		budget := 60
		got, err := FitString(poly, budget)
		if err != nil {
			t.Fatal(err)
		}
		if len(ToString(got)) > budget {
			t.Errorf("строка %q длиннее лимита %d", ToString(got), budget)
		}
		if len(got) < 2 {
			t.Errorf("осталось %d вершин", len(got))
		}
		// Крайние вершины переживают усечение
		if got[0] != poly[0] || got[len(got)-1] != poly[len(poly)-1] {
			t.Errorf("крайние вершины утеряны: %v", got)
		}
	})

	t.Run("невыполнимый лимит", func(t *testing.T) {
		poly := Polygon{{100, 100}, {200, 100}, {200, 200}, {100, 200}}
		_, err := FitString(poly, 3)
		if !IsBudget(err) {
			t.Errorf("ожидалась ошибка лимита, получено %v", err)
		}
	})

	t.Run("повторные вершины удаляются", func(t *testing.T) {
		poly := Polygon{{1, 1}, {2, 2}, {1, 1}}
		got, err := FitString(poly, 256)
		if err != nil {
			t.Fatal(err)
		}
		want := Polygon{{1, 1}, {2, 2}}
		if !got.Equal(want) {
			t.Errorf("FitString() = %v, ожидалось %v", got, want)
		}
	})

	t.Run("результат повторно проходит кодек", func(t *testing.T) {
		poly := zigzag(30)
		got, err := FitString(poly, 100)
		if err != nil {
			t.Fatal(err)
		}
		s := ToString(got)
		if !strings.HasSuffix(s, " ") {
			t.Errorf("строка %q без завершающего пробела", s)
		}
		back, err := FromString(s)
		if err != nil {
			t.Fatal(err)
		}
		if !back.Equal(got) {
			t.Errorf("после кодека получено %v, ожидалось %v", back, got)
		}
	})
}
