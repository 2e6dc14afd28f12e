package polygon

import "sort"

// ConvexHull строит выпуклую оболочку набора точек методом монотонной цепи
// Эндрю. Возвращает вершины оболочки против часовой стрелки без повторения
// первой точки. Для пустого набора возвращается пустой полигон, для одной и
// двух точек набор возвращается как есть (без дубликатов)
func ConvexHull(points []Point) Polygon {
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	// Удаляем совпадающие точки, иначе оболочка получит нулевые рёбра
	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq

	if len(pts) < 3 {
		return Polygon(pts)
	}

	hull := make(Polygon, 0, 2*len(pts))

	// Нижняя цепь
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Верхняя цепь
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Последняя точка совпадает с первой
	return hull[:len(hull)-1]
}

// cross векторное произведение (b-a) x (c-a). Положительно для поворота
// против часовой стрелки
func cross(a, b, c Point) int {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
