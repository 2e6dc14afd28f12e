package polygon

import (
	"container/heap"
	"math"
	"sort"

	"github.com/juju/errors"
)

// Simplifier упрощение полигона методом Висвалингама-Уайатта. При создании
// один раз за O(n log n) строится полный порядок вершин по эффективной
// площади (площадь треугольника, который вершина образует с текущими
// соседями в момент своего удаления). Дальнейшие запросы на усечение
// используют готовый порядок. Экземпляр привязан к одному полигону и не
// предназначен для повторного использования с другими полигонами
type Simplifier struct {
	points Polygon
	// Эффективная площадь каждой вершины. Крайние вершины получают +Inf и
	// не удаляются никогда
	ranks []float64
}

// NewSimplifier конструктор Simplifier. Полигон копируется
func NewSimplifier(poly Polygon) *Simplifier {
	m := Simplifier{
		points: make(Polygon, len(poly)),
		ranks:  make([]float64, len(poly)),
	}
	copy(m.points, poly)
	m.computeRanks()
	return &m
}

// FromNumber возвращает полигон, усечённый до n самых значимых вершин
// (удаляемых последними), в исходном порядке обхода. При n не меньше числа
// вершин возвращается копия исходного полигона
func (m *Simplifier) FromNumber(n int) Polygon {
	if n < 0 {
		n = 0
	}
	if n >= len(m.points) {
		res := make(Polygon, len(m.points))
		copy(res, m.points)
		return res
	}

	// Индексы в порядке убывания значимости. При равных площадях раньше
	// оставляется вершина с меньшим индексом
	order := make([]int, len(m.points))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if m.ranks[a] != m.ranks[b] {
			return m.ranks[a] > m.ranks[b]
		}
		return a < b
	})

	res := make(Polygon, 0, n)
	kept := make(map[int]struct{}, n)
	for _, idx := range order[:n] {
		kept[idx] = struct{}{}
	}
	for i, p := range m.points {
		if _, ok := kept[i]; ok {
			res = append(res, p)
		}
	}
	return res
}

// FitString упрощает полигон до тех пор, пока его строковое представление не
// уместится в budget символов. Цель по числу вершин начинается с n-1 и
// уменьшается на единицу на каждой итерации. Если цель доходит до одной
// вершины, лимит считается невыполнимым и возвращается ErrBudget. После
// подгонки из полигона удаляются повторяющиеся вершины (первое вхождение
// сохраняется в исходном порядке)
func FitString(poly Polygon, budget int) (Polygon, error) {
	cur := make(Polygon, len(poly))
	copy(cur, poly)

	if len(ToString(cur)) > budget {
		simplifier := NewSimplifier(poly)
		target := len(poly) - 1
		for len(ToString(cur)) > budget {
			if target <= 1 {
				return nil, errors.Annotatef(ErrBudget, "лимит %d символов", budget)
			}
			cur = simplifier.FromNumber(target)
			target--
		}
	}

	return cur.Dedupe(), nil
}

// vwVertex элемент очереди вершин-кандидатов на удаление
type vwVertex struct {
	idx  int
	area float64
	// Версия вершины на момент постановки в очередь. Устаревшие элементы
	// отбрасываются при извлечении
	ver int
}

// vwQueue очередь с приоритетом по минимальной эффективной площади
type vwQueue []vwVertex

func (q vwQueue) Len() int            { return len(q) }
func (q vwQueue) Less(i, j int) bool  { return q[i].area < q[j].area }
func (q vwQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *vwQueue) Push(x interface{}) { *q = append(*q, x.(vwVertex)) }
func (q *vwQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// computeRanks однократно вычисляет эффективную площадь всех вершин. Вершины
// удаляются по одной в порядке возрастания площади, соседи пересчитываются.
// Присваиваемые площади не убывают, чтобы порядок удаления был согласован
func (m *Simplifier) computeRanks() {
	n := len(m.points)
	for i := range m.ranks {
		m.ranks[i] = math.Inf(1)
	}
	if n < 3 {
		return
	}

	prev := make([]int, n)
	next := make([]int, n)
	ver := make([]int, n)
	for i := 0; i < n; i++ {
		prev[i] = i - 1
		next[i] = i + 1
	}

	area := func(i int) float64 {
		p, q, r := m.points[prev[i]], m.points[i], m.points[next[i]]
		cross := (q.X-p.X)*(r.Y-p.Y) - (r.X-p.X)*(q.Y-p.Y)
		return math.Abs(float64(cross)) / 2
	}

	queue := make(vwQueue, 0, n-2)
	for i := 1; i < n-1; i++ {
		queue = append(queue, vwVertex{idx: i, area: area(i), ver: 0})
	}
	heap.Init(&queue)

	last := 0.0
	for queue.Len() > 0 {
		item := heap.Pop(&queue).(vwVertex)
		if ver[item.idx] != item.ver {
			continue
		}

		rank := item.area
		if rank < last {
			rank = last
		}
		last = rank
		m.ranks[item.idx] = rank
		ver[item.idx] = -1

		p, q := prev[item.idx], next[item.idx]
		next[p] = q
		prev[q] = p
		for _, j := range [2]int{p, q} {
			if j <= 0 || j >= n-1 || ver[j] < 0 {
				continue
			}
			ver[j]++
			heap.Push(&queue, vwVertex{idx: j, area: area(j), ver: ver[j]})
		}
	}
}
