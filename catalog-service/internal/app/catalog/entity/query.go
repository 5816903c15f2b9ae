package entity

import (
	"strconv"
	"strings"
)

// Поля, по которым разрешена сортировка списков
const (
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
	SortByName      = "name"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// DefaultPageLimit - размер страницы, если limit не передан
const DefaultPageLimit = 100

// ListQuery - параметры списка из query string (page, limit, search, sortBy, sortOrder)
type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

// ParseListQuery разбирает сырые значения query string
// Нечисловые page/limit считаются непереданными
func ParseListQuery(page, limit, search, sortBy, sortOrder string) ListQuery {
	return ListQuery{
		Page:      atoiOr(page, 1),
		Limit:     atoiOr(limit, DefaultPageLimit),
		Search:    strings.TrimSpace(search),
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// Normalize приводит параметры к допустимым значениям:
// page >= 1, limit в [1, maxLimit], sortBy из белого списка (иначе createdAt),
// sortOrder asc или desc (всё кроме asc - desc)
func (q ListQuery) Normalize(maxLimit int) ListQuery {
	if maxLimit < 1 {
		maxLimit = 1
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	switch q.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByName:
	default:
		q.SortBy = SortByCreatedAt
	}
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
	return q
}

// Skip - смещение для страницы
func (q ListQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}

// ToSpec строит спецификацию запроса к хранилищу по нормализованным параметрам
func (q ListQuery) ToSpec() QuerySpec {
	return QuerySpec{
		Filter: Filter{NameContains: q.Search},
		Sort:   Sort{Field: q.SortBy, Descending: q.SortOrder != SortAsc},
		Skip:   q.Skip(),
		Limit:  int64(q.Limit),
	}
}

// CacheKey - стабильное представление запроса для ключа кеша
func (q ListQuery) CacheKey() string {
	return "p=" + strconv.Itoa(q.Page) +
		":l=" + strconv.Itoa(q.Limit) +
		":sb=" + q.SortBy +
		":so=" + q.SortOrder +
		":s=" + strings.ToLower(q.Search)
}

// TotalPages = ceil(total / limit)
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// QuerySpec - запрос к хранилищу одним значением: фильтр, сортировка, skip, limit
// Limit == 0 означает "без ограничения"
type QuerySpec struct {
	Filter Filter
	Sort   Sort
	Skip   int64
	Limit  int64
}

// Filter - условия выборки
// NameContains - регистронезависимая подстрока в имени (пустая строка - без условия)
type Filter struct {
	NameContains string
	Parent       ParentFilter
}

// Sort - поле (одно из SortBy*) и направление сортировки
// Пустое поле - естественный порядок хранилища
type Sort struct {
	Field      string
	Descending bool
}

// ParentFilter ограничивает выборку по ссылке на родителя (mappedParent)
// Enabled=false - фильтра нет, подходят все записи
// Enabled=true с пустым IDs - не подходит ни одна запись
type ParentFilter struct {
	Enabled bool
	IDs     []string
}

// AnyParent - отсутствие фильтра по родителю
func AnyParent() ParentFilter {
	return ParentFilter{}
}

// ParentIn - фильтр "родитель входит в ids"
func ParentIn(ids ...string) ParentFilter {
	return ParentFilter{Enabled: true, IDs: ids}
}

// MatchesNothing - включенный фильтр без единого ID
func (f ParentFilter) MatchesNothing() bool {
	return f.Enabled && len(f.IDs) == 0
}

// IDSet - множество ID с сохранением порядка добавления
type IDSet struct {
	ids   []string
	index map[string]struct{}
}

func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{index: make(map[string]struct{}, len(ids))}
	s.Add(ids...)
	return s
}

// Add добавляет ID, пропуская пустые и повторы
func (s *IDSet) Add(ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
}

func (s *IDSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *IDSet) Len() int {
	return len(s.ids)
}

// Slice возвращает копию ID в порядке добавления
func (s *IDSet) Slice() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// SplitIDs разбирает значения вида ?ids=a,b&ids=c в плоский список без пустых элементов
func SplitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
	}
	return ids
}

// Page - страница результата списка
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

// NewPage собирает страницу и считает количество страниц
func NewPage[T any](items []T, total int64, q ListQuery) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		TotalCount: total,
		TotalPages: TotalPages(total, q.Limit),
		Page:       q.Page,
		Limit:      q.Limit,
	}
}

// Pagination возвращает блок пагинации для ответа
func (p *Page[T]) Pagination() Pagination {
	return Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
	}
}
