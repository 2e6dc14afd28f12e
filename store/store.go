package store

import (
	"github.com/termovis/server/model"
)

// EventStore репозиторий хранения тепловых событий
//go:generate mockery --dir . --name EventStore --output ./mocks
type EventStore interface {
	// Проверяет, что ошибка err обозначает, что записи не найдены
	IsNotFound(err error) bool

	// Создаёт события вместе с их инстансами. Перед записью сводные поля
	// событий пересчитываются, событие без имени получает сгенерированное имя
	CreateEvents(events ...*model.Event) error

	// Получает событие по идентификатору вместе с инстансами. Отсутствие
	// события проверяется через IsNotFound
	Event(id int64) (*model.Event, error)

	// Поиск событий по фильтру колонок
	Events(filter EventFilter) ([]*model.Event, error)

	// События эксперимента. Непустой lineOfSight дополнительно сужает поиск
	// до одного луча наблюдения
	EventsByExperiment(experimentID int64, lineOfSight string) ([]*model.Event, error)

	// События, входящие в датасет dataset
	EventsByDataset(dataset string) ([]*model.Event, error)

	// Меняет статус анализа события
	ChangeAnalysisStatus(eventID int64, status string) error

	// Удаляет события по идентификаторам вместе с их инстансами
	DeleteEvents(ids ...int64) error

	// Создаёт дескрипторы линий удара. У каждого дескриптора должен быть
	// заполнен идентификатор инстанса
	CreateStrikeLineDescriptors(descriptors ...*model.StrikeLineDescriptor) error

	// Дескрипторы линий удара инстанса
	StrikeLineDescriptorsByInstance(instanceID int64) ([]*model.StrikeLineDescriptor, error)

	// Дескрипторы линий удара, вычисленные в реальном времени
	RealTimeStrikeLineDescriptors() ([]*model.StrikeLineDescriptor, error)

	// Обновляет дескриптор линии удара по идентификатору
	UpdateStrikeLineDescriptor(descriptor *model.StrikeLineDescriptor) error

	// Удаляет дескрипторы линий удара по идентификаторам
	DeleteStrikeLineDescriptors(ids ...int64) error

	// Список имён пользователей с правом записи
	Users() ([]string, error)
	// Проверяет, что пользователь user имеет право записи
	HasWriteRights(user string) (bool, error)

	// Список категорий тепловых событий
	Categories() ([]string, error)
	// Список лучей наблюдения, совместимых с категорией category
	CompatibleLinesOfSight(category string) ([]string, error)
	// Список статусов анализа
	AnalysisStatuses() ([]string, error)
	// Список устройств
	Devices() ([]string, error)
	// Список методов детектирования и разметки
	Methods() ([]string, error)
	// Список идентификаторов датасетов
	Datasets() ([]string, error)
}

// TimeInterval интервал времени в наносекундах. Нулевой указатель означает
// открытую границу
type TimeInterval struct {
	From *int64
	To   *int64
}

// EventFilter фильтр поиска событий. Нулевые поля не участвуют в фильтрации
type EventFilter struct {
	ExperimentID   *int64
	LineOfSight    string
	Device         string
	Category       string
	Method         string
	User           string
	Dataset        string
	AnalysisStatus string

	// Исключает события, целиком лежащие внутри любого из интервалов
	ExcludeIntervals []TimeInterval

	// Пагинация. Нулевой Limit означает отсутствие ограничения
	Limit  int
	Offset int
}
