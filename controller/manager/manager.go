package manager

import (
	"context"
	"io/ioutil"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/termovis/server/model"
	"github.com/termovis/server/pkg/polygon"
	"github.com/termovis/server/pkg/tool"
	"github.com/termovis/server/pkg/validator"
	"github.com/termovis/server/service"
	"github.com/termovis/server/store"
)

// ConfigManager конфигурация Manager
type ConfigManager struct {
	Log *logrus.Logger

	// Сервис анализа. Может быть nil, тогда импорт пропускает анализ и
	// переносит статистику температур из документа как есть
	AnalyzeSvc service.AnalyzeSvc

	DbStore store.EventStore

	// Лимит длины строки полигона инстанса. Полигоны импортируемых
	// документов упрощаются до этого лимита перед записью
	InstancePolygonBudget int

	// Лимит длины строки общего полигона события
	GlobalPolygonBudget int
}

// Manager основной менеджер работы с тепловыми событиями: импорт документов,
// анализ и запись в БД, экспорт. Инициируется через NewManager
type Manager struct {
	ctx       context.Context
	log       *logrus.Entry
	validator *validator.Validator

	analyzeSvc service.AnalyzeSvc
	dbStore    store.EventStore

	instancePolygonBudget int
	globalPolygonBudget   int
}

// NewManager конструктор Manager
func NewManager(ctx context.Context, config *ConfigManager) (*Manager, error) {
	if config == nil {
		return nil, errors.New("не передана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if config.DbStore == nil {
		return nil, errors.New("не передан сервис базы данных")
	}

	manager := Manager{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "manager",
			"scope":  "controller",
		}),
		validator:             validator.Get(),
		analyzeSvc:            config.AnalyzeSvc,
		dbStore:               config.DbStore,
		instancePolygonBudget: model.DefaultPolygonBudget,
		globalPolygonBudget:   model.DefaultGlobalPolygonBudget,
	}
	if config.InstancePolygonBudget > 0 {
		manager.instancePolygonBudget = config.InstancePolygonBudget
	}
	if config.GlobalPolygonBudget > 0 {
		manager.globalPolygonBudget = config.GlobalPolygonBudget
	}

	return &manager, nil
}

// ImportFile импортирует события из файла документа path в БД. События
// анализируются, если менеджеру передан сервис анализа. Возвращает
// идентификаторы записанных событий
func (m *Manager) ImportFile(path string) ([]int64, error) {
	events, err := model.ReadDocumentFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "чтение документа")
	}
	if len(events) == 0 {
		return nil, errors.Errorf("документ %s не содержит событий", path)
	}

	for _, event := range events {
		// Проверяем событие до анализа, чтобы не тратить работу на заведомо
		// некорректный документ
		if err := m.validator.Validate(event); err != nil {
			return nil, errors.Annotate(err, "валидация события")
		}
		if err := m.fitPolygons(event); err != nil {
			return nil, errors.Trace(err)
		}
		if m.analyzeSvc != nil {
			if err := m.analyzeSvc.AnalyzeEvent(event); err != nil {
				return nil, errors.Annotate(err, "анализ события")
			}
		} else if err := event.Compute(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	if err := m.dbStore.CreateEvents(events...); err != nil {
		return nil, errors.Annotate(err, "запись событий")
	}

	ids := make([]int64, len(events))
	for i, event := range events {
		ids[i] = event.ID
		m.log.Infof("импортировано событие %d (%s), длительность %.3f с",
			event.ID, event.Category, tool.NsToSeconds(event.DurationNs))
	}
	return ids, nil
}

// fitPolygons упрощает полигоны инстансов события до лимита длины строкового
// представления. Полигоны документов приходят без ограничения длины
func (m *Manager) fitPolygons(event *model.Event) error {
	for _, instance := range event.Instances {
		shape, ok := instance.Shape.(model.PolygonShape)
		if !ok {
			continue
		}
		fitted, err := polygon.FitString(shape.Points, m.instancePolygonBudget)
		if err != nil {
			return errors.Annotatef(err, "упрощение полигона инстанса %d", instance.TimestampNs)
		}
		instance.Shape = model.PolygonShape{Points: fitted}
	}
	return nil
}

// ExportFile экспортирует события с идентификаторами ids из БД в файл
// документа path. При useIDAsKey ключами документа становятся идентификаторы
// событий, иначе порядковые номера
func (m *Manager) ExportFile(path string, ids []int64, useIDAsKey bool) error {
	if len(ids) == 0 {
		return errors.New("не переданы идентификаторы событий")
	}

	events := make([]*model.Event, 0, len(ids))
	for _, id := range ids {
		event, err := m.dbStore.Event(id)
		if err != nil {
			return errors.Annotatef(err, "чтение события %d", id)
		}
		events = append(events, event)
	}

	if err := model.WriteDocumentFile(path, events, useIDAsKey); err != nil {
		return errors.Annotate(err, "запись документа")
	}

	m.log.Infof("экспортировано событий: %d", len(events))
	return nil
}

// GlobalPolygon общий полигон события с идентификатором id в строковом
// представлении
func (m *Manager) GlobalPolygon(id int64) (string, error) {
	event, err := m.dbStore.Event(id)
	if err != nil {
		return "", errors.Annotatef(err, "чтение события %d", id)
	}

	poly, err := event.GlobalPolygon(m.globalPolygonBudget)
	if err != nil {
		return "", errors.Trace(err)
	}
	return polygon.ToString(poly), nil
}
