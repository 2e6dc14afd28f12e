package db

import (
	"context"
	"fmt"
	"io/ioutil"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/termovis/server/model"
	"github.com/termovis/server/pkg/validator"
	"github.com/termovis/server/store"
)

const (
	cacheDuration = 10 * time.Minute
	cacheCleared  = time.Hour

	// Значения по умолчанию для незаполненных полей события
	defaultDataset        = "1"
	defaultAnalysisStatus = "not analyzed"
)

// Db обращение к базе данных. Инициируется через NewDb
type Db struct {
	ctx       context.Context
	log       *logrus.Entry
	db        *gorm.DB
	validator *validator.Validator

	eventCache *cache.Cache
}

// ConfigDb конфигурация класса NewDb
type ConfigDb struct {
	Log    *logrus.Logger
	DbFile string
}

// NewDb конструктор класса Db
func NewDb(ctx context.Context, config *ConfigDb) (store.EventStore, error) {
	if config == nil {
		return nil, errors.New("не указана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if config.DbFile == "" {
		return nil, errors.New("в конфигурации не указана строка подключения")
	}

	// Подключаемся к БД и запускаем миграции
	conn, err := gorm.Open(sqlite.Open(config.DbFile), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, errors.Annotate(err, "ошибка подключения к файлу БД")
	}
	err = conn.AutoMigrate(
		Event{}, Instance{}, StrikeLineDescriptor{},
		User{}, Device{}, LineOfSight{},
		Category{}, CategoryLineOfSight{},
		Method{}, Severity{}, AnalysisStatus{}, Dataset{},
	)
	if err != nil {
		return nil, errors.Annotate(err, "ошибка миграции БД")
	}
	if err := seedDefaults(conn); err != nil {
		return nil, errors.Annotate(err, "ошибка заполнения справочников")
	}

	db := Db{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "db",
			"scope":  "store",
		}),
		validator: validator.Get(),
		db:        conn,

		eventCache: cache.New(cacheDuration, cacheCleared),
	}

	return &db, nil
}

// seedDefaults заполняет справочники статусов анализа и степеней серьёзности
// стартовыми значениями
func seedDefaults(conn *gorm.DB) error {
	statuses := []AnalysisStatus{
		{Name: "not analyzed", Description: "событие ещё не анализировалось"},
		{Name: "to analyze", Description: "событие отобрано для анализа"},
		{Name: "analyzed", Description: "анализ события завершён"},
	}
	for _, status := range statuses {
		if err := conn.FirstOrCreate(&AnalysisStatus{}, status).Error; err != nil {
			return errors.Trace(err)
		}
	}

	severities := []Severity{
		{Name: "ok", Description: "не требует внимания"},
		{Name: "to monitor", Description: "требует наблюдения"},
		{Name: "critical", Description: "требует немедленной реакции"},
	}
	for _, severity := range severities {
		if err := conn.FirstOrCreate(&Severity{}, severity).Error; err != nil {
			return errors.Trace(err)
		}
	}

	// Базовый датасет, используемый событиями по умолчанию
	if err := conn.FirstOrCreate(&Dataset{}, Dataset{
		GormModelUnscoped: GormModelUnscoped{ID: 1},
		AnnotationType:    "bounding box",
	}).Error; err != nil {
		return errors.Trace(err)
	}

	return nil
}

// IsNotFound проверяет, что ошибка err обозначает, что записи не найдены
func (m Db) IsNotFound(err error) bool {
	return errors.Cause(err) == gorm.ErrRecordNotFound
}

// CreateEvents создаёт события вместе с их инстансами. Перед записью сводные
// поля событий пересчитываются, событие без имени получает сгенерированное имя
func (m *Db) CreateEvents(events ...*model.Event) error {
	if len(events) == 0 {
		return errors.New("не переданы события для записи")
	}

	for _, event := range events {
		if err := event.Compute(); err != nil {
			return errors.Trace(err)
		}
		if event.Dataset == "" {
			event.Dataset = defaultDataset
		}
		if event.AnalysisStatus == "" {
			event.AnalysisStatus = defaultAnalysisStatus
		}
		if event.Name == "" {
			event.Name = uuid.New().String()
		}
		if err := m.validator.Validate(event); err != nil {
			return errors.Annotate(err, "валидация события")
		}
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		for _, event := range events {
			var row Event
			row.FromEvent(*event)
			if err := m.validator.Validate(&row); err != nil {
				return errors.Annotate(err, "валидация записи события")
			}
			if err := tx.Create(&row).Error; err != nil {
				return errors.Trace(err)
			}
			event.ID = row.ID
			for i, instance := range row.Instances {
				event.Instances[i].ID = instance.ID
			}
		}
		return nil
	})
	if err != nil {
		return errors.Annotate(err, "запись событий")
	}

	m.log.Debugf("записано событий: %d", len(events))
	return nil
}

// Event получает событие по идентификатору вместе с инстансами. Отсутствие
// события проверяется через IsNotFound
func (m *Db) Event(id int64) (*model.Event, error) {
	if id == 0 {
		return nil, errors.New("передан некорректный идентификатор id=0")
	}

	cacheKey := fmt.Sprint(id)
	if cached, ok := m.eventCache.Get(cacheKey); ok {
		return cached.(*model.Event), nil
	}

	var row Event
	err := m.db.
		Preload("Instances", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp_ns ASC")
		}).
		Take(&row, id).Error
	if err != nil {
		if errors.Cause(err) == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Trace(err)
	}

	event := row.ToEvent()
	m.eventCache.SetDefault(cacheKey, event)
	return event, nil
}

// Events поиск событий по фильтру колонок
func (m *Db) Events(filter store.EventFilter) ([]*model.Event, error) {
	query := m.db.Model(&Event{})

	if filter.ExperimentID != nil {
		query = query.Where("experiment_id = ?", *filter.ExperimentID)
	}
	if filter.LineOfSight != "" {
		query = query.Where("line_of_sight = ?", filter.LineOfSight)
	}
	if filter.Device != "" {
		query = query.Where("device = ?", filter.Device)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.User != "" {
		query = query.Where("user = ?", filter.User)
	}
	if filter.Dataset != "" {
		// Поле датасета хранит список через запятую ("1, 3, 5")
		query = query.Where(
			"dataset = ? OR dataset LIKE ? OR dataset LIKE ? OR dataset LIKE ?",
			filter.Dataset,
			filter.Dataset+",%", "%, "+filter.Dataset, "%, "+filter.Dataset+",%",
		)
	}
	if filter.AnalysisStatus != "" {
		query = query.Where("analysis_status = ?", filter.AnalysisStatus)
	}

	// Отбрасываем события, целиком лежащие внутри исключаемых интервалов
	for _, interval := range filter.ExcludeIntervals {
		switch {
		case interval.From != nil && interval.To != nil:
			query = query.Where(
				"NOT (initial_timestamp_ns >= ? AND final_timestamp_ns <= ?)",
				*interval.From, *interval.To,
			)
		case interval.From != nil:
			query = query.Where("initial_timestamp_ns < ?", *interval.From)
		case interval.To != nil:
			query = query.Where("final_timestamp_ns > ?", *interval.To)
		}
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []Event
	err := query.
		Preload("Instances", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp_ns ASC")
		}).
		Order("initial_timestamp_ns ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Trace(err)
	}

	events := make([]*model.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.ToEvent())
	}
	return events, nil
}

// EventsByExperiment события эксперимента. Непустой lineOfSight дополнительно
// сужает поиск до одного луча наблюдения
func (m *Db) EventsByExperiment(experimentID int64, lineOfSight string) ([]*model.Event, error) {
	return m.Events(store.EventFilter{
		ExperimentID: &experimentID,
		LineOfSight:  lineOfSight,
	})
}

// EventsByDataset события, входящие в датасет dataset
func (m *Db) EventsByDataset(dataset string) ([]*model.Event, error) {
	return m.Events(store.EventFilter{Dataset: dataset})
}

// ChangeAnalysisStatus меняет статус анализа события
func (m *Db) ChangeAnalysisStatus(eventID int64, status string) error {
	if eventID == 0 {
		return errors.New("передан некорректный идентификатор id=0")
	}

	var count int64
	if err := m.db.Model(&AnalysisStatus{}).Where("name = ?", status).Count(&count).Error; err != nil {
		return errors.Trace(err)
	}
	if count == 0 {
		return errors.Errorf("неизвестный статус анализа %q", status)
	}

	res := m.db.Model(&Event{}).Where("id = ?", eventID).Update("analysis_status", status)
	if res.Error != nil {
		return errors.Trace(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	m.eventCache.Delete(fmt.Sprint(eventID))
	return nil
}

// DeleteEvents удаляет события по идентификаторам вместе с их инстансами
func (m *Db) DeleteEvents(ids ...int64) error {
	if len(ids) == 0 {
		return errors.New("не переданы идентификаторы для удаления")
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		instanceIds := tx.Model(&Instance{}).Select("id").Where("event_id IN ?", ids)
		if err := tx.Where("thermal_event_instance_id IN (?)", instanceIds).
			Delete(&StrikeLineDescriptor{}).Error; err != nil {
			return errors.Trace(err)
		}
		if err := tx.Where("event_id IN ?", ids).Delete(&Instance{}).Error; err != nil {
			return errors.Trace(err)
		}
		if err := tx.Where("id IN ?", ids).Delete(&Event{}).Error; err != nil {
			return errors.Trace(err)
		}
		return nil
	})
	if err != nil {
		return errors.Annotate(err, "удаление событий")
	}

	for _, id := range ids {
		m.eventCache.Delete(fmt.Sprint(id))
	}
	m.log.Debugf("удалено событий: %d", len(ids))
	return nil
}

// CreateStrikeLineDescriptors создаёт дескрипторы линий удара
func (m *Db) CreateStrikeLineDescriptors(descriptors ...*model.StrikeLineDescriptor) error {
	if len(descriptors) == 0 {
		return errors.New("не переданы дескрипторы для записи")
	}

	rows := make([]StrikeLineDescriptor, len(descriptors))
	for i, descriptor := range descriptors {
		rows[i].FromDescriptor(*descriptor)
		if err := m.validator.Validate(&rows[i]); err != nil {
			return errors.Annotate(err, "валидация дескриптора")
		}
		var count int64
		if err := m.db.Model(&Instance{}).
			Where("id = ?", descriptor.InstanceID).
			Count(&count).Error; err != nil {
			return errors.Trace(err)
		}
		if count == 0 {
			return errors.Errorf("инстанс %d не найден", descriptor.InstanceID)
		}
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return errors.Trace(err)
			}
			descriptors[i].ID = rows[i].ID
		}
		return nil
	})
	if err != nil {
		return errors.Annotate(err, "запись дескрипторов")
	}

	m.log.Debugf("записано дескрипторов линий удара: %d", len(descriptors))
	return nil
}

// StrikeLineDescriptorsByInstance дескрипторы линий удара инстанса
func (m *Db) StrikeLineDescriptorsByInstance(instanceID int64) ([]*model.StrikeLineDescriptor, error) {
	if instanceID == 0 {
		return nil, errors.New("передан некорректный идентификатор id=0")
	}

	var rows []StrikeLineDescriptor
	err := m.db.
		Where("thermal_event_instance_id = ?", instanceID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Trace(err)
	}

	descriptors := make([]*model.StrikeLineDescriptor, 0, len(rows))
	for _, row := range rows {
		descriptors = append(descriptors, row.ToDescriptor())
	}
	return descriptors, nil
}

// RealTimeStrikeLineDescriptors дескрипторы линий удара, вычисленные в
// реальном времени
func (m *Db) RealTimeStrikeLineDescriptors() ([]*model.StrikeLineDescriptor, error) {
	var rows []StrikeLineDescriptor
	err := m.db.
		Where("flag_rt = ?", true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Trace(err)
	}

	descriptors := make([]*model.StrikeLineDescriptor, 0, len(rows))
	for _, row := range rows {
		descriptors = append(descriptors, row.ToDescriptor())
	}
	return descriptors, nil
}

// UpdateStrikeLineDescriptor обновляет дескриптор линии удара по идентификатору
func (m *Db) UpdateStrikeLineDescriptor(descriptor *model.StrikeLineDescriptor) error {
	if descriptor == nil || descriptor.ID == 0 {
		return errors.New("не передан дескриптор с идентификатором")
	}

	var row StrikeLineDescriptor
	row.FromDescriptor(*descriptor)
	if err := m.validator.Validate(&row); err != nil {
		return errors.Annotate(err, "валидация дескриптора")
	}

	res := m.db.Model(&StrikeLineDescriptor{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"thermal_event_instance_id": row.ThermalEventInstanceID,
			"segmented_points":          row.SegmentedPoints,
			"angle":                     row.Angle,
			"curve":                     row.Curve,
			"comments":                  row.Comments,
			"flag_rt":                   row.FlagRT,
		})
	if res.Error != nil {
		return errors.Trace(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteStrikeLineDescriptors удаляет дескрипторы линий удара по
// идентификаторам
func (m *Db) DeleteStrikeLineDescriptors(ids ...int64) error {
	if len(ids) == 0 {
		return errors.New("не переданы идентификаторы для удаления")
	}

	if err := m.db.Where("id IN ?", ids).Delete(&StrikeLineDescriptor{}).Error; err != nil {
		return errors.Annotate(err, "удаление дескрипторов")
	}

	m.log.Debugf("удалено дескрипторов линий удара: %d", len(ids))
	return nil
}

// Users список имён пользователей с правом записи
func (m *Db) Users() ([]string, error) {
	var names []string
	err := m.db.Model(&User{}).Order("name ASC").Pluck("name", &names).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return names, nil
}

// HasWriteRights проверяет, что пользователь user имеет право записи
func (m *Db) HasWriteRights(user string) (bool, error) {
	var count int64
	err := m.db.Model(&User{}).Where("name = ?", user).Count(&count).Error
	if err != nil {
		return false, errors.Trace(err)
	}
	return count > 0, nil
}

// Categories список категорий тепловых событий
func (m *Db) Categories() ([]string, error) {
	var names []string
	err := m.db.Model(&Category{}).Order("name ASC").Pluck("name", &names).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return names, nil
}

// CompatibleLinesOfSight список лучей наблюдения, совместимых с категорией
func (m *Db) CompatibleLinesOfSight(category string) ([]string, error) {
	var names []string
	err := m.db.Model(&CategoryLineOfSight{}).
		Where("category = ?", category).
		Order("line_of_sight ASC").
		Pluck("line_of_sight", &names).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return names, nil
}

// AnalysisStatuses список статусов анализа
func (m *Db) AnalysisStatuses() ([]string, error) {
	var names []string
	err := m.db.Model(&AnalysisStatus{}).Order("name ASC").Pluck("name", &names).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return names, nil
}

// Devices список устройств
func (m *Db) Devices() ([]string, error) {
	var names []string
	err := m.db.Model(&Device{}).Order("name ASC").Pluck("name", &names).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return names, nil
}

// Methods список методов детектирования и разметки
func (m *Db) Methods() ([]string, error) {
	var names []string
	err := m.db.Model(&Method{}).Order("name ASC").Pluck("name", &names).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return names, nil
}

// Datasets список идентификаторов датасетов
func (m *Db) Datasets() ([]string, error) {
	var ids []int64
	err := m.db.Model(&Dataset{}).Order("id ASC").Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = strconv.FormatInt(id, 10)
	}
	return res, nil
}
