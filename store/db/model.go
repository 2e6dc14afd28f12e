package db

import (
	"time"

	"github.com/termovis/server/model"
	"github.com/termovis/server/pkg/polygon"
)

type (
	// GormModelUnscoped модель эквивалент gorm.Model без сохранения удалений
	GormModelUnscoped struct {
		ID        int64 `gorm:"primaryKey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Event тепловое событие
	Event struct {
		GormModelUnscoped
		ExperimentID         int64  `gorm:"index;not null"`
		LineOfSight          string `gorm:"size:255;index"`
		Device               string `gorm:"size:255;not null"`
		Category             string `gorm:"size:255;index"`
		IsAutomaticDetection bool
		Method               string  `gorm:"size:255;not null"`
		Confidence           float64 `gorm:"not null"`
		Severity             string  `gorm:"size:64;index"`
		User                 string  `gorm:"size:255;index"`
		Dataset              string  `gorm:"size:64;index"`
		Comments             string  `gorm:"size:255"`
		Name                 string  `gorm:"size:255"`
		AnalysisStatus       string  `gorm:"size:64;index"`
		InitialTimestampNs   int64   `gorm:"index;not null"`
		FinalTimestampNs     int64   `gorm:"index;not null"`
		DurationNs           int64   `gorm:"not null"`
		MaxTemperature       *float64
		MaxTTimestampNs      *int64
		Instances            []Instance `gorm:"foreignKey:EventID" validate:"dive"`
	}
)

// TableName имя таблицы
func (Event) TableName() string {
	return "thermal_events"
}

// ToEvent маппинг данных в структуру model.Event
func (m Event) ToEvent() *model.Event {
	event := model.Event{
		ID:                   m.ID,
		ExperimentID:         m.ExperimentID,
		LineOfSight:          m.LineOfSight,
		Device:               m.Device,
		Category:             m.Category,
		IsAutomaticDetection: m.IsAutomaticDetection,
		Method:               m.Method,
		Confidence:           m.Confidence,
		Severity:             m.Severity,
		User:                 m.User,
		Dataset:              m.Dataset,
		Comments:             m.Comments,
		Name:                 m.Name,
		AnalysisStatus:       m.AnalysisStatus,
		InitialTimestampNs:   m.InitialTimestampNs,
		FinalTimestampNs:     m.FinalTimestampNs,
		DurationNs:           m.DurationNs,
	}
	if m.MaxTemperature != nil {
		maxT := *m.MaxTemperature
		event.MaxTemperature = &maxT
	}
	if m.MaxTTimestampNs != nil {
		maxTS := *m.MaxTTimestampNs
		event.MaxTTimestampNs = &maxTS
	}
	for _, instance := range m.Instances {
		event.Instances = append(event.Instances, instance.ToInstance())
	}
	return &event
}

// FromEvent заполняет текущую структуру из структуры model.Event
func (m *Event) FromEvent(event model.Event) {
	*m = Event{
		GormModelUnscoped:    GormModelUnscoped{ID: event.ID},
		ExperimentID:         event.ExperimentID,
		LineOfSight:          event.LineOfSight,
		Device:               event.Device,
		Category:             event.Category,
		IsAutomaticDetection: event.IsAutomaticDetection,
		Method:               event.Method,
		Confidence:           event.Confidence,
		Severity:             event.Severity,
		User:                 event.User,
		Dataset:              event.Dataset,
		Comments:             event.Comments,
		Name:                 event.Name,
		AnalysisStatus:       event.AnalysisStatus,
		InitialTimestampNs:   event.InitialTimestampNs,
		FinalTimestampNs:     event.FinalTimestampNs,
		DurationNs:           event.DurationNs,
		MaxTemperature:       event.MaxTemperature,
		MaxTTimestampNs:      event.MaxTTimestampNs,
	}
	for _, instance := range event.Instances {
		var row Instance
		row.FromInstance(*instance)
		m.Instances = append(m.Instances, row)
	}
}

type (
	// Instance наблюдение теплового события в один момент времени
	Instance struct {
		GormModelUnscoped
		EventID     int64 `gorm:"index;not null"`
		TimestampNs int64 `gorm:"index;not null"`

		// Контур области в строковом представлении. Пустая строка означает,
		// что область записана только охватывающим прямоугольником
		Polygon    string `gorm:"size:256" validate:"polygon"`
		BboxX      int    `gorm:"not null"`
		BboxY      int    `gorm:"not null"`
		BboxWidth  int    `gorm:"not null"`
		BboxHeight int    `gorm:"not null"`

		PfcID int64 `gorm:"index"`

		MaxTemperature  *float64
		MinTemperature  *float64
		MeanTemperature *float64
		StdTemperature  *float64

		MaxPosX *int
		MaxPosY *int
		MinPosX *int
		MinPosY *int

		CentroidX *float64
		CentroidY *float64

		PixelArea *int

		OverheatingFactor *float64
		PhysicalArea      *float64

		MaxWorldX      *float64
		MaxWorldY      *float64
		MaxWorldZ      *float64
		MinWorldX      *float64
		MinWorldY      *float64
		MinWorldZ      *float64
		CentroidWorldX *float64
		CentroidWorldY *float64
		CentroidWorldZ *float64

		// Охватывающие прямоугольники долей самых горячих пикселей в
		// строковом представлении "x y w h"
		Quantile50 string `gorm:"size:20"`
		Quantile25 string `gorm:"size:20"`
		Quantile10 string `gorm:"size:20"`
		Quantile5  string `gorm:"size:20"`
	}
)

// TableName имя таблицы
func (Instance) TableName() string {
	return "thermal_events_instances"
}

// ToInstance маппинг данных в структуру model.Instance
func (m Instance) ToInstance() *model.Instance {
	instance := model.Instance{
		ID:          m.ID,
		TimestampNs: m.TimestampNs,
		Rect: polygon.Rect{
			Left:   m.BboxX,
			Top:    m.BboxY,
			Width:  m.BboxWidth,
			Height: m.BboxHeight,
		},
		PfcID:             m.PfcID,
		MaxTemperature:    m.MaxTemperature,
		MinTemperature:    m.MinTemperature,
		MeanTemperature:   m.MeanTemperature,
		StdTemperature:    m.StdTemperature,
		CentroidX:         m.CentroidX,
		CentroidY:         m.CentroidY,
		PixelArea:         m.PixelArea,
		OverheatingFactor: m.OverheatingFactor,
		PhysicalArea:      m.PhysicalArea,
	}

	if poly, err := polygon.FromString(m.Polygon); err == nil && len(poly) > 0 {
		instance.Shape = model.PolygonShape{Points: poly}
	} else {
		instance.Shape = model.RectShape{Rect: instance.Rect}
	}

	if m.MaxPosX != nil && m.MaxPosY != nil {
		instance.MaxPos = &polygon.Point{X: *m.MaxPosX, Y: *m.MaxPosY}
	}
	if m.MinPosX != nil && m.MinPosY != nil {
		instance.MinPos = &polygon.Point{X: *m.MinPosX, Y: *m.MinPosY}
	}

	instance.MaxWorldPos = toWorldPoint(m.MaxWorldX, m.MaxWorldY, m.MaxWorldZ)
	instance.MinWorldPos = toWorldPoint(m.MinWorldX, m.MinWorldY, m.MinWorldZ)
	instance.CentroidWorldPos = toWorldPoint(m.CentroidWorldX, m.CentroidWorldY, m.CentroidWorldZ)

	quantiles := map[int]string{
		50: m.Quantile50,
		25: m.Quantile25,
		10: m.Quantile10,
		5:  m.Quantile5,
	}
	for level, value := range quantiles {
		if value == "" {
			continue
		}
		rect, err := polygon.RectFromString(value)
		if err != nil {
			continue
		}
		if instance.Quantiles == nil {
			instance.Quantiles = map[int]polygon.Rect{}
		}
		instance.Quantiles[level] = rect
	}

	return &instance
}

// FromInstance заполняет текущую структуру из структуры model.Instance
func (m *Instance) FromInstance(instance model.Instance) {
	*m = Instance{
		GormModelUnscoped: GormModelUnscoped{ID: instance.ID},
		TimestampNs:       instance.TimestampNs,
		BboxX:             instance.Rect.Left,
		BboxY:             instance.Rect.Top,
		BboxWidth:         instance.Rect.Width,
		BboxHeight:        instance.Rect.Height,
		PfcID:             instance.PfcID,
		MaxTemperature:    instance.MaxTemperature,
		MinTemperature:    instance.MinTemperature,
		MeanTemperature:   instance.MeanTemperature,
		StdTemperature:    instance.StdTemperature,
		CentroidX:         instance.CentroidX,
		CentroidY:         instance.CentroidY,
		PixelArea:         instance.PixelArea,
		OverheatingFactor: instance.OverheatingFactor,
		PhysicalArea:      instance.PhysicalArea,
	}

	if shape, ok := instance.Shape.(model.PolygonShape); ok {
		m.Polygon = polygon.ToString(shape.Points)
	}

	if instance.MaxPos != nil {
		x, y := instance.MaxPos.X, instance.MaxPos.Y
		m.MaxPosX, m.MaxPosY = &x, &y
	}
	if instance.MinPos != nil {
		x, y := instance.MinPos.X, instance.MinPos.Y
		m.MinPosX, m.MinPosY = &x, &y
	}

	m.MaxWorldX, m.MaxWorldY, m.MaxWorldZ = fromWorldPoint(instance.MaxWorldPos)
	m.MinWorldX, m.MinWorldY, m.MinWorldZ = fromWorldPoint(instance.MinWorldPos)
	m.CentroidWorldX, m.CentroidWorldY, m.CentroidWorldZ = fromWorldPoint(instance.CentroidWorldPos)

	for level, rect := range instance.Quantiles {
		value := polygon.RectToString(rect)
		switch level {
		case 50:
			m.Quantile50 = value
		case 25:
			m.Quantile25 = value
		case 10:
			m.Quantile10 = value
		case 5:
			m.Quantile5 = value
		}
	}
}

type (
	// StrikeLineDescriptor дескриптор линии удара плазмы, привязанный к
	// инстансу теплового события
	StrikeLineDescriptor struct {
		GormModelUnscoped
		ThermalEventInstanceID int64 `gorm:"index;not null"`

		// Точки сегментированной линии в строковом представлении
		SegmentedPoints string `gorm:"size:256;not null" validate:"required,polygon"`

		// Угол наклона линии в градусах
		Angle float64 `gorm:"not null"`
		// Кривизна линии
		Curve float64 `gorm:"not null"`

		Comments string `gorm:"size:255"`

		// Признак, что дескриптор вычислен в реальном времени
		FlagRT bool
	}
)

// TableName имя таблицы
func (StrikeLineDescriptor) TableName() string {
	return "strike_line_descriptors"
}

// ToDescriptor маппинг данных в структуру model.StrikeLineDescriptor
func (m StrikeLineDescriptor) ToDescriptor() *model.StrikeLineDescriptor {
	descriptor := model.StrikeLineDescriptor{
		ID:         m.ID,
		InstanceID: m.ThermalEventInstanceID,
		Angle:      m.Angle,
		Curve:      m.Curve,
		Comments:   m.Comments,
		FlagRT:     m.FlagRT,
	}
	if poly, err := polygon.FromString(m.SegmentedPoints); err == nil {
		descriptor.SegmentedPoints = poly
	}
	return &descriptor
}

// FromDescriptor заполняет текущую структуру из model.StrikeLineDescriptor
func (m *StrikeLineDescriptor) FromDescriptor(descriptor model.StrikeLineDescriptor) {
	*m = StrikeLineDescriptor{
		GormModelUnscoped:      GormModelUnscoped{ID: descriptor.ID},
		ThermalEventInstanceID: descriptor.InstanceID,
		SegmentedPoints:        polygon.ToString(descriptor.SegmentedPoints),
		Angle:                  descriptor.Angle,
		Curve:                  descriptor.Curve,
		Comments:               descriptor.Comments,
		FlagRT:                 descriptor.FlagRT,
	}
}

func toWorldPoint(x, y, z *float64) *model.WorldPoint {
	if x == nil || y == nil || z == nil {
		return nil
	}
	return &model.WorldPoint{X: *x, Y: *y, Z: *z}
}

func fromWorldPoint(p *model.WorldPoint) (x, y, z *float64) {
	if p == nil {
		return nil, nil, nil
	}
	vx, vy, vz := p.X, p.Y, p.Z
	return &vx, &vy, &vz
}

type (
	// User пользователь с правом записи в БД
	User struct {
		Name string `gorm:"primaryKey;size:255"`
	}

	// Device термоядерная установка
	Device struct {
		Name        string `gorm:"primaryKey;size:255"`
		Description string `gorm:"size:255"`
	}

	// LineOfSight луч наблюдения инфракрасной камеры
	LineOfSight struct {
		Name        string `gorm:"primaryKey;size:255"`
		Description string `gorm:"size:255"`
	}

	// Category категория теплового события
	Category struct {
		Name        string `gorm:"primaryKey;size:255"`
		Description string `gorm:"size:255"`
	}

	// CategoryLineOfSight совместимость категории с лучом наблюдения
	CategoryLineOfSight struct {
		Category    string `gorm:"primaryKey;size:255"`
		LineOfSight string `gorm:"primaryKey;size:255"`
	}

	// Method метод детектирования или разметки событий
	Method struct {
		Name        string `gorm:"primaryKey;size:255"`
		Description string `gorm:"size:255"`
	}

	// Severity степень серьёзности события
	Severity struct {
		Name        string `gorm:"primaryKey;size:64"`
		Description string `gorm:"size:255"`
	}

	// AnalysisStatus статус анализа события
	AnalysisStatus struct {
		Name        string `gorm:"primaryKey;size:64"`
		Description string `gorm:"size:255"`
	}

	// Dataset датасет разметки
	Dataset struct {
		GormModelUnscoped
		AnnotationType string `gorm:"size:64"`
		Description    string `gorm:"size:255"`
	}
)

// TableName имя таблицы
func (User) TableName() string {
	return "users"
}

// TableName имя таблицы
func (Device) TableName() string {
	return "devices"
}

// TableName имя таблицы
func (LineOfSight) TableName() string {
	return "lines_of_sight"
}

// TableName имя таблицы
func (Category) TableName() string {
	return "thermal_event_categories"
}

// TableName имя таблицы
func (CategoryLineOfSight) TableName() string {
	return "thermal_event_category_lines_of_sight"
}

// TableName имя таблицы
func (Method) TableName() string {
	return "methods"
}

// TableName имя таблицы
func (Severity) TableName() string {
	return "severity_types"
}

// TableName имя таблицы
func (AnalysisStatus) TableName() string {
	return "analysis_status"
}

// TableName имя таблицы
func (Dataset) TableName() string {
	return "datasets"
}
