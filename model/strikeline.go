package model

import (
	"github.com/juju/errors"

	"github.com/termovis/server/pkg/polygon"
)

// StrikeLineDescriptor описание линии удара плазмы внутри инстанса теплового
// события: сегментированная линия на изображении, её угол наклона и кривизна
type StrikeLineDescriptor struct {
	ID int64

	// Идентификатор инстанса, к которому привязан дескриптор
	InstanceID int64 `validate:"gt=0"`

	// Точки сегментированной линии
	SegmentedPoints polygon.Polygon

	// Угол наклона линии в градусах
	Angle float64
	// Кривизна линии
	Curve float64

	Comments string

	// Признак, что дескриптор вычислен в реальном времени
	FlagRT bool
}

// NewStrikeLineDescriptor конструктор дескриптора линии удара. Линия при
// необходимости упрощается до DefaultPolygonBudget символов строкового
// представления
func NewStrikeLineDescriptor(instanceID int64, points polygon.Polygon, angle, curve float64) (*StrikeLineDescriptor, error) {
	fitted, err := polygon.FitString(points, DefaultPolygonBudget)
	if err != nil {
		return nil, errors.Annotate(err, "упрощение линии удара")
	}

	return &StrikeLineDescriptor{
		InstanceID:      instanceID,
		SegmentedPoints: fitted,
		Angle:           angle,
		Curve:           curve,
	}, nil
}
