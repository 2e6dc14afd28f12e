package service

import (
	"github.com/termovis/server/model"
	"github.com/termovis/server/pkg/irmap"
)

// AnalyzeSvc сервис вычисления статистики температур тепловых событий по
// инфракрасным картам
//go:generate mockery --dir . --name AnalyzeSvc --output ./mocks
type AnalyzeSvc interface {
	// Заполняет статистику температур одного инстанса по карте im
	AnalyzeInstance(instance *model.Instance, im *irmap.Map) error
	// Заполняет статистику температур всех инстансов события и пересчитывает
	// его сводные поля. Карты запрашиваются по меткам времени инстансов
	AnalyzeEvent(event *model.Event) error
}
