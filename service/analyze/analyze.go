package analyze

import (
	"context"
	"io/ioutil"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/termovis/server/controller"
	"github.com/termovis/server/model"
	"github.com/termovis/server/pkg/irmap"
	"github.com/termovis/server/service"
)

const defaultWorkers = 4

// Analyze сервис вычисления статистики температур. Инициируется через
// NewAnalyze
type Analyze struct {
	ctx context.Context
	log *logrus.Entry

	mapCtl controller.MapCtl
	pool   *irmap.MaskPool

	workers   int
	quantiles bool
}

// ConfigAnalyze конфигурация класса Analyze
type ConfigAnalyze struct {
	Log *logrus.Logger

	MapCtl controller.MapCtl

	// Число параллельных обработчиков инстансов
	Workers int
	// Вычислять охватывающие прямоугольники квантилей температуры
	Quantiles bool
}

// NewAnalyze конструктор класса Analyze
func NewAnalyze(ctx context.Context, config *ConfigAnalyze) (service.AnalyzeSvc, error) {
	if config == nil {
		return nil, errors.New("не указана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if config.MapCtl == nil {
		return nil, errors.New("не передан контроллер инфракрасных карт")
	}

	analyze := Analyze{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "analyze",
			"scope":  "service",
		}),
		mapCtl:    config.MapCtl,
		pool:      irmap.NewMaskPool(),
		workers:   defaultWorkers,
		quantiles: config.Quantiles,
	}
	if config.Workers > 0 {
		analyze.workers = config.Workers
	}

	return &analyze, nil
}

// AnalyzeInstance заполняет статистику температур одного инстанса по карте im
func (m *Analyze) AnalyzeInstance(instance *model.Instance, im *irmap.Map) error {
	err := instance.ApplyImage(im, irmap.Options{
		Quantiles: m.quantiles,
		Pool:      m.pool,
	})
	return errors.Trace(err)
}

// AnalyzeEvent заполняет статистику температур всех инстансов события и
// пересчитывает его сводные поля. Инстансы обрабатываются параллельно
func (m *Analyze) AnalyzeEvent(event *model.Event) error {
	// Первый пересчёт дедуплицирует инстансы до раздачи по обработчикам
	if err := event.Compute(); err != nil {
		return errors.Trace(err)
	}

	group, ctx := errgroup.WithContext(m.ctx)
	jobs := make(chan *model.Instance)

	for i := 0; i < m.workers; i++ {
		group.Go(func() error {
			for instance := range jobs {
				im, err := m.mapCtl.Map(instance.TimestampNs)
				if err != nil {
					return errors.Annotatef(err, "карта на момент %d", instance.TimestampNs)
				}
				if err := m.AnalyzeInstance(instance, im); err != nil {
					return errors.Annotatef(err, "анализ инстанса на момент %d", instance.TimestampNs)
				}
			}
			return nil
		})
	}

	group.Go(func() error {
		defer close(jobs)
		for _, instance := range event.Instances {
			select {
			case jobs <- instance:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return errors.Trace(err)
	}

	m.log.Debugf("проанализировано инстансов: %d", len(event.Instances))
	return errors.Trace(event.Compute())
}
