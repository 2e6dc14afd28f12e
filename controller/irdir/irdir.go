package irdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/termovis/server/controller"
	"github.com/termovis/server/pkg/irmap"
)

const (
	cacheDuration = 5 * time.Minute
	cacheCleared  = 30 * time.Minute
)

// Irdir контроллер инфракрасных карт из каталога CSV-файлов. Файл карты на
// метку времени ts называется "<ts>.csv" и содержит температуры построчно.
// Инициируется через NewIrdir
type Irdir struct {
	ctx context.Context
	log *logrus.Entry
	dir string

	mapCache *cache.Cache
}

// ConfigIrdir конфигурация класса Irdir
type ConfigIrdir struct {
	Log *logrus.Logger

	// Каталог с файлами инфракрасных карт
	Dir string
}

// NewIrdir конструктор класса Irdir
func NewIrdir(ctx context.Context, config *ConfigIrdir) (controller.MapCtl, error) {
	if config == nil {
		return nil, errors.New("не указана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if config.Dir == "" {
		return nil, errors.New("не указан каталог инфракрасных карт")
	}
	if stat, err := os.Stat(config.Dir); err != nil || !stat.IsDir() {
		return nil, errors.Errorf("каталог инфракрасных карт %s недоступен", config.Dir)
	}

	irdir := Irdir{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "irdir",
			"scope":  "controller",
		}),
		dir: config.Dir,

		mapCache: cache.New(cacheDuration, cacheCleared),
	}

	return &irdir, nil
}

// Map возвращает инфракрасную карту на метку времени timestampNs
func (m *Irdir) Map(timestampNs int64) (*irmap.Map, error) {
	cacheKey := fmt.Sprint(timestampNs)
	if cached, ok := m.mapCache.Get(cacheKey); ok {
		return cached.(*irmap.Map), nil
	}

	path := filepath.Join(m.dir, fmt.Sprintf("%d.csv", timestampNs))
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "открытие файла карты %s", path)
	}
	defer func() {
		_ = file.Close()
	}()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Annotatef(err, "разбор файла карты %s", path)
	}

	rows := make([][]float64, len(records))
	for y, record := range records {
		rows[y] = make([]float64, len(record))
		for x, field := range record {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Annotatef(err, "значение (%d, %d) файла %s", x, y, path)
			}
			rows[y][x] = value
		}
	}

	im, err := irmap.NewMapFrom(rows)
	if err != nil {
		return nil, errors.Annotatef(err, "карта из файла %s", path)
	}

	m.mapCache.SetDefault(cacheKey, im)
	m.log.Debugf("загружена карта %s (%dx%d)", path, im.Width(), im.Height())
	return im, nil
}
