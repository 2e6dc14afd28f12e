package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/k0kubun/pp"
	"github.com/sirupsen/logrus"

	irdirCtlMod "github.com/termovis/server/controller/irdir"
	"github.com/termovis/server/controller/manager"
	"github.com/termovis/server/pkg/config"
	"github.com/termovis/server/pkg/logger"
	"github.com/termovis/server/pkg/tool"
	"github.com/termovis/server/service"
	analyzeSvcMod "github.com/termovis/server/service/analyze"
	"github.com/termovis/server/store"
	dbStoreMod "github.com/termovis/server/store/db"
)

var (
	cfg *config.Config
	log *logrus.Logger
)

func init() {
	cfg = config.Get()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	log = logger.GetWithConfig(logger.Config{
		File:    filepath.Join(cfg.Log.Path, cfg.Log.Filename),
		Level:   level,
		Console: cfg.Log.Console,
	})
}

func main() {
	err := run()
	if err != nil {
		fmt.Printf("ОШИБКА: в процессе работы произошла ошибка: %v\n", err)
		fmt.Printf("Для подробностей смотри лог: %s/%s\n", cfg.Log.Path, cfg.Log.Filename)
		log.Fatal(errors.ErrorStack(err))
	}
}

func run() error {
	var (
		importFile  = flag.String("import", "", "импортировать события из файла документа")
		mapsDir     = flag.String("maps", "", "каталог инфракрасных карт для анализа при импорте")
		exportFile  = flag.String("export", "", "экспортировать события в файл документа")
		idsFlag     = flag.String("ids", "", "идентификаторы событий через запятую")
		useIDAsKey  = flag.Bool("id-keys", false, "использовать идентификаторы событий как ключи документа")
		globalID    = flag.Int64("global", 0, "напечатать общий полигон события")
		statusID    = flag.Int64("status", 0, "сменить статус анализа события")
		statusValue = flag.String("set-status", "", "новое значение статуса анализа")
		deleteFlag  = flag.Bool("delete", false, "удалить события из -ids")
		listFlag    = flag.Bool("list", false, "напечатать события по фильтру")
		experiment  = flag.Int64("experiment", 0, "фильтр: идентификатор эксперимента")
		device      = flag.String("device", "", "фильтр: устройство")
		category    = flag.String("category", "", "фильтр: категория")
		dataset     = flag.String("dataset", "", "фильтр: датасет")
		excludeFrom = flag.Float64("exclude-from", 0, "фильтр: начало исключаемого интервала, с")
		excludeTo   = flag.Float64("exclude-to", 0, "фильтр: конец исключаемого интервала, с")
	)
	flag.Parse()

	log.Debug(pp.Sprint(cfg))

	// Отлавливаем сигнал завершения работы программы
	chanInterrupt := make(chan os.Signal, 1)
	signal.Notify(chanInterrupt, os.Interrupt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-chanInterrupt
		log.Info("получена по каналу interrupt команда на завершение работы программы")
		cancel()
	}()

	// region Настройка БД

	if cfg.Db.Type != "sqlite" {
		return errors.Errorf("неподдерживаемый тип базы данных %q", cfg.Db.Type)
	}
	dbStore, err := dbStoreMod.NewDb(ctx, &dbStoreMod.ConfigDb{
		Log:    log,
		DbFile: filepath.Join(cfg.Db.Path, cfg.Db.Filename),
	})
	if err != nil {
		return errors.Trace(err)
	}

	// endregion
	// region Сервис анализа
	// Анализ подключается только при указании каталога инфракрасных карт

	var analyzeSvc service.AnalyzeSvc
	if *mapsDir != "" {
		mapCtl, err := irdirCtlMod.NewIrdir(ctx, &irdirCtlMod.ConfigIrdir{
			Log: log,
			Dir: *mapsDir,
		})
		if err != nil {
			return errors.Trace(err)
		}
		analyzeSvc, err = analyzeSvcMod.NewAnalyze(ctx, &analyzeSvcMod.ConfigAnalyze{
			Log:       log,
			MapCtl:    mapCtl,
			Workers:   cfg.Analysis.Workers,
			Quantiles: cfg.Analysis.Quantiles,
		})
		if err != nil {
			return errors.Trace(err)
		}
	}

	// endregion
	// region Менеджер управления всеми

	managerCtl, err := manager.NewManager(ctx, &manager.ConfigManager{
		Log:                   log,
		AnalyzeSvc:            analyzeSvc,
		DbStore:               dbStore,
		InstancePolygonBudget: cfg.Polygon.InstanceBudget,
		GlobalPolygonBudget:   cfg.Polygon.GlobalBudget,
	})
	if err != nil {
		return errors.Trace(err)
	}

	// endregion

	switch {
	case *importFile != "":
		ids, err := managerCtl.ImportFile(*importFile)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("импортированы события: %s\n", joinIds(ids))

	case *exportFile != "":
		ids, err := parseIds(*idsFlag)
		if err != nil {
			return errors.Trace(err)
		}
		if err := managerCtl.ExportFile(*exportFile, ids, *useIDAsKey); err != nil {
			return errors.Trace(err)
		}

	case *globalID != 0:
		poly, err := managerCtl.GlobalPolygon(*globalID)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Println(poly)

	case *statusID != 0:
		if err := dbStore.ChangeAnalysisStatus(*statusID, *statusValue); err != nil {
			return errors.Trace(err)
		}

	case *deleteFlag:
		ids, err := parseIds(*idsFlag)
		if err != nil {
			return errors.Trace(err)
		}
		if err := dbStore.DeleteEvents(ids...); err != nil {
			return errors.Trace(err)
		}

	case *listFlag:
		filter := store.EventFilter{
			Device:   *device,
			Category: *category,
			Dataset:  *dataset,
		}
		if *experiment != 0 {
			filter.ExperimentID = experiment
		}
		if *excludeFrom != 0 || *excludeTo != 0 {
			interval := store.TimeInterval{}
			if *excludeFrom != 0 {
				from := tool.SecondsToNs(*excludeFrom)
				interval.From = &from
			}
			if *excludeTo != 0 {
				to := tool.SecondsToNs(*excludeTo)
				interval.To = &to
			}
			filter.ExcludeIntervals = append(filter.ExcludeIntervals, interval)
		}
		events, err := dbStore.Events(filter)
		if err != nil {
			return errors.Trace(err)
		}
		for _, event := range events {
			fmt.Printf("%d\t%s\t%s\t%.3f-%.3f с\t%s\n",
				event.ID, event.Category, event.Device,
				tool.NsToSeconds(event.InitialTimestampNs),
				tool.NsToSeconds(event.FinalTimestampNs),
				event.AnalysisStatus)
		}

	default:
		flag.Usage()
	}

	return nil
}

// parseIds разбирает список идентификаторов вида "1,2,3"
func parseIds(value string) ([]int64, error) {
	if value == "" {
		return nil, errors.New("не переданы идентификаторы (-ids)")
	}
	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.Annotatef(err, "некорректный идентификатор %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinIds(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
