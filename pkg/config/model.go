package config

type (

	// Config конфигурация программы
	Config struct {

		// Описание логирования
		Log struct {

			// Путь к файлу лога
			Path string

			// Имя файла логирования
			Filename string `required:"true" default:"termovis.log"`

			// Уровень логирования
			Level string `required:"true" default:"warning"`

			// Выводить лог только на консоль
			Console bool `default:"false"`
		}

		// Описываем подключение к базе данных
		Db struct {

			// Тип базы данных (поддерживается sqlite)
			Type string `default:"sqlite"`

			// Путь к расположению базы данных
			Path string

			// Имя файла базы данных (для sqlite)
			Filename string `required:"true" default:"termovis.sqlite"`
		}

		// Параметры хранения полигонов
		Polygon struct {

			// Максимальная длина строки полигона инстанса (ширина колонки в БД)
			InstanceBudget int `default:"256"`

			// Максимальная длина строки общего полигона события
			GlobalBudget int `default:"600"`
		}

		// Параметры анализа инфракрасных карт
		Analysis struct {

			// Вычислять охватывающие прямоугольники квантилей температуры
			Quantiles bool `default:"false"`

			// Число параллельных обработчиков инстансов
			Workers int `default:"4"`
		}
	}
)
