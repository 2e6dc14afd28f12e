package irdir

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
)

func TestMap(t *testing.T) {
	dir := t.TempDir()
	csv := "10,10,10\n10,42,10\n10,10,10\n"
	if err := ioutil.WriteFile(filepath.Join(dir, "100.csv"), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	mapCtl, err := NewIrdir(context.Background(), &ConfigIrdir{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}

	im, err := mapCtl.Map(100)
	if err != nil {
		t.Fatal(err)
	}
	if im.Width() != 3 || im.Height() != 3 {
		t.Errorf("размер карты %dx%d", im.Width(), im.Height())
	}
	if im.At(1, 1) != 42 {
		t.Errorf("At(1, 1) = %v, ожидалось 42", im.At(1, 1))
	}

	// Повторный запрос отдаёт карту из кэша
	again, err := mapCtl.Map(100)
	if err != nil {
		t.Fatal(err)
	}
	if again != im {
		t.Error("повторный запрос вернул другую карту")
	}
}

func TestMapErrors(t *testing.T) {
	dir := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(dir, "200.csv"), []byte("1,abc\n"), 0644); err != nil {
		t.Fatal(err)
	}

	mapCtl, err := NewIrdir(context.Background(), &ConfigIrdir{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := mapCtl.Map(999); err == nil {
		t.Error("ожидалась ошибка отсутствия файла")
	}
	if _, err := mapCtl.Map(200); err == nil {
		t.Error("ожидалась ошибка разбора")
	}
}

func TestNewIrdirConfig(t *testing.T) {
	if _, err := NewIrdir(context.Background(), nil); err == nil {
		t.Error("ожидалась ошибка отсутствия конфигурации")
	}
	if _, err := NewIrdir(context.Background(), &ConfigIrdir{Dir: "/несуществующий/каталог"}); err == nil {
		t.Error("ожидалась ошибка недоступного каталога")
	}
}
