package controller

import (
	"github.com/termovis/server/pkg/irmap"
)

// MapCtl контроллер доступа к инфракрасным картам эксперимента
//go:generate mockery --dir . --name MapCtl --output ./mocks
type MapCtl interface {
	// Возвращает инфракрасную карту на метку времени timestampNs
	Map(timestampNs int64) (*irmap.Map, error)
}
