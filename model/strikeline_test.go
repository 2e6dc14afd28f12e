package model

import (
	"strings"
	"testing"

	"github.com/termovis/server/pkg/polygon"
)

func TestNewStrikeLineDescriptor(t *testing.T) {
	line := polygon.Polygon{{X: 10, Y: 5}, {X: 20, Y: 7}, {X: 30, Y: 12}}
	descriptor, err := NewStrikeLineDescriptor(7, line, 15.5, 0.02)
	if err != nil {
		t.Fatal(err)
	}
	if descriptor.InstanceID != 7 || descriptor.Angle != 15.5 || descriptor.Curve != 0.02 {
		t.Errorf("дескриптор: %+v", descriptor)
	}
	// Короткая линия переносится без упрощения
	if !descriptor.SegmentedPoints.Equal(line) {
		t.Errorf("линия %v, ожидалось %v", descriptor.SegmentedPoints, line)
	}
}

func TestNewStrikeLineDescriptorLongLine(t *testing.T) {
	// Линия, не помещающаяся в лимит строкового представления
	var line polygon.Polygon
	for i := 0; i < 200; i++ {
		line = append(line, polygon.Point{X: i * 10, Y: (i * i) % 97})
	}

	descriptor, err := NewStrikeLineDescriptor(1, line, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	encoded := polygon.ToString(descriptor.SegmentedPoints)
	if len(encoded) > DefaultPolygonBudget {
		t.Errorf("длина строки %d превышает лимит %d", len(encoded), DefaultPolygonBudget)
	}
	if len(descriptor.SegmentedPoints) < 2 {
		t.Errorf("после упрощения осталось %d точек", len(descriptor.SegmentedPoints))
	}
	// Концы линии сохраняются при упрощении
	s := strings.TrimSpace(encoded)
	if !strings.HasPrefix(s, "0 0 ") {
		t.Errorf("начало линии потеряно: %q", encoded)
	}
}
